package spinetree

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"golang.org/x/text/unicode/norm"

	"github.com/shibukawa/spinetree/category"
	"github.com/shibukawa/spinetree/exporter"
	"github.com/shibukawa/spinetree/importer"
	"github.com/shibukawa/spinetree/parser"
	"github.com/shibukawa/spinetree/token"
)

// ErrConfigValidation is returned when configuration validation fails
var ErrConfigValidation = errors.New("configuration validation failed")

// DefaultConfigFile is looked up in the working directory.
const DefaultConfigFile = "spinetree.yaml"

// Config represents the spinetree configuration
type Config struct {
	Export               ExportConfig      `yaml:"export"`
	CategoriesFile       string            `yaml:"categories_file"`
	UnicodeNormalization string            `yaml:"unicode_normalization"`
	VoiceTypes           map[string]string `yaml:"voice_types"` // extra voice type -> category
	Batch                BatchConfig       `yaml:"batch"`
	Catalog              CatalogConfig     `yaml:"catalog"`
	Logging              LoggingConfig     `yaml:"logging"`
}

// ExportConfig holds the export defaults used when a flag is not given
type ExportConfig struct {
	Variant    string   `yaml:"variant"`
	VoiceTypes []string `yaml:"voice_types"`
	Include    []string `yaml:"include"`
	Exclude    []string `yaml:"exclude"`
}

// BatchConfig represents batch conversion settings
type BatchConfig struct {
	Parallel  int    `yaml:"parallel"`
	OutputDir string `yaml:"output_dir"`
	Extension string `yaml:"extension"`
}

// CatalogConfig represents the conversion catalog settings
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig represents log output settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // auto, text or json
}

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	// Check if config file exists
	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		// Return default configuration if file doesn't exist
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}

	expandConfigEnvVars(config)

	return config, nil
}

// ParseConfig parses, validates and completes a configuration document
func ParseConfig(data []byte) (*Config, error) {
	// Parse YAML with strict mode to detect unknown fields
	var config Config

	err := yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	if _, err := token.ParseVariant(config.Export.Variant); err != nil {
		return fmt.Errorf("%w: export.variant: %w", ErrConfigValidation, err)
	}

	validNormalizations := map[string]bool{
		"none": true,
		"nfc":  true,
		"nfd":  true,
		"nfkc": true,
		"nfkd": true,
	}
	if !validNormalizations[config.UnicodeNormalization] {
		return fmt.Errorf("%w: unicode_normalization '%s' is invalid: must be one of none, nfc, nfd, nfkc, nfkd", ErrConfigValidation, config.UnicodeNormalization)
	}

	for voiceType, c := range config.VoiceTypes {
		if !strings.HasPrefix(voiceType, "**") || len(voiceType) == 2 {
			return fmt.Errorf("%w: voice_types: '%s' must start with '**'", ErrConfigValidation, voiceType)
		}
		if c == "" {
			return fmt.Errorf("%w: voice_types.%s: category is required", ErrConfigValidation, voiceType)
		}
	}

	if config.Batch.Parallel < 0 {
		return fmt.Errorf("%w: batch.parallel must be non-negative, got %d", ErrConfigValidation, config.Batch.Parallel)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[config.Logging.Level] {
		return fmt.Errorf("%w: logging.level '%s' is invalid: must be one of debug, info, warn, error", ErrConfigValidation, config.Logging.Level)
	}

	validFormats := map[string]bool{
		"auto": true,
		"text": true,
		"json": true,
	}
	if !validFormats[config.Logging.Format] {
		return fmt.Errorf("%w: logging.format '%s' is invalid: must be one of auto, text, json", ErrConfigValidation, config.Logging.Format)
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	config := &Config{}
	applyDefaults(config)

	return config
}

// applyDefaults applies default values to missing configuration fields
func applyDefaults(config *Config) {
	if config.Export.Variant == "" {
		config.Export.Variant = string(token.VariantEKern)
	}

	if config.UnicodeNormalization == "" {
		config.UnicodeNormalization = "none"
	}

	if config.VoiceTypes == nil {
		config.VoiceTypes = make(map[string]string)
	}

	if config.Batch.OutputDir == "" {
		config.Batch.OutputDir = "./exported"
	}

	if config.Batch.Extension == "" {
		config.Batch.Extension = ".krn"
	}

	if config.Catalog.Path == "" {
		config.Catalog.Path = "./spinetree.db"
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "warn"
	}

	if config.Logging.Format == "" {
		config.Logging.Format = "auto"
	}
}

// loadEnvFiles loads .env files if they exist
func loadEnvFiles() error {
	for _, name := range []string{".env.local", ".env"} {
		if !fileExists(name) {
			continue
		}

		err := godotenv.Load(name)
		if err != nil {
			return fmt.Errorf("failed to load %s file: %w", name, err)
		}
	}

	return nil
}

var (
	bracedEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	plainEnvVar  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	s = bracedEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	return plainEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
}

// expandConfigEnvVars expands environment variables in path settings
func expandConfigEnvVars(config *Config) {
	config.CategoriesFile = expandEnvVars(config.CategoriesFile)
	config.Batch.OutputDir = expandEnvVars(config.Batch.OutputDir)
	config.Catalog.Path = expandEnvVars(config.Catalog.Path)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// Hierarchy returns the configured category table, or the built-in one
func (c *Config) Hierarchy() (*category.Hierarchy, error) {
	if c.CategoriesFile == "" {
		return category.Default(), nil
	}

	h, err := category.LoadFile(c.CategoriesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories file: %w", err)
	}

	return h, nil
}

// Normalizer returns the configured Unicode normalization, or nil for none
func (c *Config) Normalizer() func(string) string {
	switch c.UnicodeNormalization {
	case "nfc":
		return norm.NFC.String
	case "nfd":
		return norm.NFD.String
	case "nfkc":
		return norm.NFKC.String
	case "nfkd":
		return norm.NFKD.String
	default:
		return nil
	}
}

// ParserOptions builds parser options with the configured voice types
func (c *Config) ParserOptions(h *category.Hierarchy, logger *slog.Logger) (parser.Options, error) {
	registry := importer.NewRegistry()

	for voiceType, name := range c.VoiceTypes {
		cat := token.Category(strings.ToUpper(name))
		if !h.Known(cat) {
			return parser.Options{}, fmt.Errorf("%w: voice_types.%s: %w: '%s'", ErrConfigValidation, voiceType, category.ErrUnknownCategory, name)
		}
		registry.Register(voiceType, importer.NewCategoryImporter(cat))
	}

	return parser.Options{
		Registry:  registry,
		Normalize: c.Normalizer(),
		Logger:    logger,
	}, nil
}

// ExportOptions returns the export defaults of the configuration
func (c *Config) ExportOptions() (exporter.Options, error) {
	variant, err := token.ParseVariant(c.Export.Variant)
	if err != nil {
		return exporter.Options{}, fmt.Errorf("%w: export.variant: %w", ErrConfigValidation, err)
	}

	return exporter.Options{
		VoiceTypes: c.Export.VoiceTypes,
		Include:    Categories(c.Export.Include),
		Exclude:    Categories(c.Export.Exclude),
		Variant:    variant,
	}, nil
}

// Categories converts category names, keeping nil as nil
func Categories(names []string) []token.Category {
	if names == nil {
		return nil
	}

	categories := make([]token.Category, len(names))
	for i, name := range names {
		categories[i] = token.Category(strings.ToUpper(strings.TrimSpace(name)))
	}

	return categories
}
