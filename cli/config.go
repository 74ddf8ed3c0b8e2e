package cli

import (
	"github.com/shibukawa/spinetree"
)

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*spinetree.Config, error) {
	return spinetree.LoadConfig(configPath)
}
