package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shibukawa/spinetree"
	"github.com/shibukawa/spinetree/category"
	"github.com/shibukawa/spinetree/document"
	"github.com/shibukawa/spinetree/parser"
)

// Context represents the global context for commands
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewContext creates a context bound to the process streams.
func NewContext(config string, verbose, quiet bool) *Context {
	return &Context{
		Config:  config,
		Verbose: verbose,
		Quiet:   quiet,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// session is the configuration shared by one command invocation.
type session struct {
	config    *spinetree.Config
	hierarchy *category.Hierarchy
	parser    parser.Options
	logger    *slog.Logger
}

func (ctx *Context) session() (*session, error) {
	config, err := LoadConfig(ctx.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := NewLogger(ctx.logLevel(config), config.Logging.Format, ctx.Stderr)
	if err != nil {
		return nil, err
	}

	h, err := config.Hierarchy()
	if err != nil {
		return nil, err
	}

	popts, err := config.ParserOptions(h, logger)
	if err != nil {
		return nil, err
	}

	return &session{config: config, hierarchy: h, parser: popts, logger: logger}, nil
}

func (ctx *Context) logLevel(config *spinetree.Config) string {
	switch {
	case ctx.Verbose:
		return "debug"
	case ctx.Quiet:
		return "error"
	default:
		return config.Logging.Level
	}
}

// read parses the document at path; "" and "-" read standard input.
func (s *session) read(ctx *Context, path string) (*document.Document, error) {
	if path == "" || path == "-" {
		return document.Read(ctx.Stdin, "<stdin>", s.parser)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return document.Read(f, path, s.parser)
}

// write stores data in path, or writes it to stdout for "". The file is
// only created once the whole output is known.
func (ctx *Context) write(path string, data []byte) error {
	if path == "" {
		if _, err := ctx.Stdout.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return nil
}
