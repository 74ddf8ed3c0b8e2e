package parser

import (
	"log/slog"

	"github.com/shibukawa/spinetree/importer"
)

// Options controls how rows are turned into a tree.
type Options struct {
	// Registry resolves cell importers per voice type. Nil uses the built-in
	// registry.
	Registry *importer.Registry
	// Normalize, when set, rewrites every token encoding once the tree is
	// built.
	Normalize func(string) string
	// Logger receives build diagnostics. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions provides the default parser options.
var DefaultOptions = Options{}

func (o Options) withDefaults() Options {
	if o.Registry == nil {
		o.Registry = importer.NewRegistry()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}
