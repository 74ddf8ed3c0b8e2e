package importer

import (
	"errors"
	"maps"
	"slices"

	"github.com/shibukawa/spinetree/token"
)

// Sentinel errors
var (
	ErrInvalidCell           = errors.New("invalid cell")
	ErrInvalidInterpretation = errors.New("invalid interpretation")
	ErrInvalidDuration       = errors.New("invalid duration")
)

// Importer converts the raw text of one cell into a token. Errors are
// recoverable: the caller keeps parsing.
type Importer interface {
	Import(raw string) (token.Token, error)
}

// ImporterFunc adapts a function to Importer.
type ImporterFunc func(raw string) (token.Token, error)

func (f ImporterFunc) Import(raw string) (token.Token, error) {
	return f(raw)
}

// Registry resolves the importer of a voice type.
type Registry struct {
	importers map[string]Importer
	fallback  Importer
}

// NewRegistry returns a registry with the built-in voice types.
func NewRegistry() *Registry {
	kern := NewKernImporter()
	r := &Registry{
		importers: make(map[string]Importer),
		fallback:  NewCategoryImporter(token.Other),
	}

	r.Register("**kern", kern)
	r.Register("**ekern", kern)
	r.Register("**mens", NewCategoryImporter(token.Other))
	r.Register("**dynam", NewCategoryImporter(token.Dynamics))
	r.Register("**dyn", NewCategoryImporter(token.Dynamics))
	r.Register("**harm", NewCategoryImporter(token.Harmony))
	r.Register("**root", NewCategoryImporter(token.Harmony))
	r.Register("**fb", NewCategoryImporter(token.Harmony))
	r.Register("**fing", NewCategoryImporter(token.Fingering))
	r.Register("**text", NewCategoryImporter(token.Lyrics))
	r.Register("**silbe", NewCategoryImporter(token.Lyrics))

	return r
}

// Register sets the importer used by voices of voiceType.
func (r *Registry) Register(voiceType string, imp Importer) {
	r.importers[voiceType] = imp
}

// Lookup returns the importer for voiceType. Unknown voice types get the
// fallback importer and ok=false.
func (r *Registry) Lookup(voiceType string) (imp Importer, ok bool) {
	if imp, ok := r.importers[voiceType]; ok {
		return imp, true
	}
	return r.fallback, false
}

// VoiceTypes lists the registered voice types in sorted order.
func (r *Registry) VoiceTypes() []string {
	return slices.Sorted(maps.Keys(r.importers))
}
