package exporter

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shibukawa/spinetree/category"
	"github.com/shibukawa/spinetree/document"
	"github.com/shibukawa/spinetree/token"
	"github.com/shibukawa/spinetree/tree"
)

// Sentinel errors
var (
	ErrInvalidRange   = errors.New("invalid measure range")
	ErrInvalidOptions = errors.New("invalid export options")
)

// Options selects what part of a document is written and how.
type Options struct {
	// VoiceTypes keeps only voices of these types, e.g. "**kern". Nil keeps
	// every voice.
	VoiceTypes []string `yaml:"voice_types,omitempty"`
	// VoiceIDs keeps only voices with these declaration indexes. Nil keeps
	// every voice.
	VoiceIDs []int `yaml:"voice_ids,omitempty"`

	// Include and Exclude filter token categories. A nil Include selects
	// every category; exclusion always wins.
	Include []token.Category `yaml:"include,omitempty"`
	Exclude []token.Category `yaml:"exclude,omitempty"`

	// FromMeasure and ToMeasure are 1-based and inclusive. Zero leaves that
	// end of the range open.
	FromMeasure int `yaml:"from_measure,omitempty"`
	ToMeasure   int `yaml:"to_measure,omitempty"`

	Variant token.Variant `yaml:"variant,omitempty"`

	// Where, when set, turns every cell it rejects into a placeholder.
	// Spine operators and headers are kept.
	Where *document.Where `yaml:"-"`
}

// DefaultOptions exports the whole document in the canonical decorated form.
var DefaultOptions = Options{Variant: token.VariantEKern}

// plan is a validated Options resolved against one document.
type plan struct {
	start, end int
	bounded    bool
	variant    token.Variant
	selector   *category.Selector
	voices     map[tree.NodeID]bool // selected header nodes
	where      *document.Where
}

func (o Options) resolve(doc *document.Document, h *category.Hierarchy) (*plan, error) {
	variant := o.Variant
	if variant == "" {
		variant = token.VariantEKern
	}
	if err := variant.Validate(); err != nil {
		return nil, err
	}

	selector, err := h.Selector(o.Include, o.Exclude)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	count := doc.MeasuresCount()
	if o.FromMeasure < 0 || o.FromMeasure > count {
		return nil, fmt.Errorf("%w: from_measure %d not in [1, %d]", ErrInvalidRange, o.FromMeasure, count)
	}
	if o.ToMeasure < 0 || o.ToMeasure > count {
		return nil, fmt.Errorf("%w: to_measure %d not in [1, %d]", ErrInvalidRange, o.ToMeasure, count)
	}
	if o.FromMeasure > 0 && o.ToMeasure > 0 && o.ToMeasure < o.FromMeasure {
		return nil, fmt.Errorf("%w: to_measure %d before from_measure %d", ErrInvalidRange, o.ToMeasure, o.FromMeasure)
	}

	voices := doc.Voices()
	for _, id := range o.VoiceIDs {
		if id < 0 || id >= len(voices) {
			return nil, fmt.Errorf("%w: voice id %d not in [0, %d)", ErrInvalidOptions, id, len(voices))
		}
	}

	p := &plan{
		end:      doc.Tree().LastStage(),
		bounded:  o.ToMeasure > 0,
		variant:  variant,
		selector: selector,
		voices:   make(map[tree.NodeID]bool, len(voices)),
		where:    o.Where,
	}
	starts := doc.MeasureStarts()
	if o.FromMeasure > 1 {
		p.start = starts[o.FromMeasure-1]
	}
	if o.ToMeasure > 0 && o.ToMeasure < count {
		p.end = starts[o.ToMeasure]
	}

	for _, v := range voices {
		if o.VoiceTypes != nil && !slices.Contains(o.VoiceTypes, v.Type) {
			continue
		}
		if o.VoiceIDs != nil && !slices.Contains(o.VoiceIDs, v.ID) {
			continue
		}
		p.voices[v.Node] = true
	}
	return p, nil
}
