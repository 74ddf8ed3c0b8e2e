package category

import (
	"fmt"

	"github.com/shibukawa/spinetree/token"
)

// Selector is a validated include/exclude pair.
type Selector struct {
	h       *Hierarchy
	all     bool
	include map[token.Category]bool
	exclude map[token.Category]bool
}

// Selector validates include/exclude once so the result can be applied to
// many tokens.
func (h *Hierarchy) Selector(include, exclude []token.Category) (*Selector, error) {
	s := &Selector{
		h:       h,
		all:     include == nil,
		include: make(map[token.Category]bool, len(include)),
		exclude: make(map[token.Category]bool, len(exclude)),
	}
	for _, c := range include {
		if !h.Known(c) {
			return nil, fmt.Errorf("%w: '%s' in include", ErrUnknownCategory, c)
		}
		s.include[c] = true
	}
	for _, c := range exclude {
		if !h.Known(c) {
			return nil, fmt.Errorf("%w: '%s' in exclude", ErrUnknownCategory, c)
		}
		s.exclude[c] = true
	}
	return s, nil
}

// Match reports whether the categories, taken together with their
// ancestors, are selected. Sub-elements of compound tokens pass their own
// category and the one of the token that owns them. A nil selector selects
// everything.
func (s *Selector) Match(categories ...token.Category) bool {
	if s == nil {
		return true
	}
	included := s.all
	for _, c := range categories {
		for _, a := range s.h.ancestorsOf(c) {
			if s.exclude[a] {
				return false
			}
			if s.include[a] {
				included = true
			}
		}
	}
	return included
}

func (h *Hierarchy) ancestorsOf(c token.Category) []token.Category {
	if chain, ok := h.ancestors[c]; ok {
		return chain
	}
	return []token.Category{c}
}
