package category

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/shibukawa/spinetree/token"
)

// Sentinel errors
var (
	ErrUnknownCategory   = errors.New("unknown category")
	ErrInvalidHierarchy  = errors.New("invalid category hierarchy")
	ErrDuplicateCategory = errors.New("duplicate category")
)

//go:embed hierarchy.yaml
var defaultHierarchy []byte

// Entry is one row of the category table.
type Entry struct {
	Name   token.Category `yaml:"name"`
	Parent token.Category `yaml:"parent,omitempty"`
}

type file struct {
	Categories []Entry `yaml:"categories"`
}

// Hierarchy is a static category tree. All derived sets are computed once
// in New, so a Hierarchy can be shared between goroutines.
type Hierarchy struct {
	order     []token.Category
	parent    map[token.Category]token.Category
	children  map[token.Category][]token.Category
	ancestors map[token.Category][]token.Category
	nodes     map[token.Category][]token.Category
	leaves    map[token.Category][]token.Category
}

var defaultOnce = sync.OnceValues(func() (*Hierarchy, error) {
	return Load(defaultHierarchy)
})

// Default returns the built-in hierarchy.
func Default() *Hierarchy {
	h, err := defaultOnce()
	if err != nil {
		panic(fmt.Sprintf("embedded category hierarchy: %v", err))
	}
	return h
}

// LoadFile reads a hierarchy table from a YAML file.
func LoadFile(path string) (*Hierarchy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category file: %w", err)
	}
	return Load(data)
}

// Load parses a hierarchy table from YAML.
func Load(data []byte) (*Hierarchy, error) {
	var f file
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHierarchy, err)
	}
	return New(f.Categories)
}

// New builds a hierarchy from category → parent entries.
func New(entries []Entry) (*Hierarchy, error) {
	h := &Hierarchy{
		parent:    make(map[token.Category]token.Category, len(entries)),
		children:  make(map[token.Category][]token.Category),
		ancestors: make(map[token.Category][]token.Category, len(entries)),
		nodes:     make(map[token.Category][]token.Category, len(entries)),
		leaves:    make(map[token.Category][]token.Category, len(entries)),
	}

	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: entry without name", ErrInvalidHierarchy)
		}
		if _, ok := h.parent[e.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCategory, e.Name)
		}
		h.parent[e.Name] = e.Parent
		h.order = append(h.order, e.Name)
	}

	for _, c := range h.order {
		p := h.parent[c]
		if p == "" {
			continue
		}
		if _, ok := h.parent[p]; !ok {
			return nil, fmt.Errorf("%w: parent '%s' of '%s' is not declared", ErrInvalidHierarchy, p, c)
		}
		h.children[p] = append(h.children[p], c)
	}

	for _, c := range h.order {
		chain := []token.Category{c}
		for p := h.parent[c]; p != ""; p = h.parent[p] {
			if slices.Contains(chain, p) {
				return nil, fmt.Errorf("%w: cycle through '%s'", ErrInvalidHierarchy, c)
			}
			chain = append(chain, p)
		}
		h.ancestors[c] = chain
	}

	for _, c := range h.order {
		h.nodes[c] = h.collect(c, false)
		h.leaves[c] = h.collect(c, true)
	}

	return h, nil
}

func (h *Hierarchy) collect(c token.Category, leavesOnly bool) []token.Category {
	var result []token.Category
	var walk func(token.Category)
	walk = func(n token.Category) {
		kids := h.children[n]
		if !leavesOnly || len(kids) == 0 {
			result = append(result, n)
		}
		for _, k := range kids {
			walk(k)
		}
	}
	walk(c)
	return result
}

// Categories returns every declared category in declaration order.
func (h *Hierarchy) Categories() []token.Category {
	return slices.Clone(h.order)
}

// Known reports whether c is declared.
func (h *Hierarchy) Known(c token.Category) bool {
	_, ok := h.parent[c]
	return ok
}

// Parent returns the parent of c, or "" for roots.
func (h *Hierarchy) Parent(c token.Category) token.Category {
	return h.parent[c]
}

// Ancestors returns c followed by its ancestors up to the root.
func (h *Hierarchy) Ancestors(c token.Category) []token.Category {
	return slices.Clone(h.ancestorsOf(c))
}

// Children returns the direct children of c.
func (h *Hierarchy) Children(c token.Category) []token.Category {
	return slices.Clone(h.children[c])
}

// Nodes returns c and all of its descendants.
func (h *Hierarchy) Nodes(c token.Category) []token.Category {
	return slices.Clone(h.nodes[c])
}

// Leaves returns the descendants of c that have no children.
func (h *Hierarchy) Leaves(c token.Category) []token.Category {
	return slices.Clone(h.leaves[c])
}

// Match decides whether c is selected by include/exclude. Exclusion of c or
// any ancestor always wins; a nil include selects everything.
func (h *Hierarchy) Match(c token.Category, include, exclude []token.Category) (bool, error) {
	s, err := h.Selector(include, exclude)
	if err != nil {
		return false, err
	}
	return s.Match(c), nil
}
