// Package document wraps a built spine tree with its derived indices and the
// read-only query surface. A Document never changes after Build returns, so
// it can be queried and exported from several goroutines.
package document

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/shibukawa/spinetree/category"
	"github.com/shibukawa/spinetree/parser"
	"github.com/shibukawa/spinetree/token"
	"github.com/shibukawa/spinetree/tokenizer"
	"github.com/shibukawa/spinetree/tree"
)

// Sentinel errors
var (
	ErrMeasureOutOfRange = errors.New("measure out of range")
)

// Document is a parsed spine document.
type Document struct {
	ID     uuid.UUID
	Source string

	tree          *tree.Tree
	measureStarts []int
	headerStage   int
	pages         map[string]*parser.PageBox
	errors        []parser.CellError
}

// Voice is one declared voice.
type Voice struct {
	// ID numbers voices in declaration order, starting at 0.
	ID   int
	Type string
	// Node holds the header token.
	Node  tree.NodeID
	Stage int
}

// New wraps a parser result.
func New(result *parser.Result, source string) *Document {
	return &Document{
		ID:            uuid.New(),
		Source:        source,
		tree:          result.Tree,
		measureStarts: result.MeasureStarts,
		headerStage:   result.HeaderStage,
		pages:         result.PageBoundingBoxes,
		errors:        result.Errors,
	}
}

// Build parses rows into a document. Only structural errors are returned;
// rejected cells are available from Errors.
func Build(rows tokenizer.RowIterator, source string, opts parser.Options) (*Document, error) {
	result, err := parser.Parse(rows, opts)
	if err != nil {
		if source != "" {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		return nil, err
	}
	return New(result, source), nil
}

// Read parses a document from r.
func Read(r io.Reader, source string, opts parser.Options) (*Document, error) {
	return Build(tokenizer.NewTokenizer(r).Rows(), source, opts)
}

// ParseString parses an in-memory document.
func ParseString(input string, opts parser.Options) (*Document, error) {
	return Read(strings.NewReader(input), "", opts)
}

func (d *Document) Tree() *tree.Tree {
	return d.tree
}

func (d *Document) HeaderStage() int {
	return d.headerStage
}

// MeasureStarts returns the stage of every measure start. The slice must not
// be modified.
func (d *Document) MeasureStarts() []int {
	return d.measureStarts
}

// Walk visits every node depth-first. Returning false skips the children of
// the visited node.
func (d *Document) Walk(visit func(n *tree.Node) bool) {
	d.tree.Walk(visit)
}

// Tokens collects the token of every node that passes filter. A nil filter
// accepts everything.
func (d *Document) Tokens(filter *category.Selector) []token.Token {
	var tokens []token.Token
	d.Walk(func(n *tree.Node) bool {
		if n.Token != nil && filter.Match(n.Token.Category()) {
			tokens = append(tokens, n.Token)
		}
		return true
	})
	return tokens
}

// UniqueTokens is Tokens keeping only the first token of every canonical
// encoding.
func (d *Document) UniqueTokens(filter *category.Selector) []token.Token {
	seen := make(map[string]bool)
	var tokens []token.Token
	for _, t := range d.Tokens(filter) {
		key := t.Export()
		if seen[key] {
			continue
		}
		seen[key] = true
		tokens = append(tokens, t)
	}
	return tokens
}

// Metacomments returns global comments in line order. A non-empty key keeps
// only reference records with that key prefix, e.g. "COM" for "!!!COM:".
// strip returns only the value of such records.
func (d *Document) Metacomments(key string, strip bool) []string {
	type entry struct {
		stage int
		token *token.MetacommentToken
	}

	seen := make(map[*token.MetacommentToken]bool)
	var entries []entry
	d.Walk(func(n *tree.Node) bool {
		t, ok := n.Token.(*token.MetacommentToken)
		if !ok || seen[t] {
			return true
		}
		seen[t] = true
		if key == "" || strings.HasPrefix(t.Key(), key) {
			entries = append(entries, entry{stage: n.Stage, token: t})
		}
		return true
	})
	slices.SortStableFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.stage, b.stage)
	})

	results := make([]string, 0, len(entries))
	for _, e := range entries {
		if strip && e.token.Key() != "" {
			results = append(results, e.token.Value())
		} else {
			results = append(results, e.token.Encoding())
		}
	}
	return results
}

// Voices lists the voices declared by the header row and by later added
// spines, in declaration order.
func (d *Document) Voices() []Voice {
	var voices []Voice
	for stage := d.headerStage; stage >= 0 && stage < d.tree.StageCount(); stage++ {
		for _, id := range d.tree.Stage(stage) {
			if h, ok := d.tree.Node(id).Token.(*token.HeaderToken); ok {
				voices = append(voices, Voice{ID: len(voices), Type: h.VoiceType(), Node: id, Stage: stage})
			}
		}
	}
	return voices
}

// VoiceCount is the number of voices in the header row.
func (d *Document) VoiceCount() int {
	return len(d.tree.Stage(d.headerStage))
}

// MeasuresCount is the number of complete measures. Index 0 of the measure
// starts marks the material before the first measure.
func (d *Document) MeasuresCount() int {
	return max(len(d.measureStarts)-1, 0)
}

// FirstMeasure is 1, or 0 for a document without measures.
func (d *Document) FirstMeasure() int {
	return min(1, d.MeasuresCount())
}

func (d *Document) LastMeasure() int {
	return d.MeasuresCount()
}

// MeasureStages resolves a 1-based measure to its inclusive stage span.
// Measure 1 also carries everything before its first barline.
func (d *Document) MeasureStages(measure int) (from, to int, err error) {
	count := d.MeasuresCount()
	if measure < 1 || measure > count {
		return 0, 0, fmt.Errorf("%w: %d not in [1, %d]", ErrMeasureOutOfRange, measure, count)
	}
	if measure > 1 {
		from = d.measureStarts[measure-1]
	}
	if measure < count {
		to = d.measureStarts[measure]
	} else {
		to = d.tree.LastStage()
	}
	return from, to, nil
}

// MeasureOf returns the 1-based measure a stage belongs to. A barline stage
// closes the measure before it; stages after the last start belong to the
// last measure. It is 0 for a document without measures.
func (d *Document) MeasureOf(stage int) int {
	count := d.MeasuresCount()
	if count == 0 {
		return 0
	}
	below, _ := slices.BinarySearch(d.measureStarts, stage)
	return min(max(below, 1), count)
}

func (d *Document) HasErrors() bool {
	return len(d.errors) > 0
}

// Errors returns the cells rejected by importers, in input order.
func (d *Document) Errors() []parser.CellError {
	return d.errors
}

// PageBoundingBoxes returns the page records sorted by page label.
func (d *Document) PageBoundingBoxes() []*parser.PageBox {
	pages := make([]*parser.PageBox, 0, len(d.pages))
	for _, page := range slices.Sorted(maps.Keys(d.pages)) {
		pages = append(pages, d.pages[page])
	}
	return pages
}

// PageBoundingBox returns the record of one page.
func (d *Document) PageBoundingBox(page string) (*parser.PageBox, bool) {
	p, ok := d.pages[page]
	return p, ok
}
