// Package exporter writes a measure range of a document back to the
// tab-separated spine format.
package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shibukawa/spinetree/category"
	"github.com/shibukawa/spinetree/document"
	"github.com/shibukawa/spinetree/token"
	"github.com/shibukawa/spinetree/tokenizer"
	"github.com/shibukawa/spinetree/tree"
)

// Exporter renders documents. It holds no per-export state and can be shared.
type Exporter struct {
	hierarchy *category.Hierarchy
	logger    *slog.Logger
}

// NewExporter creates an exporter. A nil hierarchy uses the default one.
func NewExporter(h *category.Hierarchy, logger *slog.Logger) *Exporter {
	if h == nil {
		h = category.Default()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exporter{hierarchy: h, logger: logger}
}

// Export renders doc with the default exporter.
func Export(doc *document.Document, opts Options) (string, error) {
	return NewExporter(nil, nil).Export(doc, opts)
}

// Export renders doc. Options are validated before any row is produced.
func (e *Exporter) Export(doc *document.Document, opts Options) (string, error) {
	p, err := opts.resolve(doc, e.hierarchy)
	if err != nil {
		return "", err
	}

	w := &writer{plan: p, doc: doc, tree: doc.Tree()}
	if p.start > 0 {
		w.prefix()
	}
	if err := w.body(); err != nil {
		return "", err
	}
	if p.bounded {
		w.terminate()
	}

	e.logger.Debug("document exported",
		"document", doc.ID,
		"from_stage", p.start,
		"to_stage", p.end,
		"variant", p.variant,
		"rows", w.rows)
	return w.out.String(), nil
}

// ExportTo renders doc into out. Nothing is written when validation fails.
func (e *Exporter) ExportTo(out io.Writer, doc *document.Document, opts Options) error {
	text, err := e.Export(doc, opts)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(out, text); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

type writer struct {
	plan *plan
	doc  *document.Document
	tree *tree.Tree
	out  strings.Builder
	rows int
}

// row writes cells unless every cell is a placeholder.
func (w *writer) row(cells []string, placeholders int) {
	if len(cells) == 0 || placeholders == len(cells) {
		return
	}
	w.out.WriteString(strings.Join(cells, tokenizer.CellSeparator))
	w.out.WriteByte('\n')
	w.rows++
}

func (w *writer) line(text string) {
	w.out.WriteString(text)
	w.out.WriteByte('\n')
	w.rows++
}

func (w *writer) selected(n *tree.Node) bool {
	return n.Header == tree.NoNode || w.plan.voices[n.Header]
}

func (w *writer) body() error {
	for stage := max(w.plan.start, 1); stage <= w.plan.end; stage++ {
		columns := w.tree.Columns(stage)

		if w.tree.IsMetacommentStage(stage) {
			tok := w.tree.Node(columns[0]).Token
			if w.plan.selector.Match(tok.Category()) {
				w.line(w.plan.variant.Render(tok, nil))
			}
			continue
		}

		cells := make([]string, 0, len(columns))
		placeholders := 0
		for _, id := range columns {
			n := w.tree.Node(id)
			if !w.selected(n) {
				continue
			}
			text, placeholder := w.cell(n.Token)
			if !placeholder && w.plan.where != nil && !isStructural(n.Token) {
				ok, err := w.plan.where.Match(w.doc, n)
				if err != nil {
					return err
				}
				if !ok {
					text, placeholder = placeholderOf(n.Token), true
				}
			}
			cells = append(cells, text)
			if placeholder {
				placeholders++
			}
		}
		w.row(cells, placeholders)
	}
	return nil
}

func isStructural(tok token.Token) bool {
	switch tok.(type) {
	case *token.SpineOperationToken, *token.HeaderToken:
		return true
	}
	return false
}

// cell renders one token and reports whether the result is only a
// placeholder.
func (w *writer) cell(tok token.Token) (string, bool) {
	switch t := tok.(type) {
	case *token.SpineOperationToken:
		return t.Op.String(), false
	case *token.HeaderToken:
		return w.plan.variant.Render(t, nil), false
	case *token.EmptyToken:
		return t.Encoding(), true
	}

	if tok.Hidden() {
		return placeholderOf(tok), true
	}

	if c, ok := tok.(token.Compound); ok {
		owner := tok.Category()
		keep := func(sub token.Category) bool {
			return w.plan.selector.Match(sub, owner)
		}
		if c.ExportSelected(keep) == "" {
			return placeholderOf(tok), true
		}
		return w.plan.variant.Render(tok, keep), false
	}

	if !w.plan.selector.Match(tok.Category()) {
		return placeholderOf(tok), true
	}
	return w.plan.variant.Render(tok, nil), false
}

func placeholderOf(tok token.Token) string {
	switch {
	case strings.HasPrefix(tok.Encoding(), tokenizer.InterpretationMark):
		return tokenizer.InterpretationMark
	case strings.HasPrefix(tok.Encoding(), tokenizer.FieldCommentPrefix):
		return tokenizer.FieldCommentPrefix
	default:
		return tokenizer.NullData
	}
}

// terminate closes the paths still open after the range.
func (w *writer) terminate() {
	var cells []string
	for _, id := range w.tree.Layout(w.plan.end + 1) {
		if w.selected(w.tree.Node(id)) {
			cells = append(cells, token.TerminateSymbol)
		}
	}
	w.row(cells, 0)
}
