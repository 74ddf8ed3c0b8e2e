package inspect

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shibukawa/spinetree/document"
	"github.com/shibukawa/spinetree/token"
	"github.com/shibukawa/spinetree/tree"
)

// ErrRejectedCells is returned in strict mode for documents with cell errors.
var ErrRejectedCells = errors.New("document has rejected cells")

// Inspect summarizes a document.
func Inspect(doc *document.Document, opt Options) (Report, error) {
	t := doc.Tree()
	res := Report{
		ID:         doc.ID.String(),
		Source:     doc.Source,
		HeaderLine: t.Line(doc.HeaderStage()),
		Measures:   doc.MeasuresCount(),
		Pages:      doc.PageBoundingBoxes(),
	}

	if doc.HasErrors() {
		if opt.Strict {
			return res, fmt.Errorf("%w: %d cells", ErrRejectedCells, len(doc.Errors()))
		}

		for _, e := range doc.Errors() {
			res.Errors = append(res.Errors, CellIssue{Line: e.Line, Column: e.Column, Raw: e.Raw, Message: e.Err.Error()})
		}

		res.Notes = append(res.Notes, "content-dependent counts may be incomplete due to rejected cells")
	}

	voices := doc.Voices()
	index := make(map[tree.NodeID]int, len(voices))

	for _, v := range voices {
		index[v.Node] = len(res.Voices)
		res.Voices = append(res.Voices, VoiceSummary{
			ID:       v.ID,
			Type:     v.Type,
			Line:     t.Line(v.Stage),
			Tokens:   make(map[string]int),
			Duration: leftmostDuration(t, v.Node).String(),
		})
	}

	doc.Walk(func(n *tree.Node) bool {
		i, ok := index[n.Header]
		if !ok || n.Token == nil {
			return true
		}

		summary := &res.Voices[i]
		summary.Tokens[string(n.Token.Category())]++

		switch tok := n.Token.(type) {
		case *token.NoteRestToken:
			if tok.IsRest() {
				summary.Rests++
			} else {
				summary.Notes++
			}
		case *token.ChordToken:
			summary.Notes += len(tok.Notes)
		}

		return true
	})

	seen := make(map[token.Token]bool)
	for stage := 1; stage < t.StageCount(); stage++ {
		if !t.IsMetacommentStage(stage) {
			continue
		}

		tok := t.Node(t.Columns(stage)[0]).Token.(*token.MetacommentToken)
		if seen[tok] {
			continue
		}

		seen[tok] = true
		res.Metacomments = append(res.Metacomments, Reference{Key: tok.Key(), Value: tok.Value(), Line: t.Line(stage)})
	}

	return res, nil
}

// leftmostDuration sums the durations met on the leftmost column of a voice.
func leftmostDuration(t *tree.Tree, header tree.NodeID) decimal.Decimal {
	total := decimal.Zero

	for stage := t.Node(header).Stage + 1; stage < t.StageCount(); stage++ {
		for _, id := range t.Columns(stage) {
			n := t.Node(id)
			if n.Header != header {
				continue
			}

			switch tok := n.Token.(type) {
			case *token.NoteRestToken:
				total = total.Add(tok.Quarters)
			case *token.ChordToken:
				longest := decimal.Zero
				for _, note := range tok.Notes {
					longest = decimal.Max(longest, note.Quarters)
				}

				total = total.Add(longest)
			}

			break
		}
	}

	return total
}
