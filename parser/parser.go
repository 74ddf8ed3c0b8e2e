// Package parser builds the multi-stage tree of a spine document. Rows are
// consumed strictly in order: the parent of every column is the node that
// occupied the same column in the previous row.
package parser

import (
	"fmt"
	"strings"

	"github.com/shibukawa/spinetree/token"
	"github.com/shibukawa/spinetree/tokenizer"
	"github.com/shibukawa/spinetree/tree"
)

// PageBox accumulates the bounding boxes declared for one page.
type PageBox struct {
	Page        string    `json:"page" yaml:"page"`
	Box         token.Box `json:"box" yaml:"box"`
	FromMeasure int       `json:"from_measure" yaml:"from_measure"`
	ToMeasure   int       `json:"to_measure" yaml:"to_measure"`
}

// Result is a built tree with its derived indices.
type Result struct {
	Tree *tree.Tree
	// MeasureStarts lists the stage of every measure-starting row in
	// increasing order.
	MeasureStarts []int
	// HeaderStage is the stage of the voice header row.
	HeaderStage       int
	PageBoundingBoxes map[string]*PageBox
	// Errors lists recoverable cell errors in input order.
	Errors []CellError
}

// slot is one open spine path waiting for the next row.
type slot struct {
	node tree.NodeID
	// pendingHeader marks a path opened by *+ that must start with a header
	pendingHeader bool
}

type builder struct {
	opts    Options
	tree    *tree.Tree
	result  *Result
	slots   []slot
	trailer tree.NodeID
	warned  map[string]bool
}

// Parse builds a tree from rows.
func Parse(rows tokenizer.RowIterator, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	t := tree.New()
	b := &builder{
		opts: opts,
		tree: t,
		result: &Result{
			Tree:              t,
			HeaderStage:       -1,
			PageBoundingBoxes: make(map[string]*PageBox),
		},
		slots:   []slot{{node: 0}},
		trailer: tree.NoNode,
		warned:  make(map[string]bool),
	}

	count := 0
	for row, err := range rows {
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		if err := b.row(row); err != nil {
			return nil, err
		}
		count++
	}

	if b.result.HeaderStage < 0 {
		return nil, &StructuralError{Line: count, Err: fmt.Errorf("%w: no header row", ErrMissingHeader)}
	}
	for _, s := range b.slots {
		if s.pendingHeader {
			return nil, &StructuralError{Line: count, Err: fmt.Errorf("%w: added spine never declared", ErrMissingHeader)}
		}
	}

	t.SetFinalLayout(b.layout())
	if opts.Normalize != nil {
		normalize(t, opts.Normalize)
	}

	opts.Logger.Debug("spine tree built",
		"rows", count,
		"stages", t.StageCount(),
		"nodes", t.Len(),
		"measures", max(len(b.result.MeasureStarts)-1, 0))
	if len(b.result.Errors) > 0 {
		opts.Logger.Warn("cells rejected by importers", "count", len(b.result.Errors))
	}

	return b.result, nil
}

// ParseString builds a tree from an in-memory document.
func ParseString(input string, opts Options) (*Result, error) {
	return Parse(tokenizer.NewTokenizer(strings.NewReader(input)).Rows(), opts)
}

func (b *builder) layout() []tree.NodeID {
	ids := make([]tree.NodeID, len(b.slots))
	for i, s := range b.slots {
		ids[i] = s.node
	}
	return ids
}

func (b *builder) row(row tokenizer.Row) error {
	switch row.Kind {
	case tokenizer.METACOMMENT:
		return b.metacomment(row)
	case tokenizer.HEADER:
		if b.result.HeaderStage >= 0 {
			return &StructuralError{
				Line: row.Line,
				Err:  fmt.Errorf("%w: first at line %d", ErrHeaderRedeclared, b.tree.Line(b.result.HeaderStage)),
			}
		}
		return b.header(row)
	default:
		if b.result.HeaderStage < 0 {
			return &StructuralError{Line: row.Line, Column: 1, Err: ErrNoVoiceAncestor}
		}
		return b.regular(row)
	}
}

func (b *builder) add(row tokenizer.Row, column int, parent tree.NodeID, tok token.Token) (tree.NodeID, error) {
	id, err := b.tree.AddChild(parent, tok)
	if err != nil {
		return tree.NoNode, &StructuralError{Line: row.Line, Column: column, Err: err}
	}
	return id, nil
}

// metacomment attaches one shared token under every open path. Before the
// header the single open path chains from the root; after full termination
// the comments chain from the last row.
func (b *builder) metacomment(row tokenizer.Row) error {
	tok := token.NewMetacomment(row.Raw)
	stage := b.tree.BeginStage(row.Line, b.layout(), true)

	if len(b.slots) == 0 {
		parent := b.trailer
		if parent == tree.NoNode {
			parent = b.tree.Stage(stage - 1)[0]
		}
		id, err := b.add(row, 1, parent, tok)
		if err != nil {
			return err
		}
		b.trailer = id
		b.tree.SetColumns(stage, []tree.NodeID{id})
		return nil
	}

	columns := make([]tree.NodeID, len(b.slots))
	for i, s := range b.slots {
		id, err := b.add(row, i+1, s.node, tok)
		if err != nil {
			return err
		}
		columns[i] = id
		b.slots[i].node = id
	}
	b.tree.SetColumns(stage, columns)
	return nil
}

// header declares the voices. All headers hang from the node preceding the
// header row.
func (b *builder) header(row tokenizer.Row) error {
	stage := b.tree.BeginStage(row.Line, b.layout(), false)
	parent := b.slots[0].node

	columns := make([]tree.NodeID, len(row.Cells))
	next := make([]slot, len(row.Cells))
	for i, cell := range row.Cells {
		id, err := b.add(row, i+1, parent, token.NewHeader(cell))
		if err != nil {
			return err
		}
		b.checkVoiceType(cell)
		columns[i] = id
		next[i] = slot{node: id}
	}

	b.tree.SetColumns(stage, columns)
	b.slots = next
	b.result.HeaderStage = stage
	return nil
}

func (b *builder) checkVoiceType(voiceType string) {
	if _, ok := b.opts.Registry.Lookup(voiceType); !ok && !b.warned[voiceType] {
		b.warned[voiceType] = true
		b.opts.Logger.Warn("unknown voice type, importing cells as OTHER", "voice_type", voiceType)
	}
}

func (b *builder) regular(row tokenizer.Row) error {
	if len(row.Cells) != len(b.slots) {
		return &StructuralError{
			Line: row.Line,
			Err:  fmt.Errorf("%w: %d columns, %d open paths", ErrColumnMismatch, len(row.Cells), len(b.slots)),
		}
	}

	stage := b.tree.BeginStage(row.Line, b.layout(), false)
	columns := make([]tree.NodeID, len(row.Cells))
	next := make([]slot, 0, len(b.slots)+1)
	hasBarline, hasCore := false, false

	for i := 0; i < len(row.Cells); {
		cell := row.Cells[i]
		s := b.slots[i]

		if s.pendingHeader {
			if !tokenizer.IsHeaderCell(cell) {
				return &StructuralError{Line: row.Line, Column: i + 1, Err: fmt.Errorf("%w: added spine starts with '%s'", ErrMissingHeader, cell)}
			}
			id, err := b.add(row, i+1, s.node, token.NewHeader(cell))
			if err != nil {
				return err
			}
			b.checkVoiceType(cell)
			columns[i] = id
			next = append(next, slot{node: id})
			i++
			continue
		}

		header := b.tree.Node(s.node).Header
		if header == tree.NoNode {
			return &StructuralError{Line: row.Line, Column: i + 1, Err: ErrNoVoiceAncestor}
		}

		if op, ok := token.ParseSpineOperation(cell); ok {
			consumed, err := b.operator(row, stage, i, op, header, columns, &next)
			if err != nil {
				return err
			}
			i += consumed
			continue
		}

		tok := b.importCell(row, stage, i, cell, header)
		id, err := b.add(row, i+1, s.node, tok)
		if err != nil {
			return err
		}
		b.inspectToken(id, tok, &hasBarline, &hasCore)
		columns[i] = id
		next = append(next, slot{node: id})
		i++
	}

	b.tree.SetColumns(stage, columns)
	b.slots = next

	starts := b.result.MeasureStarts
	if hasBarline || (hasCore && len(starts) == 0) {
		b.result.MeasureStarts = append(starts, stage)
	}
	return nil
}

// operator handles a structural cell at column i and returns how many
// columns it consumed.
func (b *builder) operator(row tokenizer.Row, stage, i int, op token.SpineOperation, header tree.NodeID, columns []tree.NodeID, next *[]slot) (int, error) {
	s := b.slots[i]
	opToken := token.NewSpineOperation(op)
	id, err := b.add(row, i+1, s.node, opToken)
	if err != nil {
		return 0, err
	}
	columns[i] = id

	switch op {
	case token.OpSplit:
		*next = append(*next, slot{node: id}, slot{node: id})
		return 1, nil

	case token.OpAdd:
		*next = append(*next, slot{node: id}, slot{node: id, pendingHeader: true})
		return 1, nil

	case token.OpTerminate:
		if opNode := b.nearestOperator(s.node); opNode != nil {
			opNode.Token.(*token.SpineOperationToken).Cancel(stage)
		}
		return 1, nil

	default:
		// a run of joins folds only columns of the same voice
		j := i + 1
		for j < len(row.Cells) && row.Cells[j] == token.JoinSymbol &&
			!b.slots[j].pendingHeader && b.tree.Node(b.slots[j].node).Header == header {
			j++
		}

		left := b.nearestOperator(s.node)
		for k := i + 1; k < j; k++ {
			columns[k] = id
			right := b.nearestOperator(b.slots[k].node)
			if left != nil && right != nil && left.ID == right.ID {
				if t, ok := left.Token.(*token.SpineOperationToken); ok && t.Op == token.OpSplit {
					t.Cancel(stage)
				}
			}
		}
		*next = append(*next, slot{node: id})
		return j - i, nil
	}
}

// nearestOperator returns the node itself when it holds an operator,
// otherwise its nearest operator ancestor.
func (b *builder) nearestOperator(id tree.NodeID) *tree.Node {
	n := b.tree.Node(id)
	if _, ok := n.Token.(*token.SpineOperationToken); ok {
		return n
	}
	return b.tree.Node(n.LastSpineOperator)
}

func (b *builder) importCell(row tokenizer.Row, stage, i int, cell string, header tree.NodeID) token.Token {
	if tokenizer.IsFieldComment(cell) {
		return token.NewFieldComment(cell)
	}

	voiceType := b.tree.Node(header).Token.Encoding()
	imp, _ := b.opts.Registry.Lookup(voiceType)
	tok, err := imp.Import(cell)
	if err == nil && tok == nil {
		err = ErrEmptyImport
	}
	if err != nil {
		b.result.Errors = append(b.result.Errors, CellError{
			Line:   row.Line,
			Column: i + 1,
			Stage:  stage,
			Raw:    cell,
			Err:    err,
		})
		return token.NewError(cell, err)
	}
	return tok
}

func (b *builder) inspectToken(id tree.NodeID, tok token.Token, hasBarline, hasCore *bool) {
	switch t := tok.(type) {
	case *token.BarlineToken:
		parent := b.tree.Node(b.tree.Node(id).Parent)
		if prev, ok := parent.Token.(*token.BarlineToken); ok && prev.Encoding() == t.Encoding() {
			token.Hide(t)
			return
		}
		*hasBarline = true

	case *token.NoteRestToken, *token.ChordToken:
		*hasCore = true

	case *token.BoundingBoxToken:
		measure := max(len(b.result.MeasureStarts), 1)
		if pb, ok := b.result.PageBoundingBoxes[t.Page]; ok {
			pb.Box = pb.Box.Union(t.Box)
			pb.ToMeasure = max(pb.ToMeasure, measure)
			return
		}
		b.result.PageBoundingBoxes[t.Page] = &PageBox{
			Page:        t.Page,
			Box:         t.Box,
			FromMeasure: measure,
			ToMeasure:   measure,
		}
	}
}

func normalize(t *tree.Tree, fn func(string) string) {
	seen := make(map[token.Token]bool)
	for n := range t.All() {
		if n.Token == nil || seen[n.Token] {
			continue
		}
		seen[n.Token] = true
		token.Normalize(n.Token, fn)
	}
}
