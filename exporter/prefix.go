package exporter

import (
	"github.com/shibukawa/spinetree/token"
	"github.com/shibukawa/spinetree/tokenizer"
	"github.com/shibukawa/spinetree/tree"
)

// group is a run of open paths that the reconstructed prefix still shows as
// one column.
type group struct {
	slots []tree.NodeID
}

// prefix re-emits the state in effect before the range: the voice headers,
// the splits that are still open, then the latest signature of every kind.
// Splits that were folded back before the range leave no open path behind,
// so they are never re-emitted.
func (w *writer) prefix() {
	var layout []tree.NodeID
	for _, id := range w.tree.Layout(w.plan.start) {
		if w.selected(w.tree.Node(id)) {
			layout = append(layout, id)
		}
	}
	groups := w.voiceGroups(layout)

	header := make([]string, len(groups))
	for i, g := range groups {
		n := w.tree.Node(g.slots[0])
		header[i], _ = w.cell(w.tree.Node(n.Header).Token)
	}
	w.row(header, 0)

	for {
		next := -1
		for _, g := range groups {
			if b := w.branch(g); b != tree.NoNode {
				if stage := w.tree.Node(b).Stage; next < 0 || stage < next {
					next = stage
				}
			}
		}
		if next < 0 {
			break
		}

		cells := make([]string, 0, len(groups))
		expanded := make([]group, 0, len(groups)+1)
		for _, g := range groups {
			b := w.branch(g)
			if b == tree.NoNode || w.tree.Node(b).Stage != next {
				cells = append(cells, tokenizer.InterpretationMark)
				expanded = append(expanded, g)
				continue
			}
			cells = append(cells, w.tree.Node(b).Token.(*token.SpineOperationToken).Op.String())
			expanded = append(expanded, w.divide(g, b)...)
		}
		w.row(cells, 0)
		groups = expanded
	}

	for _, kind := range token.SignatureKinds {
		cells := make([]string, len(groups))
		placeholders := 0
		for i, g := range groups {
			sig := w.tree.Node(w.tree.Node(g.slots[0]).Signatures[kind])
			if sig == nil || sig.Stage >= w.plan.start || sig.Token.Hidden() || !w.plan.selector.Match(sig.Token.Category()) {
				cells[i] = tokenizer.InterpretationMark
				placeholders++
				continue
			}
			cells[i] = w.plan.variant.Render(sig.Token, nil)
		}
		w.row(cells, placeholders)
	}
}

// voiceGroups splits the layout into runs of the same voice.
func (w *writer) voiceGroups(layout []tree.NodeID) []group {
	var groups []group
	last := tree.NoNode
	for _, id := range layout {
		header := w.tree.Node(id).Header
		if len(groups) == 0 || header != last {
			groups = append(groups, group{})
		}
		groups[len(groups)-1].slots = append(groups[len(groups)-1].slots, id)
		last = header
	}
	return groups
}

// branch returns the operator where the paths of g diverge, or NoNode when g
// is a single path.
func (w *writer) branch(g group) tree.NodeID {
	if len(g.slots) < 2 {
		return tree.NoNode
	}

	path := map[tree.NodeID]bool{g.slots[0]: true}
	for a := range w.tree.Ancestors(g.slots[0]) {
		path[a.ID] = true
	}

	common := g.slots[0]
	for _, id := range g.slots[1:] {
		meet := id
		for n := w.tree.Node(id); n != nil && !path[n.ID]; n = w.tree.Node(n.Parent) {
			meet = n.Parent
		}
		if w.tree.Node(meet).Stage < w.tree.Node(common).Stage {
			common = meet
		}
	}

	if op, ok := w.tree.Node(common).Token.(*token.SpineOperationToken); ok && (op.Op == token.OpSplit || op.Op == token.OpAdd) {
		return common
	}
	return tree.NoNode
}

// divide splits g into the runs that descend from different children of b.
// A slot sitting on b itself forms a run of its own.
func (w *writer) divide(g group, b tree.NodeID) []group {
	var groups []group
	last := tree.NoNode
	for _, id := range g.slots {
		child := id
		for n := w.tree.Node(id); n != nil && n.Parent != b && n.ID != b; n = w.tree.Node(n.Parent) {
			child = n.Parent
		}
		if len(groups) == 0 || child == b || child != last {
			groups = append(groups, group{})
		}
		groups[len(groups)-1].slots = append(groups[len(groups)-1].slots, id)
		last = child
	}
	return groups
}
