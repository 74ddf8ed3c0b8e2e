// Package tree holds the multi-stage tree a spine document is parsed into.
// Nodes live in an arena and refer to each other by NodeID, so parent and
// header back-references never form pointer cycles.
package tree

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/shibukawa/spinetree/token"
)

// Sentinel errors
var (
	ErrStageOrder  = errors.New("node must be created one stage below its parent")
	ErrUnknownNode = errors.New("unknown node")
)

// NodeID addresses a node inside its tree.
type NodeID int32

// NoNode is the zero reference.
const NoNode NodeID = -1

// Node is one cell of one spine path.
type Node struct {
	ID    NodeID
	Stage int
	Token token.Token

	Children []NodeID
	Parent   NodeID

	// LastSpineOperator is the nearest ancestor holding a split, join,
	// terminate or add operator.
	LastSpineOperator NodeID
	// Header is the node holding the header token of this voice.
	Header NodeID
	// Signatures maps each signature kind to the latest node of that kind on
	// the path from the root, this node included. It is copied by value.
	Signatures [token.SignatureKindCount]NodeID
}

// IsRoot reports whether n is the stage-0 sentinel.
func (n *Node) IsRoot() bool {
	return n.Parent == NoNode
}

type stage struct {
	nodes       []NodeID
	columns     []NodeID
	layout      []NodeID
	line        int
	metacomment bool
}

// Tree is the arena. It is mutated only by the builder and is read-only
// afterwards.
type Tree struct {
	nodes  []Node
	stages []stage
	final  []NodeID
}

// New creates a tree holding only the root.
func New() *Tree {
	t := &Tree{}
	root := Node{
		ID:                0,
		Stage:             0,
		Parent:            NoNode,
		LastSpineOperator: NoNode,
		Header:            NoNode,
	}
	for i := range root.Signatures {
		root.Signatures[i] = NoNode
	}
	t.nodes = append(t.nodes, root)
	t.stages = append(t.stages, stage{nodes: []NodeID{0}, columns: []NodeID{0}})
	t.final = []NodeID{0}
	return t
}

// Root returns the stage-0 sentinel. It carries no token.
func (t *Tree) Root() *Node {
	return &t.nodes[0]
}

// Node returns the node with the given id, or nil.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// Len returns the number of nodes, root included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// StageCount returns the number of stages, root stage included.
func (t *Tree) StageCount() int {
	return len(t.stages)
}

// LastStage returns the index of the last stage.
func (t *Tree) LastStage() int {
	return len(t.stages) - 1
}

// Stage returns the nodes created for stage i in column order.
func (t *Tree) Stage(i int) []NodeID {
	if i < 0 || i >= len(t.stages) {
		return nil
	}
	return t.stages[i].nodes
}

// Columns returns the node of every input column of stage i. Joined columns
// share one node.
func (t *Tree) Columns(i int) []NodeID {
	if i < 0 || i >= len(t.stages) {
		return nil
	}
	return t.stages[i].columns
}

// Layout returns the spine paths open before stage i was read; a split node
// is listed once per path it opened. Layout(StageCount()) is the layout after
// the last row.
func (t *Tree) Layout(i int) []NodeID {
	switch {
	case i == len(t.stages):
		return t.final
	case i < 0 || i > len(t.stages):
		return nil
	default:
		return t.stages[i].layout
	}
}

// Line returns the 1-based source line of stage i, 0 for the root.
func (t *Tree) Line(i int) int {
	if i < 0 || i >= len(t.stages) {
		return 0
	}
	return t.stages[i].line
}

// IsMetacommentStage reports whether stage i is a global comment line.
func (t *Tree) IsMetacommentStage(i int) bool {
	if i < 0 || i >= len(t.stages) {
		return false
	}
	return t.stages[i].metacomment
}

// BeginStage opens a new stage for an input line.
func (t *Tree) BeginStage(line int, layout []NodeID, metacomment bool) int {
	t.stages = append(t.stages, stage{
		line:        line,
		layout:      slices.Clone(layout),
		metacomment: metacomment,
	})
	return len(t.stages) - 1
}

// SetColumns records the node of every input column of a stage.
func (t *Tree) SetColumns(i int, columns []NodeID) {
	t.stages[i].columns = slices.Clone(columns)
}

// SetFinalLayout records the paths left open after the last row.
func (t *Tree) SetFinalLayout(layout []NodeID) {
	t.final = slices.Clone(layout)
}

// AddChild creates a node for tok under parent in the last stage. The child
// inherits the header, operator and signature references of its parent.
func (t *Tree) AddChild(parent NodeID, tok token.Token) (NodeID, error) {
	p := t.Node(parent)
	if p == nil {
		return NoNode, fmt.Errorf("%w: %d", ErrUnknownNode, parent)
	}
	current := len(t.stages) - 1
	if p.Stage+1 != current {
		return NoNode, fmt.Errorf("%w: parent at stage %d, current stage %d", ErrStageOrder, p.Stage, current)
	}

	id := NodeID(len(t.nodes))
	child := Node{
		ID:                id,
		Stage:             current,
		Token:             tok,
		Parent:            parent,
		LastSpineOperator: p.LastSpineOperator,
		Header:            p.Header,
		Signatures:        p.Signatures,
	}
	if _, ok := p.Token.(*token.SpineOperationToken); ok {
		child.LastSpineOperator = parent
	}
	if sig, ok := tok.(token.Signature); ok {
		child.Signatures[sig.Kind()] = id
	}
	if _, ok := tok.(*token.HeaderToken); ok {
		child.Header = id
	}

	t.nodes = append(t.nodes, child)
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	t.stages[current].nodes = append(t.stages[current].nodes, id)
	return id, nil
}

// Ancestors iterates from the parent of id up to the root.
func (t *Tree) Ancestors(id NodeID) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n := t.Node(id)
		if n == nil {
			return
		}
		for p := t.Node(n.Parent); p != nil; p = t.Node(p.Parent) {
			if !yield(p) {
				return
			}
		}
	}
}

// Walk visits nodes depth-first in column order, starting at the root.
// Returning false from visit skips the children of that node.
func (t *Tree) Walk(visit func(n *Node) bool) {
	stack := []NodeID{0}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[id]
		if !visit(n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// All iterates nodes depth-first, root first.
func (t *Tree) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		stop := false
		t.Walk(func(n *Node) bool {
			if stop {
				return false
			}
			if !yield(n) {
				stop = true
				return false
			}
			return true
		})
	}
}
