package tree

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/spinetree/token"
)

func TestAddChildInheritsReferences(t *testing.T) {
	tr := New()

	tr.BeginStage(1, []NodeID{0}, false)
	header, err := tr.AddChild(0, token.NewHeader("**kern"))
	assert.NoError(t, err)

	tr.BeginStage(2, []NodeID{header}, false)
	clef, err := tr.AddChild(header, token.NewClef("*clefG2", "G", 2))
	assert.NoError(t, err)

	tr.BeginStage(3, []NodeID{clef}, false)
	split, err := tr.AddChild(clef, token.NewSpineOperation(token.OpSplit))
	assert.NoError(t, err)

	tr.BeginStage(4, []NodeID{split, split}, false)
	left, err := tr.AddChild(split, token.NewClef("*clefF4", "F", 4))
	assert.NoError(t, err)
	right, err := tr.AddChild(split, token.NewEmpty("*"))
	assert.NoError(t, err)

	for _, id := range []NodeID{clef, split, left, right} {
		assert.Equal(t, header, tr.Node(id).Header)
	}
	assert.Equal(t, header, tr.Node(header).Header)

	assert.Equal(t, clef, tr.Node(split).Signatures[token.ClefKind])
	assert.Equal(t, left, tr.Node(left).Signatures[token.ClefKind])
	assert.Equal(t, clef, tr.Node(right).Signatures[token.ClefKind], "siblings do not share snapshots")
	assert.Equal(t, NoNode, tr.Node(right).Signatures[token.KeyKind])

	assert.Equal(t, NoNode, tr.Node(split).LastSpineOperator)
	assert.Equal(t, split, tr.Node(left).LastSpineOperator)

	assert.Equal(t, []NodeID{left, right}, tr.Node(split).Children)
	assert.Equal(t, []NodeID{left, right}, tr.Stage(4))
	assert.Equal(t, []NodeID{split, split}, tr.Layout(4))
	assert.Equal(t, 5, tr.StageCount())
	assert.Equal(t, 4, tr.Line(4))
}

func TestAddChildRejectsSkippedStage(t *testing.T) {
	tr := New()
	tr.BeginStage(1, []NodeID{0}, false)
	tr.BeginStage(2, []NodeID{0}, false)

	_, err := tr.AddChild(0, token.NewHeader("**kern"))
	assert.True(t, errors.Is(err, ErrStageOrder))

	_, err = tr.AddChild(42, token.NewHeader("**kern"))
	assert.True(t, errors.Is(err, ErrUnknownNode))
}

func TestWalkIsDepthFirstInColumnOrder(t *testing.T) {
	tr := New()
	tr.BeginStage(1, []NodeID{0}, false)
	a, _ := tr.AddChild(0, token.NewHeader("**kern"))
	b, _ := tr.AddChild(0, token.NewHeader("**dynam"))
	tr.BeginStage(2, []NodeID{a, b}, false)
	a1, _ := tr.AddChild(a, token.NewEmpty("."))
	b1, _ := tr.AddChild(b, token.NewEmpty("."))

	var order []NodeID
	for n := range tr.All() {
		order = append(order, n.ID)
	}
	assert.Equal(t, []NodeID{0, a, a1, b, b1}, order)

	var skipped []NodeID
	tr.Walk(func(n *Node) bool {
		skipped = append(skipped, n.ID)
		return n.ID != a
	})
	assert.Equal(t, []NodeID{0, a, b, b1}, skipped)

	var up []NodeID
	for n := range tr.Ancestors(b1) {
		up = append(up, n.ID)
	}
	assert.Equal(t, []NodeID{b, 0}, up)
}

func TestLayoutBounds(t *testing.T) {
	tr := New()
	assert.Equal(t, []NodeID{0}, tr.Layout(tr.StageCount()))
	assert.Equal(t, []NodeID(nil), tr.Layout(-1))
	assert.True(t, tr.Root().IsRoot())
	assert.Equal(t, (*Node)(nil), tr.Node(99))
}
