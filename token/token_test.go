package token

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func note(subtokens ...Subtoken) *NoteRestToken {
	return NewNoteRest("", subtokens, decimal.NewFromInt(1))
}

func TestNoteRestExportIsDecorationOrderIndependent(t *testing.T) {
	a := note(
		Subtoken{Duration, "4"}, Subtoken{Pitch, "c"}, Subtoken{Alteration, "#"},
		Subtoken{Decoration, "L"}, Subtoken{Decoration, "["}, Subtoken{Decoration, "L"},
	)
	b := note(
		Subtoken{Decoration, "["}, Subtoken{Duration, "4"}, Subtoken{Pitch, "c"},
		Subtoken{Decoration, "L"}, Subtoken{Alteration, "#"},
	)

	assert.Equal(t, "4@c@#·L·[", a.Export())
	assert.Equal(t, a.Export(), b.Export())
}

func TestNoteRestExportSelected(t *testing.T) {
	n := note(Subtoken{Duration, "8."}, Subtoken{Pitch, "dd"}, Subtoken{Decoration, "J"})

	got := n.ExportSelected(func(c Category) bool { return c != Decoration })
	assert.Equal(t, "8.@dd", got)

	got = n.ExportSelected(func(c Category) bool { return false })
	assert.Equal(t, "", got)
}

func TestNoteRestQueries(t *testing.T) {
	rest := note(Subtoken{Duration, "2"}, Subtoken{Rest, "r"})
	assert.True(t, rest.IsRest())
	assert.Equal(t, "", rest.PitchName())

	n := note(Subtoken{Duration, "2"}, Subtoken{Pitch, "GG"})
	assert.False(t, n.IsRest())
	assert.Equal(t, "GG", n.PitchName())
}

func TestChordExport(t *testing.T) {
	c := NewChord("4c 4e", []*NoteRestToken{
		note(Subtoken{Duration, "4"}, Subtoken{Pitch, "c"}),
		note(Subtoken{Duration, "4"}, Subtoken{Pitch, "e"}, Subtoken{Decoration, ";"}),
	})
	assert.Equal(t, "4@c 4@e·;", c.Export())
	assert.Equal(t, Chord, c.Category())
}

func TestVariantTransform(t *testing.T) {
	tests := []struct {
		variant  Variant
		input    string
		expected string
	}{
		{VariantEKern, "4@c@#·L·[", "4@c@#·L·["},
		{VariantKern, "4@c@#·L·[", "4c#L["},
		{VariantBEKern, "4@c@#·L·[", "4@c@#"},
		{VariantBKern, "4@c@#·L·[", "4c#"},
		{VariantBKern, "4@c·L 4@e@-", "4c 4e-"},
	}

	for _, tt := range tests {
		t.Run(string(tt.variant), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.variant.Transform(tt.input))
		})
	}
}

func TestVariantRenderHeader(t *testing.T) {
	h := NewHeader("**kern")
	assert.Equal(t, "**ekern", VariantEKern.Render(h, nil))
	assert.Equal(t, "**bkern", VariantBKern.Render(h, nil))
	assert.Equal(t, "**kern", VariantRaw.Render(h, nil))
	assert.Equal(t, "**dynam", VariantEKern.Render(NewHeader("**dynam"), nil))
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant(" BEKERN ")
	assert.NoError(t, err)
	assert.Equal(t, VariantBEKern, v)

	_, err = ParseVariant("agnostic")
	assert.True(t, errors.Is(err, ErrNotImplemented))

	_, err = ParseVariant("musicxml")
	assert.True(t, errors.Is(err, ErrUnknownVariant))
}

func TestSpineOperationCancel(t *testing.T) {
	op := NewSpineOperation(OpSplit)
	assert.Equal(t, "*^", op.Encoding())
	assert.False(t, op.CancelledBefore(10))

	op.Cancel(5)
	op.Cancel(7)
	assert.Equal(t, 5, op.CancelledAt)
	assert.True(t, op.CancelledBefore(6))
	assert.False(t, op.CancelledBefore(5))
}

func TestMetacommentKey(t *testing.T) {
	m := NewMetacomment("!!!COM: Bach, Johann Sebastian")
	assert.Equal(t, "COM", m.Key())
	assert.Equal(t, "Bach, Johann Sebastian", m.Value())

	plain := NewMetacomment("!! free text")
	assert.Equal(t, "", plain.Key())
	assert.Equal(t, "free text", plain.Value())
}

func TestHideAndNormalize(t *testing.T) {
	b := NewBarline("=3", 3, false)
	assert.False(t, b.Hidden())
	Hide(b)
	assert.True(t, b.Hidden())

	Normalize(b, func(s string) string { return s + "-" })
	assert.Equal(t, "=3-", b.Encoding())
}

func TestBoxUnion(t *testing.T) {
	a := Box{X: 10, Y: 10, W: 10, H: 10}
	b := Box{X: 15, Y: 0, W: 20, H: 5}
	assert.Equal(t, Box{X: 10, Y: 0, W: 25, H: 20}, a.Union(b))
}
