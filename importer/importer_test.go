package importer

import (
	"errors"
	"slices"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/shibukawa/spinetree/token"
)

func TestKernImporterNotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		category token.Category
		export   string
		quarters string
	}{
		{"quarter note", "4c", token.NoteRest, "4@c", "1"},
		{"dotted eighth with sharp", "8.cc#", token.NoteRest, "8.@cc@#", "0.75"},
		{"decorations are sorted", "[4B-L", token.NoteRest, "4@B@-·L·[", "1"},
		{"rest", "2r", token.NoteRest, "2@r", "2"},
		{"breve", "0GG", token.NoteRest, "0@GG", "8"},
		{"rational duration", "3%2d", token.NoteRest, "3%2@d", "2.6666666666666667"},
		{"grace note without duration", "qg", token.NoteRest, "g·q", "0"},
		{"ekern input", "4@c@#·L", token.NoteRest, "4@c@#·L", "1"},
		{"chord", "4c 4e 4g", token.Chord, "4@c 4@e 4@g", ""},
	}

	imp := NewKernImporter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := imp.Import(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.category, got.Category())
			assert.Equal(t, tt.input, got.Encoding())
			assert.Equal(t, tt.export, got.Export())

			if n, ok := got.(*token.NoteRestToken); ok {
				assert.Equal(t, tt.quarters, n.Quarters.String())
			}
		})
	}
}

func TestKernImporterRejectsMalformedNotes(t *testing.T) {
	imp := NewKernImporter()

	for _, input := range []string{"4", "4cd", "4c4", "4c#-", "0%3c"} {
		t.Run(input, func(t *testing.T) {
			_, err := imp.Import(input)
			assert.Error(t, err)
		})
	}
}

func TestInterpretation(t *testing.T) {
	tests := []struct {
		input    string
		category token.Category
	}{
		{".", token.Empty},
		{"*", token.Empty},
		{"=", token.Barlines},
		{"=12", token.Barlines},
		{"==", token.Barlines},
		{"*clefG2", token.Clef},
		{"*clefGv2", token.Clef},
		{"*k[f#c#]", token.KeySignature},
		{"*k[]", token.KeySignature},
		{"*M3/4", token.TimeSignature},
		{"*MM120", token.Other},
		{"*met(c|)", token.MeterSignature},
		{"*I\"Piano", token.Instruments},
		{"*xywh-p1:10,20,300,40", token.BoundingBoxes},
		{"*>A", token.Other},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, handled, err := Interpretation(tt.input)
			assert.True(t, handled)
			assert.NoError(t, err)
			assert.Equal(t, tt.category, got.Category())
		})
	}

	_, handled, _ := Interpretation("4c")
	assert.False(t, handled)
}

func TestInterpretationDetails(t *testing.T) {
	tok, _, err := Interpretation("=12:|!")
	assert.NoError(t, err)
	assert.Equal(t, 12, tok.(*token.BarlineToken).Number)

	tok, _, err = Interpretation("*k[b-e-a-]")
	assert.NoError(t, err)
	assert.Equal(t, []string{"b-", "e-", "a-"}, tok.(*token.KeySignatureToken).Accidentals)

	tok, _, err = Interpretation("*M6/8")
	assert.NoError(t, err)
	ts := tok.(*token.TimeSignatureToken)
	assert.Equal(t, 6, ts.Numerator)
	assert.Equal(t, 8, ts.Denominator)

	tok, _, err = Interpretation("*clefF4")
	assert.NoError(t, err)
	assert.Equal(t, "F", tok.(*token.ClefToken).Shape)
	assert.Equal(t, 4, tok.(*token.ClefToken).Line)

	tok, _, err = Interpretation("*xywh-page2:1,2,3,4")
	assert.NoError(t, err)
	bb := tok.(*token.BoundingBoxToken)
	assert.Equal(t, "page2", bb.Page)
	assert.Equal(t, token.Box{X: 1, Y: 2, W: 3, H: 4}, bb.Box)
}

func TestInterpretationErrors(t *testing.T) {
	for _, input := range []string{"*clefZ9", "*k[q#]", "*met(c", "*xywh-p1:1,2"} {
		t.Run(input, func(t *testing.T) {
			_, handled, err := Interpretation(input)
			assert.True(t, handled)
			assert.True(t, errors.Is(err, ErrInvalidInterpretation))
		})
	}
}

func TestCategoryImporter(t *testing.T) {
	imp := NewCategoryImporter(token.Dynamics)

	got, err := imp.Import("ff")
	assert.NoError(t, err)
	assert.Equal(t, token.Dynamics, got.Category())

	got, err = imp.Import("*clefG2")
	assert.NoError(t, err)
	assert.Equal(t, token.Clef, got.Category())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	imp, ok := r.Lookup("**kern")
	assert.True(t, ok)
	_, isKern := imp.(*KernImporter)
	assert.True(t, isKern)

	imp, ok = r.Lookup("**unknown")
	assert.False(t, ok)
	got, err := imp.Import("xyz")
	assert.NoError(t, err)
	assert.Equal(t, token.Other, got.Category())

	r.Register("**custom", ImporterFunc(func(raw string) (token.Token, error) {
		return token.NewSimple(token.Fingering, raw), nil
	}))
	_, ok = r.Lookup("**custom")
	assert.True(t, ok)
	assert.True(t, slices.Contains(r.VoiceTypes(), "**custom"))
}

func TestQuarters(t *testing.T) {
	tests := []struct {
		recip    string
		expected decimal.Decimal
	}{
		{"", decimal.Zero},
		{"1", decimal.NewFromInt(4)},
		{"00", decimal.NewFromInt(16)},
		{"2..", decimal.RequireFromString("3.5")},
		{"16", decimal.RequireFromString("0.25")},
	}

	for _, tt := range tests {
		t.Run(tt.recip, func(t *testing.T) {
			got, err := Quarters(tt.recip)
			assert.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "got %s", got)
		})
	}
}
