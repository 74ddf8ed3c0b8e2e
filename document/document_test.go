package document

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/google/uuid"

	"github.com/shibukawa/spinetree/category"
	"github.com/shibukawa/spinetree/parser"
	"github.com/shibukawa/spinetree/testhelper"
	"github.com/shibukawa/spinetree/token"
)

func chorale(t *testing.T) *Document {
	t.Helper()

	input := testhelper.Rows(t,
		"!!!COM: Bach",
		"!!!OTL: Chorale",
		"**kern | **kern",
		"*clefG2 | *clefF4",
		"*M4/4 | *M4/4",
		"4c | 4e",
		"=1 | =1",
		"4c | 4g",
		"=2 | =2",
		"4d | 4f",
		"*- | *-",
		"!!!ENC: someone",
	)

	doc, err := ParseString(input, parser.DefaultOptions)
	assert.NoError(t, err)
	return doc
}

func TestDocumentMeasures(t *testing.T) {
	doc := chorale(t)

	assert.NotEqual(t, uuid.Nil, doc.ID)
	assert.Equal(t, 3, doc.HeaderStage())
	assert.Equal(t, 2, doc.VoiceCount())
	assert.Equal(t, []int{6, 7, 9}, doc.MeasureStarts())
	assert.Equal(t, 2, doc.MeasuresCount())
	assert.Equal(t, 1, doc.FirstMeasure())
	assert.Equal(t, 2, doc.LastMeasure())

	from, to, err := doc.MeasureStages(1)
	assert.NoError(t, err)
	assert.Equal(t, 0, from)
	assert.Equal(t, 7, to)

	from, to, err = doc.MeasureStages(2)
	assert.NoError(t, err)
	assert.Equal(t, 7, from)
	assert.Equal(t, 12, to)

	_, _, err = doc.MeasureStages(3)
	assert.True(t, errors.Is(err, ErrMeasureOutOfRange))

	assert.Equal(t, 1, doc.MeasureOf(3))
	assert.Equal(t, 1, doc.MeasureOf(7))
	assert.Equal(t, 2, doc.MeasureOf(8))
	assert.Equal(t, 2, doc.MeasureOf(12))
}

func TestDocumentWithoutMeasures(t *testing.T) {
	doc, err := ParseString("**kern\n*clefG2\n", parser.DefaultOptions)
	assert.NoError(t, err)

	assert.Equal(t, 0, doc.MeasuresCount())
	assert.Equal(t, 0, doc.FirstMeasure())
	assert.Equal(t, 0, doc.MeasureOf(2))
}

func TestDocumentTokens(t *testing.T) {
	doc := chorale(t)

	assert.Equal(t, 21, len(doc.Tokens(nil)))

	notes, err := category.Default().Selector([]token.Category{token.NoteRest}, nil)
	assert.NoError(t, err)
	assert.Equal(t, 6, len(doc.Tokens(notes)))

	unique := doc.UniqueTokens(notes)
	encodings := make([]string, len(unique))
	for i, tok := range unique {
		encodings[i] = tok.Encoding()
	}
	assert.Equal(t, []string{"4c", "4d", "4e", "4g", "4f"}, encodings)
}

func TestDocumentMetacomments(t *testing.T) {
	doc := chorale(t)

	assert.Equal(t, []string{"!!!COM: Bach", "!!!OTL: Chorale", "!!!ENC: someone"}, doc.Metacomments("", false))
	assert.Equal(t, []string{"Bach"}, doc.Metacomments("COM", true))
	assert.Equal(t, []string{"!!!OTL: Chorale"}, doc.Metacomments("OTL", false))
}

func TestDocumentMetacommentsAfterHeaderAreListedOnce(t *testing.T) {
	input := testhelper.Rows(t,
		"**kern | **kern",
		"!! between voices",
		"4c | 4d",
	)
	doc, err := ParseString(input, parser.DefaultOptions)
	assert.NoError(t, err)
	assert.Equal(t, []string{"!! between voices"}, doc.Metacomments("", true))
}

func TestDocumentVoices(t *testing.T) {
	input := testhelper.Rows(t,
		"**kern | **kern",
		"*+ | *",
		"* | **dynam | *",
		"4c | p | 4d",
	)
	doc, err := ParseString(input, parser.DefaultOptions)
	assert.NoError(t, err)

	voices := doc.Voices()
	assert.Equal(t, 3, len(voices))
	assert.Equal(t, "**kern", voices[0].Type)
	assert.Equal(t, 1, voices[1].ID)
	assert.Equal(t, "**dynam", voices[2].Type)
	assert.Equal(t, 3, voices[2].Stage)
	assert.Equal(t, 2, doc.VoiceCount())
}

func TestDocumentErrorsAndPages(t *testing.T) {
	input := testhelper.Rows(t,
		"**kern",
		"*xywh-p2:0,0,5,5",
		"*xywh-p1:1,1,2,2",
		"4cd",
	)
	doc, err := ParseString(input, parser.DefaultOptions)
	assert.NoError(t, err)

	assert.True(t, doc.HasErrors())
	assert.Equal(t, 1, len(doc.Errors()))

	pages := doc.PageBoundingBoxes()
	assert.Equal(t, 2, len(pages))
	assert.Equal(t, "p1", pages[0].Page)
	assert.Equal(t, "p2", pages[1].Page)

	_, ok := doc.PageBoundingBox("p3")
	assert.False(t, ok)
}
