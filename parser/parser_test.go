package parser

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/spinetree/testhelper"
	"github.com/shibukawa/spinetree/token"
	"github.com/shibukawa/spinetree/tree"
)

func TestParseSplitJoinAndMeasures(t *testing.T) {
	input := testhelper.Rows(t,
		"**kern | **kern",
		"*clefG2 | *clefF4",
		"*^ | *",
		"4c | 4e | 4G",
		"*v | *v | *",
		"=1 | =1",
		"4d | 4B",
	)

	result, err := ParseString(input, DefaultOptions)
	assert.NoError(t, err)
	tr := result.Tree

	assert.Equal(t, 8, tr.StageCount())
	assert.Equal(t, 1, result.HeaderStage)
	assert.Equal(t, 2, len(tr.Stage(result.HeaderStage)))
	assert.Equal(t, []int{4, 6}, result.MeasureStarts)
	assert.Equal(t, 0, len(result.Errors))

	split := tr.Columns(3)[0]
	assert.Equal(t, []tree.NodeID{split, split, tr.Columns(3)[1]}, tr.Layout(4))

	// the join folds both subspines into one node
	columns := tr.Columns(5)
	assert.Equal(t, 3, len(columns))
	assert.Equal(t, columns[0], columns[1])
	assert.Equal(t, 2, len(tr.Stage(5)))

	op := tr.Node(split).Token.(*token.SpineOperationToken)
	assert.Equal(t, 5, op.CancelledAt)

	last := tr.Node(tr.Columns(7)[0])
	assert.Equal(t, "4d", last.Token.Encoding())
	assert.Equal(t, tr.Columns(1)[0], last.Header)
	assert.Equal(t, tr.Columns(2)[0], last.Signatures[token.ClefKind])
	assert.Equal(t, tree.NoNode, last.Signatures[token.KeyKind])
	assert.Equal(t, tr.Columns(5)[0], last.LastSpineOperator)

	assert.Equal(t, 2, len(tr.Layout(tr.StageCount())))
}

func TestParseJoinKeepsVoicesApart(t *testing.T) {
	input := testhelper.Rows(t,
		"**kern | **kern",
		"*v | *v",
		"4c | 4d",
	)

	result, err := ParseString(input, DefaultOptions)
	assert.NoError(t, err)

	columns := result.Tree.Columns(2)
	assert.NotEqual(t, columns[0], columns[1])
	assert.Equal(t, 2, len(result.Tree.Stage(3)))
}

func TestParseTerminateCancelsSplit(t *testing.T) {
	input := testhelper.Rows(t,
		"**kern",
		"*^",
		"4c | 4e",
		"* | *-",
		"4d",
		"*-",
	)

	result, err := ParseString(input, DefaultOptions)
	assert.NoError(t, err)
	tr := result.Tree

	op := tr.Node(tr.Columns(2)[0]).Token.(*token.SpineOperationToken)
	assert.Equal(t, 4, op.CancelledAt)
	assert.Equal(t, 0, len(tr.Layout(tr.StageCount())))
}

func TestParseTerminateCancelsNearestJoin(t *testing.T) {
	input := testhelper.Rows(t,
		"**kern",
		"*^",
		"4c | 4e",
		"*v | *v",
		"4d",
		"*-",
	)

	result, err := ParseString(input, DefaultOptions)
	assert.NoError(t, err)
	tr := result.Tree

	split := tr.Node(tr.Columns(2)[0]).Token.(*token.SpineOperationToken)
	join := tr.Node(tr.Columns(4)[0]).Token.(*token.SpineOperationToken)
	assert.Equal(t, token.OpJoin, join.Op)
	assert.Equal(t, 4, split.CancelledAt)
	assert.Equal(t, 6, join.CancelledAt)
	assert.Equal(t, 0, len(tr.Layout(tr.StageCount())))
}

func TestParseMetacomments(t *testing.T) {
	input := testhelper.Rows(t,
		"!!!COM: Bach",
		"**kern | **kern",
		"!! shared",
		"4c | 4d",
		"*- | *-",
		"!!!RDF**kern: trailer",
		"!!!ENC: someone",
	)

	result, err := ParseString(input, DefaultOptions)
	assert.NoError(t, err)
	tr := result.Tree

	assert.True(t, tr.IsMetacommentStage(1))
	before := tr.Columns(1)[0]
	assert.Equal(t, tree.NodeID(0), tr.Node(before).Parent)
	assert.Equal(t, before, tr.Node(tr.Columns(2)[0]).Parent)
	assert.Equal(t, 2, result.HeaderStage)

	shared := tr.Columns(3)
	assert.Equal(t, 2, len(shared))
	assert.NotEqual(t, shared[0], shared[1])
	assert.True(t, tr.Node(shared[0]).Token == tr.Node(shared[1]).Token)

	first := tr.Node(tr.Columns(6)[0])
	assert.Equal(t, tr.Stage(5)[0], first.Parent)
	second := tr.Node(tr.Columns(7)[0])
	assert.Equal(t, first.ID, second.Parent)
	assert.Equal(t, "!!!ENC: someone", second.Token.Encoding())
}

func TestParseCellErrors(t *testing.T) {
	input := testhelper.Rows(t,
		"**kern | **kern",
		"4cd | *clefQ",
		"4c | 4d",
	)

	result, err := ParseString(input, DefaultOptions)
	assert.NoError(t, err)

	assert.Equal(t, 2, len(result.Errors))
	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Equal(t, 1, result.Errors[0].Column)
	assert.Equal(t, "4cd", result.Errors[0].Raw)
	assert.Equal(t, 2, result.Errors[1].Column)

	tok := result.Tree.Node(result.Tree.Columns(2)[0]).Token
	assert.Equal(t, token.Error, tok.Category())
	assert.Equal(t, "4cd", tok.Encoding())
}

func TestParseFieldCommentsSkipImporter(t *testing.T) {
	input := testhelper.Rows(t,
		"**kern",
		"! not a note",
		"4c",
	)

	result, err := ParseString(input, DefaultOptions)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(result.Errors))
	assert.Equal(t, token.FieldComments, result.Tree.Node(result.Tree.Columns(2)[0]).Token.Category())
}

func TestParseHiddenDuplicateBarline(t *testing.T) {
	input := testhelper.Rows(t,
		"**kern",
		"4c",
		"=1",
		"=1",
		"4d",
		"=2",
	)

	result, err := ParseString(input, DefaultOptions)
	assert.NoError(t, err)

	assert.True(t, result.Tree.Node(result.Tree.Columns(4)[0]).Token.Hidden())
	assert.False(t, result.Tree.Node(result.Tree.Columns(3)[0]).Token.Hidden())
	assert.Equal(t, []int{2, 3, 6}, result.MeasureStarts)
}

func TestParseAddSpine(t *testing.T) {
	input := testhelper.Rows(t,
		"**kern",
		"*+",
		"* | **dynam",
		"4c | p",
	)

	result, err := ParseString(input, DefaultOptions)
	assert.NoError(t, err)
	tr := result.Tree

	dynamic := tr.Node(tr.Columns(4)[1])
	assert.Equal(t, token.Dynamics, dynamic.Token.Category())
	assert.Equal(t, tr.Columns(3)[1], dynamic.Header)
	assert.Equal(t, tr.Columns(1)[0], tr.Node(tr.Columns(4)[0]).Header)
}

func TestParseBoundingBoxes(t *testing.T) {
	input := testhelper.Rows(t,
		"**kern | **kern",
		"*xywh-p1:10,20,30,40 | *xywh-p1:50,60,10,10",
		"4c | 4d",
		"=2 | =2",
		"*xywh-p2:0,0,5,5 | *",
		"4e | 4f",
	)

	result, err := ParseString(input, DefaultOptions)
	assert.NoError(t, err)

	assert.Equal(t, 2, len(result.PageBoundingBoxes))
	p1 := result.PageBoundingBoxes["p1"]
	assert.Equal(t, token.Box{X: 10, Y: 20, W: 50, H: 50}, p1.Box)
	assert.Equal(t, 1, p1.FromMeasure)
	assert.Equal(t, 1, p1.ToMeasure)

	p2 := result.PageBoundingBoxes["p2"]
	assert.Equal(t, token.Box{X: 0, Y: 0, W: 5, H: 5}, p2.Box)
	assert.Equal(t, 2, p2.FromMeasure)
}

func TestParseUnknownVoiceTypeWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	input := testhelper.Rows(t,
		"**foo | **foo",
		"x | y",
	)

	result, err := ParseString(input, opts)
	assert.NoError(t, err)
	assert.Equal(t, 1, strings.Count(buf.String(), "unknown voice type"))
	assert.Equal(t, token.Other, result.Tree.Node(result.Tree.Columns(2)[0]).Token.Category())
}

func TestParseNormalizeVisitsSharedTokensOnce(t *testing.T) {
	calls := 0
	opts := Options{Normalize: func(s string) string {
		calls++
		return strings.ToUpper(s)
	}}

	input := testhelper.Rows(t,
		"**kern | **kern",
		"!! shared",
		"4c | 4d",
	)

	result, err := ParseString(input, opts)
	assert.NoError(t, err)
	assert.Equal(t, 5, calls)
	assert.Equal(t, "!! SHARED", result.Tree.Node(result.Tree.Columns(2)[1]).Token.Encoding())
}

func TestParseStructuralErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		err    error
		line   int
		column int
	}{
		{
			name:  "more columns than open paths" + testhelper.GetCaller(t),
			input: "**kern\t**kern\n4c\t4d\t4e\n",
			err:   ErrColumnMismatch,
			line:  2,
		},
		{
			name:  "header declared twice" + testhelper.GetCaller(t),
			input: "**kern\n4c\n**kern\n",
			err:   ErrHeaderRedeclared,
			line:  3,
		},
		{
			name:   "content before header" + testhelper.GetCaller(t),
			input:  "4c\n**kern\n",
			err:    ErrNoVoiceAncestor,
			line:   1,
			column: 1,
		},
		{
			name:  "no header" + testhelper.GetCaller(t),
			input: "!!!COM: nobody\n",
			err:   ErrMissingHeader,
			line:  1,
		},
		{
			name:   "added spine without header" + testhelper.GetCaller(t),
			input:  "**kern\n*+\n*\t4c\n",
			err:    ErrMissingHeader,
			line:   3,
			column: 2,
		},
		{
			name:  "content after termination" + testhelper.GetCaller(t),
			input: "**kern\n*-\n4c\n",
			err:   ErrColumnMismatch,
			line:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input, DefaultOptions)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), err.Error())

			var se *StructuralError
			assert.True(t, errors.As(err, &se))
			assert.Equal(t, tt.line, se.Line)
			assert.Equal(t, tt.column, se.Column)
		})
	}
}
