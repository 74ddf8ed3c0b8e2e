package tokenizer

import (
	"errors"
	"strings"
)

// Sentinel errors
var (
	ErrLineTooLong = errors.New("line exceeds maximum length")
)

// Row markers
const (
	MetacommentPrefix  = "!!"
	FieldCommentPrefix = "!"
	HeaderPrefix       = "**"
	InterpretationMark = "*"
	NullData           = "."
	CellSeparator      = "\t"
)

// RowKind classifies a whole input row
type RowKind int

const (
	// REGULAR rows carry one cell per open spine path
	REGULAR RowKind = iota
	// METACOMMENT rows start with "!!" and belong to no spine
	METACOMMENT
	// HEADER rows declare voices; every cell starts with "**"
	HEADER
)

// String returns the string representation of RowKind
func (k RowKind) String() string {
	switch k {
	case REGULAR:
		return "REGULAR"
	case METACOMMENT:
		return "METACOMMENT"
	case HEADER:
		return "HEADER"
	default:
		return "UNKNOWN"
	}
}

// Row represents one non-empty input line
type Row struct {
	Kind  RowKind
	Line  int // 1-based line number in the source
	Raw   string
	Cells []string
}

// String returns the string representation of Row
func (r Row) String() string {
	return r.Kind.String() + ": " + r.Raw
}

// IsHeaderCell reports whether a cell declares a voice type.
func IsHeaderCell(cell string) bool {
	return strings.HasPrefix(cell, HeaderPrefix) && len(cell) > len(HeaderPrefix)
}

// IsFieldComment reports whether a cell is a single-column comment.
func IsFieldComment(cell string) bool {
	return strings.HasPrefix(cell, FieldCommentPrefix) && !strings.HasPrefix(cell, MetacommentPrefix)
}

func classify(raw string, cells []string) RowKind {
	if strings.HasPrefix(raw, MetacommentPrefix) {
		return METACOMMENT
	}
	for _, c := range cells {
		if !IsHeaderCell(c) {
			return REGULAR
		}
	}
	return HEADER
}
