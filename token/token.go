package token

import (
	"errors"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Sentinel errors
var (
	ErrNotImplemented = errors.New("not implemented")
	ErrUnknownVariant = errors.New("unknown export variant")
)

const (
	// FieldSeparator joins the core fields of a note in its canonical export.
	FieldSeparator = "@"
	// DecorationSeparator precedes every decoration in a canonical export.
	DecorationSeparator = "·"
)

// Token is one parsed cell. The set of implementations is closed.
type Token interface {
	Category() Category
	Encoding() string
	Hidden() bool
	Export() string

	base() *tokenBase
}

// Compound is implemented by tokens built from sub-elements; the exporter
// uses it to drop filtered sub-elements.
type Compound interface {
	Token
	ExportSelected(keep func(Category) bool) string
}

type tokenBase struct {
	category Category
	encoding string
	hidden   bool
}

func newBase(category Category, encoding string) tokenBase {
	return tokenBase{category: category, encoding: encoding}
}

func (b *tokenBase) Category() Category { return b.category }
func (b *tokenBase) Encoding() string   { return b.encoding }
func (b *tokenBase) Hidden() bool       { return b.hidden }
func (b *tokenBase) Export() string     { return b.encoding }
func (b *tokenBase) base() *tokenBase   { return b }

// Hide suppresses the token on export.
func Hide(t Token) {
	t.base().hidden = true
}

// Normalize rewrites the raw encoding of t with fn. It is the only way an
// encoding changes after import.
func Normalize(t Token, fn func(string) string) {
	b := t.base()
	b.encoding = fn(b.encoding)
}

// HeaderToken declares a voice, e.g. **kern.
type HeaderToken struct {
	tokenBase
}

func NewHeader(encoding string) *HeaderToken {
	return &HeaderToken{tokenBase: newBase(Structural, encoding)}
}

// VoiceType returns the declared voice type including the ** prefix.
func (t *HeaderToken) VoiceType() string {
	return t.encoding
}

// SpineOperation is a structural operator changing the spine layout.
type SpineOperation int

const (
	OpSplit SpineOperation = iota
	OpJoin
	OpTerminate
	OpAdd
)

// Spine operator symbols.
const (
	SplitSymbol     = "*^"
	JoinSymbol      = "*v"
	TerminateSymbol = "*-"
	AddSymbol       = "*+"
)

// String returns the operator symbol
func (o SpineOperation) String() string {
	switch o {
	case OpSplit:
		return SplitSymbol
	case OpJoin:
		return JoinSymbol
	case OpTerminate:
		return TerminateSymbol
	case OpAdd:
		return AddSymbol
	default:
		return "*"
	}
}

// ParseSpineOperation recognizes the four operator symbols.
func ParseSpineOperation(cell string) (SpineOperation, bool) {
	switch cell {
	case SplitSymbol:
		return OpSplit, true
	case JoinSymbol:
		return OpJoin, true
	case TerminateSymbol:
		return OpTerminate, true
	case AddSymbol:
		return OpAdd, true
	}
	return 0, false
}

// SpineOperationToken is a split, join, terminate or add cell.
type SpineOperationToken struct {
	tokenBase
	Op SpineOperation
	// CancelledAt is the stage at which a later row folded or terminated the
	// path this operator opened. Zero means still live.
	CancelledAt int
}

func NewSpineOperation(op SpineOperation) *SpineOperationToken {
	return &SpineOperationToken{tokenBase: newBase(Structural, op.String()), Op: op}
}

// Cancel records the first stage that cancelled the operator.
func (t *SpineOperationToken) Cancel(stage int) {
	if t.CancelledAt == 0 {
		t.CancelledAt = stage
	}
}

// CancelledBefore reports whether the operator was cancelled before stage.
func (t *SpineOperationToken) CancelledBefore(stage int) bool {
	return t.CancelledAt != 0 && t.CancelledAt < stage
}

// Subtoken is one element of a compound token.
type Subtoken struct {
	Category Category
	Encoding string
}

// NoteRestToken is a note or a rest.
type NoteRestToken struct {
	tokenBase
	Subtokens []Subtoken
	// Quarters is the duration in quarter notes; zero for grace notes.
	Quarters decimal.Decimal
}

func NewNoteRest(encoding string, subtokens []Subtoken, quarters decimal.Decimal) *NoteRestToken {
	return &NoteRestToken{
		tokenBase: newBase(NoteRest, encoding),
		Subtokens: subtokens,
		Quarters:  quarters,
	}
}

// IsRest reports whether the token is a rest.
func (t *NoteRestToken) IsRest() bool {
	return slices.ContainsFunc(t.Subtokens, func(s Subtoken) bool { return s.Category == Rest })
}

// PitchName returns the pitch letters, or "" for rests.
func (t *NoteRestToken) PitchName() string {
	for _, s := range t.Subtokens {
		if s.Category == Pitch {
			return s.Encoding
		}
	}
	return ""
}

func (t *NoteRestToken) Export() string {
	return t.ExportSelected(nil)
}

// ExportSelected builds the canonical form from the kept sub-elements. Core
// fields keep their order; decorations are de-duplicated and sorted.
func (t *NoteRestToken) ExportSelected(keep func(Category) bool) string {
	var fields []string
	var decorations []string
	for _, s := range t.Subtokens {
		if keep != nil && !keep(s.Category) {
			continue
		}
		if s.Category == Decoration {
			decorations = append(decorations, s.Encoding)
			continue
		}
		fields = append(fields, s.Encoding)
	}
	slices.Sort(decorations)
	decorations = slices.Compact(decorations)

	var b strings.Builder
	b.WriteString(strings.Join(fields, FieldSeparator))
	for _, d := range decorations {
		b.WriteString(DecorationSeparator)
		b.WriteString(d)
	}
	return b.String()
}

// ChordToken is a set of simultaneous notes separated by spaces.
type ChordToken struct {
	tokenBase
	Notes []*NoteRestToken
}

func NewChord(encoding string, notes []*NoteRestToken) *ChordToken {
	return &ChordToken{tokenBase: newBase(Chord, encoding), Notes: notes}
}

func (t *ChordToken) Export() string {
	return t.ExportSelected(nil)
}

func (t *ChordToken) ExportSelected(keep func(Category) bool) string {
	parts := make([]string, 0, len(t.Notes))
	for _, n := range t.Notes {
		if s := n.ExportSelected(keep); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// EmptyToken is the null data token "." or the null interpretation "*".
type EmptyToken struct {
	tokenBase
}

func NewEmpty(encoding string) *EmptyToken {
	return &EmptyToken{tokenBase: newBase(Empty, encoding)}
}

// Signature is implemented by clef, key, time signature and meter tokens.
type Signature interface {
	Token
	Kind() SignatureKind
}

type ClefToken struct {
	tokenBase
	Shape string
	Line  int
}

func NewClef(encoding, shape string, line int) *ClefToken {
	return &ClefToken{tokenBase: newBase(Clef, encoding), Shape: shape, Line: line}
}

func (t *ClefToken) Kind() SignatureKind { return ClefKind }

type KeySignatureToken struct {
	tokenBase
	Accidentals []string
}

func NewKeySignature(encoding string, accidentals []string) *KeySignatureToken {
	return &KeySignatureToken{tokenBase: newBase(KeySignature, encoding), Accidentals: accidentals}
}

func (t *KeySignatureToken) Kind() SignatureKind { return KeyKind }

type TimeSignatureToken struct {
	tokenBase
	Numerator   int
	Denominator int
}

func NewTimeSignature(encoding string, numerator, denominator int) *TimeSignatureToken {
	return &TimeSignatureToken{
		tokenBase:   newBase(TimeSignature, encoding),
		Numerator:   numerator,
		Denominator: denominator,
	}
}

func (t *TimeSignatureToken) Kind() SignatureKind { return TimeKind }

type MeterSymbolToken struct {
	tokenBase
	Symbol string
}

func NewMeterSymbol(encoding, symbol string) *MeterSymbolToken {
	return &MeterSymbolToken{tokenBase: newBase(MeterSignature, encoding), Symbol: symbol}
}

func (t *MeterSymbolToken) Kind() SignatureKind { return MeterKind }

// BarlineToken is a measure line such as =, =12 or ==.
type BarlineToken struct {
	tokenBase
	Number int
	Final  bool
}

func NewBarline(encoding string, number int, final bool) *BarlineToken {
	return &BarlineToken{tokenBase: newBase(Barlines, encoding), Number: number, Final: final}
}

// FieldCommentToken is a per-column comment starting with a single "!".
type FieldCommentToken struct {
	tokenBase
}

func NewFieldComment(encoding string) *FieldCommentToken {
	return &FieldCommentToken{tokenBase: newBase(FieldComments, encoding)}
}

// MetacommentToken is a whole-line comment starting with "!!". Reference
// records ("!!!COM: Bach") carry a key.
type MetacommentToken struct {
	tokenBase
}

func NewMetacomment(encoding string) *MetacommentToken {
	return &MetacommentToken{tokenBase: newBase(LineComments, encoding)}
}

// Key returns the reference record key, or "" for plain metacomments.
func (t *MetacommentToken) Key() string {
	body, ok := strings.CutPrefix(t.encoding, "!!!")
	if !ok {
		return ""
	}
	key, _, found := strings.Cut(body, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(key)
}

// Value returns the text after the reference record key.
func (t *MetacommentToken) Value() string {
	if body, ok := strings.CutPrefix(t.encoding, "!!!"); ok {
		if _, value, found := strings.Cut(body, ":"); found {
			return strings.TrimSpace(value)
		}
	}
	return strings.TrimSpace(strings.TrimLeft(t.encoding, "!"))
}

// Box is a page-pixel rectangle.
type Box struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(o Box) Box {
	x0, y0 := min(b.X, o.X), min(b.Y, o.Y)
	x1, y1 := max(b.X+b.W, o.X+o.W), max(b.Y+b.H, o.Y+o.H)
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// BoundingBoxToken locates the current system on a page image.
type BoundingBoxToken struct {
	tokenBase
	Page string
	Box  Box
}

func NewBoundingBox(encoding, page string, box Box) *BoundingBoxToken {
	return &BoundingBoxToken{tokenBase: newBase(BoundingBoxes, encoding), Page: page, Box: box}
}

// SimpleToken carries content whose category is decided by the voice type.
type SimpleToken struct {
	tokenBase
}

func NewSimple(category Category, encoding string) *SimpleToken {
	return &SimpleToken{tokenBase: newBase(category, encoding)}
}

// ErrorToken keeps a cell that its importer rejected.
type ErrorToken struct {
	tokenBase
	Err error
}

func NewError(encoding string, err error) *ErrorToken {
	return &ErrorToken{tokenBase: newBase(Error, encoding), Err: err}
}
