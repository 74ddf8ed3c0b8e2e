package token

// Category classifies a token or one of its sub-elements. The parent/child
// relation between categories lives in the category package.
type Category string

const (
	Structural Category = "STRUCTURAL"

	Core       Category = "CORE"
	NoteRest   Category = "NOTE_REST"
	Note       Category = "NOTE"
	Rest       Category = "REST"
	Duration   Category = "DURATION"
	Pitch      Category = "PITCH"
	Alteration Category = "ALTERATION"
	Decoration Category = "DECORATION"
	Chord      Category = "CHORD"
	Empty      Category = "EMPTY"

	Signatures     Category = "SIGNATURES"
	Clef           Category = "CLEF"
	KeySignature   Category = "KEY_SIGNATURE"
	TimeSignature  Category = "TIME_SIGNATURE"
	MeterSignature Category = "METER_SIGNATURE"

	Barlines Category = "BARLINES"

	Comments      Category = "COMMENTS"
	FieldComments Category = "FIELD_COMMENTS"
	LineComments  Category = "LINE_COMMENTS"

	Dynamics      Category = "DYNAMICS"
	Harmony       Category = "HARMONY"
	Fingering     Category = "FINGERING"
	Lyrics        Category = "LYRICS"
	Instruments   Category = "INSTRUMENTS"
	BoundingBoxes Category = "BOUNDING_BOXES"
	Other         Category = "OTHER"
	Error         Category = "ERROR"
)

// String returns the category name
func (c Category) String() string {
	return string(c)
}

// SignatureKind indexes the notational state kinds that stay in effect until
// superseded.
type SignatureKind int

const (
	ClefKind SignatureKind = iota
	KeyKind
	TimeKind
	MeterKind

	// SignatureKindCount is the number of signature kinds.
	SignatureKindCount
)

// SignatureKinds lists the kinds in export order.
var SignatureKinds = [SignatureKindCount]SignatureKind{ClefKind, KeyKind, TimeKind, MeterKind}

// String returns the string representation of SignatureKind
func (k SignatureKind) String() string {
	switch k {
	case ClefKind:
		return "clef"
	case KeyKind:
		return "key"
	case TimeKind:
		return "time"
	case MeterKind:
		return "meter"
	default:
		return "unknown"
	}
}

// Category returns the token category carried by signatures of this kind.
func (k SignatureKind) Category() Category {
	switch k {
	case ClefKind:
		return Clef
	case KeyKind:
		return KeySignature
	case TimeKind:
		return TimeSignature
	case MeterKind:
		return MeterSignature
	default:
		return Other
	}
}
