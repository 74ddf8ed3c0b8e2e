package importer

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	pc "github.com/shibukawa/parsercombinator"
	"github.com/shopspring/decimal"

	"github.com/shibukawa/spinetree/token"
)

type charClass int

const (
	digitChar charClass = iota
	dotChar
	percentChar
	pitchChar
	restChar
	sharpChar
	flatChar
	naturalChar
	decorationChar
)

type char struct {
	class charClass
	value string
}

func classOf(r rune) charClass {
	switch {
	case r >= '0' && r <= '9':
		return digitChar
	case r == '.':
		return dotChar
	case r == '%':
		return percentChar
	case (r >= 'a' && r <= 'g') || (r >= 'A' && r <= 'G'):
		return pitchChar
	case r == 'r':
		return restChar
	case r == '#':
		return sharpChar
	case r == '-':
		return flatChar
	case r == 'n':
		return naturalChar
	default:
		return decorationChar
	}
}

func toParserToken(src string) []pc.Token[char] {
	results := make([]pc.Token[char], 0, len(src))
	col := 0
	for i, r := range src {
		col++
		results = append(results, pc.Token[char]{
			Type: "raw",
			Pos:  &pc.Pos{Line: 1, Col: col, Index: i},
			Val:  char{class: classOf(r), value: string(r)},
			Raw:  string(r),
		})
	}
	return results
}

func charType(classes ...charClass) pc.Parser[char] {
	return func(pctx *pc.ParseContext[char], tokens []pc.Token[char]) (int, []pc.Token[char], error) {
		if len(tokens) > 0 && slices.Contains(classes, tokens[0].Val.class) {
			return 1, tokens[:1], nil
		}
		return 0, nil, pc.ErrNotMatch
	}
}

// sameRun matches one or more repetitions of the same character of a class,
// e.g. "ccc" but not "cd".
func sameRun(class charClass) pc.Parser[char] {
	return func(pctx *pc.ParseContext[char], tokens []pc.Token[char]) (int, []pc.Token[char], error) {
		if len(tokens) == 0 || tokens[0].Val.class != class {
			return 0, nil, pc.ErrNotMatch
		}
		n := 1
		for n < len(tokens) && tokens[n].Val.class == class && tokens[n].Val.value == tokens[0].Val.value {
			n++
		}
		return n, tokens[:n], nil
	}
}

var (
	digit      = charType(digitChar)
	dot        = charType(dotChar)
	percent    = charType(percentChar)
	decoration = charType(decorationChar)
	decos      = pc.ZeroOrMore("decorations", decoration)

	number   = pc.Seq(digit, pc.ZeroOrMore("digits", digit))
	duration = pc.Seq(number, pc.Optional(pc.Seq(percent, number)), pc.ZeroOrMore("dots", dot))

	pitch      = sameRun(pitchChar)
	rest       = sameRun(restChar)
	alteration = pc.Or(sameRun(sharpChar), sameRun(flatChar), charType(naturalChar))

	noteRest = pc.Seq(
		decos,
		pc.Optional(duration),
		decos,
		pc.Or(pitch, rest),
		pc.Optional(alteration),
		decos,
		pc.EOS[char](),
	)
)

// KernImporter imports **kern and **ekern cells.
type KernImporter struct{}

func NewKernImporter() *KernImporter {
	return &KernImporter{}
}

func (k *KernImporter) Import(raw string) (token.Token, error) {
	if t, handled, err := Interpretation(raw); handled {
		return t, err
	}

	// **ekern cells carry the export separators
	plain := strings.NewReplacer(token.FieldSeparator, "", token.DecorationSeparator, "").Replace(raw)

	parts := strings.Fields(plain)
	switch len(parts) {
	case 0:
		return nil, fmt.Errorf("%w: empty kern cell", ErrInvalidCell)
	case 1:
		return parseNoteRest(raw, parts[0])
	}

	notes := make([]*token.NoteRestToken, 0, len(parts))
	for _, p := range parts {
		n, err := parseNoteRest(p, p)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return token.NewChord(raw, notes), nil
}

func parseNoteRest(raw, src string) (*token.NoteRestToken, error) {
	pctx := pc.NewParseContext[char]()
	_, parsed, err := noteRest(pctx, toParserToken(src))
	if err != nil {
		return nil, fmt.Errorf("%w: kern note '%s'", ErrInvalidCell, src)
	}

	var dur, name, alter strings.Builder
	var nameCategory token.Category = token.Pitch
	var decorations []token.Subtoken
	for _, p := range parsed {
		switch p.Val.class {
		case digitChar, dotChar, percentChar:
			dur.WriteString(p.Val.value)
		case pitchChar:
			name.WriteString(p.Val.value)
		case restChar:
			name.WriteString(p.Val.value)
			nameCategory = token.Rest
		case sharpChar, flatChar, naturalChar:
			alter.WriteString(p.Val.value)
		case decorationChar:
			decorations = append(decorations, token.Subtoken{Category: token.Decoration, Encoding: p.Val.value})
		}
	}

	quarters, err := Quarters(dur.String())
	if err != nil {
		return nil, err
	}

	subtokens := make([]token.Subtoken, 0, 3+len(decorations))
	if dur.Len() > 0 {
		subtokens = append(subtokens, token.Subtoken{Category: token.Duration, Encoding: dur.String()})
	}
	subtokens = append(subtokens, token.Subtoken{Category: nameCategory, Encoding: name.String()})
	if alter.Len() > 0 {
		subtokens = append(subtokens, token.Subtoken{Category: token.Alteration, Encoding: alter.String()})
	}
	subtokens = append(subtokens, decorations...)

	return token.NewNoteRest(raw, subtokens, quarters), nil
}

// Quarters converts a kern recip ("4", "8..", "0", "3%2") into a length in
// quarter notes. An empty recip (grace note) is zero.
func Quarters(recip string) (decimal.Decimal, error) {
	if recip == "" {
		return decimal.Zero, nil
	}

	body := strings.TrimRight(recip, ".")
	dots := len(recip) - len(body)

	numText, denText, rational := strings.Cut(body, "%")
	if !rational {
		denText = "1"
	}

	var base decimal.Decimal
	switch {
	case !rational && strings.Trim(numText, "0") == "":
		// 0 is a breve, 00 a long, 000 a maxima
		base = decimal.NewFromInt(4).Mul(decimal.NewFromInt(2).Pow(decimal.NewFromInt(int64(len(numText)))))
	default:
		num, err := strconv.ParseInt(numText, 10, 64)
		if err != nil || num == 0 {
			return decimal.Zero, fmt.Errorf("%w: '%s'", ErrInvalidDuration, recip)
		}
		den, err := strconv.ParseInt(denText, 10, 64)
		if err != nil || den == 0 {
			return decimal.Zero, fmt.Errorf("%w: '%s'", ErrInvalidDuration, recip)
		}
		base = decimal.NewFromInt(4 * den).Div(decimal.NewFromInt(num))
	}

	total := base
	add := base
	half := decimal.NewFromFloat(0.5)
	for range dots {
		add = add.Mul(half)
		total = total.Add(add)
	}
	return total, nil
}
