package token

import (
	"fmt"
	"strings"
)

// Variant selects how exported tokens are rendered.
type Variant string

const (
	// VariantRaw writes the original cell text.
	VariantRaw Variant = "raw"
	// VariantEKern writes the canonical decorated export.
	VariantEKern Variant = "ekern"
	// VariantKern writes the canonical export without separators.
	VariantKern Variant = "kern"
	// VariantBEKern drops decorations and keeps the field separators.
	VariantBEKern Variant = "bekern"
	// VariantBKern drops decorations and separators.
	VariantBKern Variant = "bkern"
	// VariantAgnostic is a graphical re-encoding of pitch.
	VariantAgnostic Variant = "agnostic"
)

var kernFamily = map[string]bool{
	"**kern":   true,
	"**ekern":  true,
	"**bekern": true,
	"**bkern":  true,
}

// IsKernFamily reports whether voiceType is rendered by the kern variants.
func IsKernFamily(voiceType string) bool {
	return kernFamily[voiceType]
}

// ParseVariant converts a name into a Variant.
func ParseVariant(name string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(name)))
	if err := v.Validate(); err != nil {
		return "", err
	}
	return v, nil
}

// Validate fails for unknown variants and for variants that are not built yet.
func (v Variant) Validate() error {
	switch v {
	case VariantRaw, VariantEKern, VariantKern, VariantBEKern, VariantBKern:
		return nil
	case VariantAgnostic:
		return fmt.Errorf("%w: %s export", ErrNotImplemented, v)
	default:
		return fmt.Errorf("%w: '%s'", ErrUnknownVariant, v)
	}
}

// Transform renders a canonical export in this variant.
func (v Variant) Transform(exported string) string {
	switch v {
	case VariantKern:
		return strings.NewReplacer(FieldSeparator, "", DecorationSeparator, "").Replace(exported)
	case VariantBEKern:
		return stripDecorations(exported)
	case VariantBKern:
		return strings.ReplaceAll(stripDecorations(exported), FieldSeparator, "")
	default:
		return exported
	}
}

// stripDecorations cuts every space-separated part at its first decoration.
func stripDecorations(exported string) string {
	parts := strings.Split(exported, " ")
	for i, p := range parts {
		p, _, _ = strings.Cut(p, DecorationSeparator)
		parts[i] = p
	}
	return strings.Join(parts, " ")
}

// Render returns the text of t in this variant. Compound tokens go through
// keep (nil keeps every sub-element); header tokens of the kern family are
// renamed to the variant.
func (v Variant) Render(t Token, keep func(Category) bool) string {
	if v == VariantRaw {
		return t.Encoding()
	}
	switch tt := t.(type) {
	case *HeaderToken:
		if IsKernFamily(tt.VoiceType()) {
			return "**" + string(v)
		}
		return tt.Encoding()
	case Compound:
		return v.Transform(tt.ExportSelected(keep))
	default:
		return t.Export()
	}
}
