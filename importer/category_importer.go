package importer

import "github.com/shibukawa/spinetree/token"

// CategoryImporter imports voice types whose data cells are opaque, such as
// **dynam or **text. Shared interpretations are still recognized.
type CategoryImporter struct {
	category token.Category
}

func NewCategoryImporter(category token.Category) *CategoryImporter {
	return &CategoryImporter{category: category}
}

func (i *CategoryImporter) Import(raw string) (token.Token, error) {
	if t, handled, err := Interpretation(raw); handled {
		return t, err
	}
	return token.NewSimple(i.category, raw), nil
}
