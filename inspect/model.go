package inspect

import "github.com/shibukawa/spinetree/parser"

// Options controls inspect behavior.
type Options struct {
	Strict bool // if true, documents with rejected cells are an error
	Pretty bool // pretty-print JSON (used by CLI layer)
}

// VoiceSummary describes one declared voice.
type VoiceSummary struct {
	ID     int            `json:"id" yaml:"id"`
	Type   string         `json:"type" yaml:"type"`
	Line   int            `json:"line" yaml:"line"`
	Tokens map[string]int `json:"tokens" yaml:"tokens"` // category -> count
	Notes  int            `json:"notes" yaml:"notes"`
	Rests  int            `json:"rests" yaml:"rests"`
	// Duration is the total length of the leftmost path in quarter notes.
	Duration string `json:"duration" yaml:"duration"`
}

// Reference is one global comment.
type Reference struct {
	Key   string `json:"key,omitempty" yaml:"key,omitempty"`
	Value string `json:"value" yaml:"value"`
	Line  int    `json:"line" yaml:"line"`
}

// CellIssue is a cell that its importer rejected.
type CellIssue struct {
	Line    int    `json:"line" yaml:"line"`
	Column  int    `json:"column" yaml:"column"`
	Raw     string `json:"raw" yaml:"raw"`
	Message string `json:"message" yaml:"message"`
}

// Report is the serializable output model.
type Report struct {
	ID           string            `json:"id" yaml:"id"`
	Source       string            `json:"source,omitempty" yaml:"source,omitempty"`
	HeaderLine   int               `json:"header_line" yaml:"header_line"`
	Measures     int               `json:"measures" yaml:"measures"`
	Voices       []VoiceSummary    `json:"voices" yaml:"voices"`
	Metacomments []Reference       `json:"metacomments,omitempty" yaml:"metacomments,omitempty"`
	Pages        []*parser.PageBox `json:"pages,omitempty" yaml:"pages,omitempty"`
	Errors       []CellIssue       `json:"errors,omitempty" yaml:"errors,omitempty"`
	Notes        []string          `json:"notes,omitempty" yaml:"notes,omitempty"`
}
