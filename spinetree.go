// Package spinetree parses Humdrum **kern spine documents into a multi-stage
// tree and exports measure ranges of them back to text.
//
//	doc, err := spinetree.ReadFile("bach.krn", spinetree.DefaultOptions())
//	text, err := spinetree.Export(doc, exporter.Options{FromMeasure: 3, ToMeasure: 4})
package spinetree

import (
	"fmt"
	"io"
	"os"

	"github.com/shibukawa/spinetree/document"
	"github.com/shibukawa/spinetree/exporter"
	"github.com/shibukawa/spinetree/parser"
)

// Version is set at build time.
var Version = "dev"

// Document is a parsed spine document.
type Document = document.Document

// DefaultOptions returns the parser defaults.
func DefaultOptions() parser.Options {
	return parser.DefaultOptions
}

// Read parses a document from r.
func Read(r io.Reader, source string, opts parser.Options) (*Document, error) {
	return document.Read(r, source, opts)
}

// ReadFile parses the document stored at path.
func ReadFile(path string, opts parser.Options) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return document.Read(f, path, opts)
}

// ParseString parses an in-memory document.
func ParseString(input string, opts parser.Options) (*Document, error) {
	return document.ParseString(input, opts)
}

// Export renders a document with the default exporter.
func Export(doc *Document, opts exporter.Options) (string, error) {
	return exporter.Export(doc, opts)
}
