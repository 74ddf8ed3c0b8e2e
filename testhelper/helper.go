package testhelper

import (
	"regexp"
	"strings"
	"testing"
)

var leadingSpaces = regexp.MustCompile(`^( +)`)

// TrimIndent removes the indentation of a raw string literal. Only spaces are
// treated as indentation because tabs separate spine columns.
func TrimIndent(t *testing.T, src string) string {
	t.Helper()

	lines := strings.Split(src, "\n")

	var indent string
	if len(lines) > 1 {
		indent = leadingSpaces.FindString(lines[1])
	}

	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, indent)
	}

	return strings.Join(lines[1:], "\n")
}

// Rows builds a document from lines whose cells are separated by " | ".
func Rows(t *testing.T, lines ...string) string {
	t.Helper()

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(strings.ReplaceAll(line, " | ", "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}
