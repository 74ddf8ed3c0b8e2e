package spinetree

import (
	"github.com/shibukawa/spinetree/category"
	"github.com/shibukawa/spinetree/exporter"
	"github.com/shibukawa/spinetree/parser"
	"github.com/shibukawa/spinetree/token"
)

// Common errors used throughout the spinetree packages, re-exported so that
// callers of the top-level API can match them with errors.Is.
var (
	// Structural errors

	// ErrHeaderRedeclared is returned when a document declares its voices twice.
	ErrHeaderRedeclared = parser.ErrHeaderRedeclared
	// ErrColumnMismatch indicates a row whose width differs from the open spine paths.
	ErrColumnMismatch = parser.ErrColumnMismatch
	// ErrNoVoiceAncestor indicates content that no voice header owns.
	ErrNoVoiceAncestor = parser.ErrNoVoiceAncestor
	// ErrMissingHeader indicates a document or added spine without a voice header.
	ErrMissingHeader = parser.ErrMissingHeader

	// Export errors

	// ErrInvalidRange indicates bad measure bounds.
	ErrInvalidRange = exporter.ErrInvalidRange
	// ErrInvalidOptions indicates unknown categories or voice ids.
	ErrInvalidOptions = exporter.ErrInvalidOptions
	// ErrNotImplemented is returned for output variants that are not built yet.
	ErrNotImplemented = token.ErrNotImplemented
	// ErrUnknownVariant indicates an unknown output variant name.
	ErrUnknownVariant = token.ErrUnknownVariant

	// Category errors

	// ErrUnknownCategory indicates a category missing from the hierarchy.
	ErrUnknownCategory = category.ErrUnknownCategory
)

// StructuralError aborts a build.
type StructuralError = parser.StructuralError

// CellError is a recoverable per-cell import failure.
type CellError = parser.CellError
