package parser

import "errors"

// Sentinel errors - structural, they abort the build
var (
	ErrHeaderRedeclared = errors.New("voice header declared twice")
	ErrColumnMismatch   = errors.New("column count does not match open spine paths")
	ErrNoVoiceAncestor  = errors.New("column has no voice header ancestor")
	ErrMissingHeader    = errors.New("missing voice header")
	ErrEmptyImport      = errors.New("importer returned no token")
)
