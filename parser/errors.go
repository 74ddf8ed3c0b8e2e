package parser

import "fmt"

// StructuralError aborts a build: the tree shape would be undefined past it.
type StructuralError struct {
	Line   int
	Column int // 1-based, 0 when the whole row is at fault
	Err    error
}

func (e *StructuralError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// CellError records a cell its importer rejected. The cell is kept in the
// tree as an error token and parsing continues.
type CellError struct {
	Line   int
	Column int
	Stage  int
	Raw    string
	Err    error
}

func (e CellError) Error() string {
	return fmt.Sprintf("line %d, column %d: '%s': %v", e.Line, e.Column, e.Raw, e.Err)
}

func (e CellError) Unwrap() error {
	return e.Err
}
