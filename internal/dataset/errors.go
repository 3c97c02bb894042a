package dataset

import (
	"errors"
	"fmt"
)

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("missing column")

// ColumnError names the column that could not be found in a source file.
type ColumnError struct {
	Source string
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s: column %q not found", e.Source, e.Column)
}

func (e *ColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// ParseError reports a cell that could not be read as a number.
type ParseError struct {
	Source string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: column %q: cannot parse %q: %v", e.Source, e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
