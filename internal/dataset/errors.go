package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumn marks an input without one of the required columns.
	ErrMissingColumn = errors.New("missing required column")
	// ErrInvalidNumber marks a numeric cell that does not parse.
	ErrInvalidNumber = errors.New("invalid number")
	// ErrNegativeValue marks a negative engagement count.
	ErrNegativeValue = errors.New("negative value")
	// ErrUnknownEnum marks a label outside a closed enumeration.
	ErrUnknownEnum = errors.New("unknown enum value")
	// ErrEmptyValue marks a blank required cell.
	ErrEmptyValue = errors.New("empty value")
	// ErrCorruptCell marks a spreadsheet cell whose stored value cannot be
	// resolved, such as a shared-string index past the end of the table.
	ErrCorruptCell = errors.New("corrupt cell")
	// ErrUnsupported indicates a format without a registered reader.
	ErrUnsupported = errors.New("unsupported dataset format")
)

// MissingColumnError lists the required columns absent from a header.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumn, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

// RowError reports a malformed cell. Line is 1-based and counts the header.
type RowError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d, column %s: %v (%q)", e.Line, e.Column, e.Err, e.Value)
}

func (e *RowError) Unwrap() error { return e.Err }
