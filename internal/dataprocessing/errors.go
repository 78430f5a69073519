package dataprocessing

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownReport is returned when a report name does not match any report table
	ErrUnknownReport = errors.New("unknown report")

	// ErrNoHeader is returned when a table has no header row
	ErrNoHeader = errors.New("table has no header row")

	// ErrInvalidDate marks a date cell that could not be parsed
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidNumber marks a numeric cell that could not be parsed
	ErrInvalidNumber = errors.New("invalid number")

	// ErrMissingValue marks a blank identity field
	ErrMissingValue = errors.New("missing value")
)

// MalformedRowError describes a field that could not be normalized. The row
// is still kept with the field defaulted.
type MalformedRowError struct {
	Row   int    `json:"row"`
	Field Field  `json:"field"`
	Value string `json:"value"`
	Err   error  `json:"-"`
}

func (e *MalformedRowError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("row %d: %s: %v", e.Row, e.Field, e.Err)
	}
	return fmt.Sprintf("row %d: %s %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *MalformedRowError) Unwrap() error {
	return e.Err
}

// MissingReferenceDataError reports a product code absent from the reference
// catalogue. It is surfaced only as an aggregate count.
type MissingReferenceDataError struct {
	Row         int
	ProductCode string
}

func (e *MissingReferenceDataError) Error() string {
	return fmt.Sprintf("row %d: product %q not in reference catalogue", e.Row, e.ProductCode)
}
