package entity

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a row was rejected.
type ErrorKind string

const (
	KindMissingDateOrTime   ErrorKind = "MissingDateOrTime"
	KindInvalidDateFormat   ErrorKind = "InvalidDateFormat"
	KindInvalidTimeFormat   ErrorKind = "InvalidTimeFormat"
	KindInvalidTimestamp    ErrorKind = "InvalidTimestamp"
	KindInvalidNumericField ErrorKind = "InvalidNumericField"
	KindMissingSymbol       ErrorKind = "MissingSymbol"
)

// Sentinel errors a RowError unwraps to, one per kind.
var (
	ErrMissingDateOrTime   = errors.New("missing DATE or TIME")
	ErrInvalidDateFormat   = errors.New("invalid date format")
	ErrInvalidTimeFormat   = errors.New("invalid time format")
	ErrInvalidTimestamp    = errors.New("invalid timestamp")
	ErrInvalidNumericField = errors.New("invalid numeric field")
	ErrMissingSymbol       = errors.New("missing symbol")
)

var kindErrors = map[ErrorKind]error{
	KindMissingDateOrTime:   ErrMissingDateOrTime,
	KindInvalidDateFormat:   ErrInvalidDateFormat,
	KindInvalidTimeFormat:   ErrInvalidTimeFormat,
	KindInvalidTimestamp:    ErrInvalidTimestamp,
	KindInvalidNumericField: ErrInvalidNumericField,
	KindMissingSymbol:       ErrMissingSymbol,
}

// RowError describes a rejected input row.
type RowError struct {
	Row     int       `json:"row"` // 1-based position in the input sequence
	Kind    ErrorKind `json:"kind"`
	Column  string    `json:"column,omitempty"`
	Message string    `json:"message"`
	Content string    `json:"content"` // rendered row, for diagnosis
}

// Error formats the row error as a single human-readable line.
func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s (%s)", e.Row, e.Message, e.Content)
}

// Unwrap returns the sentinel error matching the kind, so callers can use errors.Is.
func (e RowError) Unwrap() error {
	return kindErrors[e.Kind]
}
