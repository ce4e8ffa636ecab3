// Package entity defines the domain models for the ingest feature.
package entity

// Column names of the uploaded CSV header. Matching is case-sensitive.
const (
	ColumnDate   = "DATE"
	ColumnTime   = "TIME"
	ColumnSymbol = "SYMBOL"
	ColumnOpen   = "OPEN"
	ColumnHigh   = "HIGH"
	ColumnLow    = "LOW"
	ColumnClose  = "CLOSE"
	ColumnVolume = "VOLUME"
)

// RequiredColumns lists the header columns a source file must name, in header order.
var RequiredColumns = []string{
	ColumnDate, ColumnTime, ColumnSymbol,
	ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume,
}

// RawRow maps a column name to an untrusted cell value as it was decoded.
// A cell may be a string (CSV), a JSON number, nil, or be missing entirely.
type RawRow map[string]any

// Record is one validated OHLCV row.
// It is only ever built from a row that passed every check.
type Record struct {
	Symbol string  `json:"symbol"`
	Time   int64   `json:"time"` // epoch seconds, UTC
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Outcome is the result of parsing one batch of rows.
//
// Records keep input row order. Symbols holds each distinct symbol once, in the
// order it first appears among accepted rows. Errors keep input row order too.
type Outcome struct {
	Records []Record   `json:"records"`
	Symbols []string   `json:"symbols"`
	Errors  []RowError `json:"errors"`
}

// RowCount returns the number of input rows the outcome was built from.
func (o Outcome) RowCount() int {
	return len(o.Records) + len(o.Errors)
}

// DecodedFile is an uploaded file split into raw rows.
// Cells are kept as strings; typing is left to the parser.
type DecodedFile struct {
	Header         []string
	Rows           []RawRow
	MissingColumns []string // required columns absent from Header, in canonical order
}

// MissingColumns returns the required columns for which has reports false, in canonical order.
func MissingColumns(has func(col string) bool) []string {
	missing := []string{}
	for _, col := range RequiredColumns {
		if !has(col) {
			missing = append(missing, col)
		}
	}
	return missing
}
