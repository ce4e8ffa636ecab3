// Package usecase implements the ingestion pipeline: row validation, normalization and upload handling.
package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"chart_backend/internal/feature/ingest/domain/entity"
)

// timestampLayout is the combined canonical date and time, always read as UTC.
const timestampLayout = "2006-01-02T15:04:05Z"

// numericColumns are validated in this order; the first failure is reported.
var numericColumns = []string{
	entity.ColumnOpen,
	entity.ColumnHigh,
	entity.ColumnLow,
	entity.ColumnClose,
	entity.ColumnVolume,
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithHourOnlyPadding keeps minutes and seconds exactly as given and zero-pads only the hour.
// Older exports were normalized this way; "9:5:00" then fails as an invalid timestamp.
func WithHourOnlyPadding() ParserOption {
	return func(p *Parser) {
		p.hourOnlyPadding = true
	}
}

// Parser turns raw rows into validated records. It holds no state between calls.
type Parser struct {
	hourOnlyPadding bool
}

// NewParser creates a Parser.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse validates and normalizes every row independently.
// A rejected row never aborts the batch: it is recorded in Outcome.Errors and
// contributes neither a record nor a symbol.
func (p *Parser) Parse(rows []entity.RawRow) entity.Outcome {
	out := entity.Outcome{
		Records: make([]entity.Record, 0, len(rows)),
		Symbols: []string{},
		Errors:  []entity.RowError{},
	}
	seen := make(map[string]struct{})

	for i, row := range rows {
		rec, rowErr := p.parseRow(row)
		if rowErr != nil {
			rowErr.Row = i + 1
			rowErr.Content = renderRow(row)
			out.Errors = append(out.Errors, *rowErr)
			continue
		}
		out.Records = append(out.Records, rec)
		if _, ok := seen[rec.Symbol]; !ok {
			seen[rec.Symbol] = struct{}{}
			out.Symbols = append(out.Symbols, rec.Symbol)
		}
	}
	return out
}

func (p *Parser) parseRow(row entity.RawRow) (entity.Record, *entity.RowError) {
	date, okDate := textCell(row, entity.ColumnDate)
	clock, okTime := textCell(row, entity.ColumnTime)
	if !okDate || !okTime {
		return entity.Record{}, rowError(entity.KindMissingDateOrTime, "", "DATE and TIME are required")
	}

	day, err := normalizeDate(date)
	if err != nil {
		return entity.Record{}, rowError(entity.KindInvalidDateFormat, entity.ColumnDate, err.Error())
	}
	hms, err := p.normalizeTime(clock)
	if err != nil {
		return entity.Record{}, rowError(entity.KindInvalidTimeFormat, entity.ColumnTime, err.Error())
	}

	ts, err := time.Parse(timestampLayout, day+"T"+hms+"Z")
	if err != nil {
		return entity.Record{}, rowError(entity.KindInvalidTimestamp, "",
			fmt.Sprintf("%sT%sZ is not a valid UTC timestamp", day, hms))
	}

	var values [5]float64
	for i, col := range numericColumns {
		v, err := numericCell(row, col)
		if err != nil {
			return entity.Record{}, rowError(entity.KindInvalidNumericField, col, fmt.Sprintf("%s %v", col, err))
		}
		values[i] = v
	}
	if values[4] < 0 {
		return entity.Record{}, rowError(entity.KindInvalidNumericField, entity.ColumnVolume,
			fmt.Sprintf("%s must not be negative", entity.ColumnVolume))
	}

	// SYMBOL is kept verbatim; whitespace only decides whether it is missing.
	symbol, _ := rawCell(row, entity.ColumnSymbol)
	if strings.TrimSpace(symbol) == "" {
		return entity.Record{}, rowError(entity.KindMissingSymbol, entity.ColumnSymbol, "SYMBOL is required")
	}

	return entity.Record{
		Symbol: symbol,
		Time:   ts.Unix(),
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}

func rowError(kind entity.ErrorKind, column, msg string) *entity.RowError {
	return &entity.RowError{Kind: kind, Column: column, Message: msg}
}

// normalizeDate rewrites MM-DD-YYYY to YYYY-MM-DD. Anything else with three
// dash-separated parts is assumed to already be YYYY-MM-DD; calendar validity is
// left to the timestamp step.
func normalizeDate(s string) (string, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return "", fmt.Errorf("DATE %q must be MM-DD-YYYY or YYYY-MM-DD", s)
	}
	if len(parts[0]) == 2 {
		month, day, year := parts[0], parts[1], parts[2]
		return year + "-" + month + "-" + day, nil
	}
	return s, nil
}

// normalizeTime checks HH:MM:SS and zero-pads its components.
func (p *Parser) normalizeTime(s string) (string, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("TIME %q must be HH:MM:SS", s)
	}
	parts[0] = padTwo(parts[0])
	if !p.hourOnlyPadding {
		parts[1] = padTwo(parts[1])
		parts[2] = padTwo(parts[2])
	}
	return strings.Join(parts, ":"), nil
}

func padTwo(s string) string {
	if len(s) < 2 {
		return strings.Repeat("0", 2-len(s)) + s
	}
	return s
}

// textCell returns a trimmed, non-empty string cell.
func textCell(row entity.RawRow, col string) (string, bool) {
	s, ok := rawCell(row, col)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// rawCell renders a cell as a string without altering it.
func rawCell(row entity.RawRow, col string) (string, bool) {
	v, ok := row[col]
	if !ok || v == nil {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	default:
		return fmt.Sprint(x), true
	}
}

// numericCell coerces a cell to a finite float64.
// Strings go through strconv.ParseFloat; booleans and other types are rejected.
func numericCell(row entity.RawRow, col string) (float64, error) {
	v, ok := row[col]
	if !ok || v == nil {
		return 0, fmt.Errorf("is missing")
	}

	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", x.String())
		}
		f = parsed
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, fmt.Errorf("is missing")
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", x)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("has unsupported type %T", v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("must be finite, got %v", f)
	}
	return f, nil
}

// renderRow prints the row as COL=value pairs: required columns first, then any extras sorted.
func renderRow(row entity.RawRow) string {
	keys := make([]string, 0, len(row))
	known := make(map[string]struct{}, len(entity.RequiredColumns))
	for _, col := range entity.RequiredColumns {
		known[col] = struct{}{}
		if _, ok := row[col]; ok {
			keys = append(keys, col)
		}
	}
	var extra []string
	for k := range row {
		if _, ok := known[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		v := row[k]
		if v == nil {
			fmt.Fprintf(&b, "%s=null", k)
			continue
		}
		fmt.Fprintf(&b, "%s=%v", k, v)
	}
	return b.String()
}
