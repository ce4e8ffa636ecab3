// Package dto defines data transfer objects for the series HTTP API.
package dto

import "chart_backend/internal/feature/ingest/domain/entity"

// Chart views a series can be projected to.
const (
	ViewCandlestick = "candlestick"
	ViewLine        = "line"
)

// CandlePoint is one bar of a candlestick chart.
type CandlePoint struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// LinePoint is one point of a close-price line chart.
type LinePoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// SeriesRes is the response of the series endpoint.
// Points holds []CandlePoint or []LinePoint depending on View.
type SeriesRes struct {
	Symbol  string            `json:"symbol"`
	View    string            `json:"view"`
	Points  any               `json:"points"`
	Volumes map[int64]float64 `json:"volumes"` // keyed by epoch seconds, for hover display
}

// SymbolsRes lists the symbols of a dataset in first-seen order.
type SymbolsRes struct {
	Symbols       []string `json:"symbols"`
	DefaultSymbol string   `json:"default_symbol"`
}

// RowErrorItem describes one rejected input row.
type RowErrorItem struct {
	Row     int    `json:"row"`
	Kind    string `json:"kind"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
	Content string `json:"content"`
}

// ErrorsRes is the response of the row errors endpoint. Total counts every row error,
// even when Errors was truncated by a limit.
type ErrorsRes struct {
	Total  int            `json:"total"`
	Errors []RowErrorItem `json:"errors"`
}

// CandlePoints projects records to candlestick bars, keeping their order.
func CandlePoints(records []entity.Record) []CandlePoint {
	out := make([]CandlePoint, 0, len(records))
	for _, r := range records {
		out = append(out, CandlePoint{Time: r.Time, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close})
	}
	return out
}

// LinePoints projects records to close-price points, keeping their order.
func LinePoints(records []entity.Record) []LinePoint {
	out := make([]LinePoint, 0, len(records))
	for _, r := range records {
		out = append(out, LinePoint{Time: r.Time, Value: r.Close})
	}
	return out
}

// VolumeLookup maps each timestamp to its volume. For duplicate timestamps the later record wins.
func VolumeLookup(records []entity.Record) map[int64]float64 {
	out := make(map[int64]float64, len(records))
	for _, r := range records {
		out[r.Time] = r.Volume
	}
	return out
}

// NewRowErrorItems converts row errors for the response.
func NewRowErrorItems(errs []entity.RowError) []RowErrorItem {
	out := make([]RowErrorItem, 0, len(errs))
	for _, e := range errs {
		out = append(out, RowErrorItem{
			Row:     e.Row,
			Kind:    string(e.Kind),
			Column:  e.Column,
			Message: e.Message,
			Content: e.Content,
		})
	}
	return out
}
