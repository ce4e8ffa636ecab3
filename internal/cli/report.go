package cli

import (
	"fmt"
	"strings"
	"time"

	"chart_backend/internal/feature/ingest/domain/entity"
	seriesusecase "chart_backend/internal/feature/series/usecase"
)

// cell escapes a value for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// ValidationMarkdown summarizes a parsed dataset and lists up to limit row errors.
// A limit of 0 lists every error.
func ValidationMarkdown(ds *entity.Dataset, limit int) string {
	var b strings.Builder
	out := ds.Outcome

	fmt.Fprintf(&b, "# %s\n\n", cell(ds.FileName))
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Rows | %d |\n", out.RowCount())
	fmt.Fprintf(&b, "| Records | %d |\n", len(out.Records))
	fmt.Fprintf(&b, "| Errors | %d |\n", len(out.Errors))
	fmt.Fprintf(&b, "| Symbols | %s |\n", cell(listOrNone(out.Symbols)))
	fmt.Fprintf(&b, "| Missing columns | %s |\n", listOrNone(ds.MissingColumns))

	if len(out.Errors) == 0 {
		b.WriteString("\nNo row errors.\n")
		return b.String()
	}

	shown := out.Errors
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	b.WriteString("\n## Row errors\n\n| Row | Kind | Column | Message | Content |\n|---|---|---|---|---|\n")
	for _, e := range shown {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n", e.Row, e.Kind, cell(e.Column), cell(e.Message), cell(e.Content))
	}
	if rest := len(out.Errors) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "\n… and %d more.\n", rest)
	}
	return b.String()
}

// SymbolsMarkdown lists symbols in first-seen order with their record counts and time span.
func SymbolsMarkdown(ds *entity.Dataset) string {
	var b strings.Builder
	idx := seriesusecase.BuildIndex(ds.Outcome)

	fmt.Fprintf(&b, "# Symbols in %s\n\n", cell(ds.FileName))
	if len(idx.Symbols()) == 0 {
		b.WriteString("No valid records.\n")
		return b.String()
	}
	b.WriteString("| Symbol | Records | First | Last |\n|---|---|---|---|\n")
	for _, sym := range idx.Symbols() {
		recs := idx.Select(sym)
		fmt.Fprintf(&b, "| %s | %d | %s | %s |\n", cell(sym), len(recs), formatTime(recs[0].Time), formatTime(recs[len(recs)-1].Time))
	}
	return b.String()
}

// SeriesMarkdown renders one symbol's time-ordered records as a table.
func SeriesMarkdown(symbol string, recs []entity.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", cell(symbol))
	if len(recs) == 0 {
		b.WriteString("No records for this symbol.\n")
		return b.String()
	}
	b.WriteString("| Time | Open | High | Low | Close | Volume |\n|---|---|---|---|---|---|\n")
	for _, r := range recs {
		fmt.Fprintf(&b, "| %s | %g | %g | %g | %g | %g |\n", formatTime(r.Time), r.Open, r.High, r.Low, r.Close, r.Volume)
	}
	return b.String()
}

func formatTime(epoch int64) string {
	return time.Unix(epoch, 0).UTC().Format("2006-01-02 15:04:05")
}
