// Package usecase はデータセットから銘柄別の時系列を取り出す処理を実装します。
package usecase

import (
	"cmp"
	"slices"

	"chart_backend/internal/feature/ingest/domain/entity"
)

// Index is a per-symbol view of an outcome's records, each bucket ordered by ascending time.
// It is derived data: rebuild it whenever the outcome changes.
type Index struct {
	buckets map[string][]entity.Record
	symbols []string
}

// BuildIndex partitions records by symbol. Records with equal timestamps keep their input order.
// The outcome is not modified.
func BuildIndex(outcome entity.Outcome) *Index {
	idx := &Index{
		buckets: make(map[string][]entity.Record, len(outcome.Symbols)),
		symbols: slices.Clone(outcome.Symbols),
	}
	if idx.symbols == nil {
		idx.symbols = []string{}
	}

	for _, rec := range outcome.Records {
		idx.buckets[rec.Symbol] = append(idx.buckets[rec.Symbol], rec)
	}
	for _, bucket := range idx.buckets {
		slices.SortStableFunc(bucket, func(a, b entity.Record) int {
			return cmp.Compare(a.Time, b.Time)
		})
	}
	return idx
}

// Select returns the time-ordered records for symbol, or an empty slice if it is absent.
// The caller owns the returned slice.
func (idx *Index) Select(symbol string) []entity.Record {
	bucket, ok := idx.buckets[symbol]
	if !ok {
		return []entity.Record{}
	}
	return slices.Clone(bucket)
}

// Symbols returns the symbols in the order they were first seen.
func (idx *Index) Symbols() []string {
	return slices.Clone(idx.symbols)
}
