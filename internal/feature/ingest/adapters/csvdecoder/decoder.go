// Package csvdecoder turns an uploaded CSV file into raw rows keyed by header column.
package csvdecoder

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"chart_backend/internal/feature/ingest/domain/entity"
)

// ErrUndecodable is returned when the input is not well-formed UTF-8 CSV.
var ErrUndecodable = errors.New("csvdecoder: undecodable input")

const bom = "\uFEFF"

// Decoder adapts Decode to the upload usecase.
type Decoder struct{}

// Decode implements usecase.FileDecoder.
func (Decoder) Decode(r io.Reader) (entity.DecodedFile, error) {
	return Decode(r)
}

// Decode reads the whole stream. The first record is the header.
// Rows shorter than the header simply lack the trailing keys; cells beyond the header are dropped.
func Decode(r io.Reader) (entity.DecodedFile, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return entity.DecodedFile{}, fmt.Errorf("%w: missing header row", ErrUndecodable)
		}
		return entity.DecodedFile{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, bom)
		}
		if !utf8.ValidString(h) {
			return entity.DecodedFile{}, fmt.Errorf("%w: header is not valid UTF-8", ErrUndecodable)
		}
		header[i] = strings.TrimSpace(h)
	}

	res := entity.DecodedFile{
		Header:         header,
		Rows:           []entity.RawRow{},
		MissingColumns: missingColumns(header),
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return entity.DecodedFile{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
		}

		row := make(entity.RawRow, len(header))
		for i, cell := range rec {
			if i >= len(header) {
				break
			}
			if !utf8.ValidString(cell) {
				line, _ := cr.FieldPos(i)
				return entity.DecodedFile{}, fmt.Errorf("%w: line %d is not valid UTF-8", ErrUndecodable, line)
			}
			row[header[i]] = cell
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func missingColumns(header []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}
	return entity.MissingColumns(func(col string) bool {
		_, ok := present[col]
		return ok
	})
}
