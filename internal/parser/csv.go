package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// CSVLoader handles CSV files. The whole file is one table whose first
// record is the header row.
type CSVLoader struct{}

func (l *CSVLoader) Load(r io.Reader, filename string) (*doctree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	b := newBuilder(filename, 0)
	rt := rawTable{header: HeaderFirstRowStyle}
	for _, rec := range records {
		row := make([]rawCell, len(rec))
		for i, field := range rec {
			row[i] = rawCell{text: field}
		}
		rt.rows = append(rt.rows, row)
	}
	b.table(rt)
	return b.finish(), nil
}
