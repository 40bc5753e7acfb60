package server

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"sentimen/internal/analytics"
)

var errNoTextColumn = errors.New("no text column found")

// Recognized header names, checked case-insensitively.
var (
	textColumnNames    = []string{"text", "review", "content", "komentar", "ulasan", "comment"}
	productColumnNames = []string{"product", "produk", "nama produk", "product name", "item"}
)

// parseBatchCSV reads an uploaded review CSV into batch records. The text
// column is located by header name, falling back to the first column when
// no header matches. The product column is optional.
func parseBatchCSV(r io.Reader) ([]analytics.BatchRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errNoTextColumn
		}
		return nil, err
	}

	textCol := findColumn(header, textColumnNames)
	if textCol < 0 {
		if len(header) == 0 {
			return nil, errNoTextColumn
		}
		textCol = 0
	}
	productCol := findColumn(header, productColumnNames)

	var records []analytics.BatchRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if textCol >= len(row) {
			continue
		}
		rec := analytics.BatchRecord{Text: row[textCol]}
		if productCol >= 0 && productCol < len(row) {
			rec.Entity = strings.TrimSpace(row[productCol])
		}
		records = append(records, rec)
	}
	return records, nil
}

func findColumn(header []string, names []string) int {
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(col))
		for _, name := range names {
			if col == name {
				return i
			}
		}
	}
	return -1
}
