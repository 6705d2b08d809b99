// Package sheets reads the editorial spreadsheet. Each sheet is a list of
// rows keyed by normalized column headers.
package sheets

import (
	"context"
	"strings"
	"unicode"
)

// Row maps a normalized column header to a cell value
type Row map[string]string

// Source reads every row of a named sheet
type Source interface {
	Rows(ctx context.Context, sheet string) ([]Row, error)
}

// Generational is a Source whose rows can change between reads. The
// generation moves every time rows are read from the underlying source,
// so a caller that sees the same generation can keep what it built.
type Generational interface {
	Source
	Generation() uint64
}

// NormalizeHeader lowercases a header and drops every rune that is not a
// letter or digit, so "Companion Bill" becomes "companionbill".
func NormalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// toRows turns a header row plus data rows into Rows. Rows whose cells are
// all blank are skipped; short rows leave trailing columns absent.
func toRows(records [][]string) []Row {
	if len(records) == 0 {
		return []Row{}
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = NormalizeHeader(h)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(headers))
		blank := true
		for i, cell := range record {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			row[headers[i]] = cell
			if strings.TrimSpace(cell) != "" {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows
}
