package service

import "github.com/jjenkins/billtracker/internal/sheets"

// Translate renames the columns of row in place. For every canonical name
// the value found under its source column is moved to the canonical key;
// the source key is dropped when the names differ. A missing source column
// leaves the canonical key absent. Every source is read before any key is
// written, so a mapping may swap or chain column names.
func Translate(mapping map[string]string, row sheets.Row) sheets.Row {
	type cell struct {
		value string
		ok    bool
	}

	values := make(map[string]cell, len(mapping))
	for canonical, source := range mapping {
		value, ok := row[source]
		values[canonical] = cell{value: value, ok: ok}
	}

	for canonical, source := range mapping {
		if canonical != source {
			delete(row, source)
		}
	}

	for canonical, c := range values {
		if c.ok {
			row[canonical] = c.value
		} else {
			delete(row, canonical)
		}
	}
	return row
}
