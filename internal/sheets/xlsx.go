package sheets

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads sheets from a local workbook
type XLSXSource struct {
	path string
}

// NewXLSXSource creates a source over the workbook at path
func NewXLSXSource(path string) *XLSXSource {
	return &XLSXSource{path: path}
}

// Rows returns the rows of sheet. A sheet missing from the workbook has no rows.
func (s *XLSXSource) Rows(ctx context.Context, sheet string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", s.path, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return []Row{}, nil
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	return toRows(records), nil
}
