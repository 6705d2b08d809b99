package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const sheetPlaceholder = "{sheet}"

// CSVSource reads sheets published as CSV. The URL template contains
// {sheet}, replaced by the escaped sheet name.
type CSVSource struct {
	client   *resty.Client
	template string
}

// IsTemplate reports whether u contains the {sheet} placeholder
func IsTemplate(u string) bool {
	return strings.Contains(u, sheetPlaceholder)
}

// NewCSVSource creates a source over a published-CSV URL template
func NewCSVSource(template string) *CSVSource {
	return &CSVSource{
		client:   resty.New().SetTimeout(30 * time.Second),
		template: template,
	}
}

// Rows downloads and parses one sheet
func (s *CSVSource) Rows(ctx context.Context, sheet string) ([]Row, error) {
	u := strings.ReplaceAll(s.template, sheetPlaceholder, url.QueryEscape(sheet))

	resp, err := s.client.R().SetContext(ctx).Get(u)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sheet %s: %w", sheet, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return []Row{}, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch sheet %s: unexpected status code: %d", sheet, resp.StatusCode())
	}

	r := csv.NewReader(strings.NewReader(resp.String()))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse sheet %s: %w", sheet, err)
	}

	return toRows(records), nil
}
