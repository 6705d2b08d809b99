package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/store"
)

// StoredCounts are totals read back from the stored bills and categories
type StoredCounts struct {
	BillsByState map[model.BillState]int `json:"bills_by_state"`
	Bills        int                     `json:"bills"`
	Categories   int                     `json:"categories"`
}

type billCounter interface {
	CountByState(ctx context.Context) (map[model.BillState]int, error)
}

type categoryCounter interface {
	CountCategories(ctx context.Context) (int, error)
}

// MetricsService stores tracker-wide totals
type MetricsService struct {
	db         *sql.DB
	bills      billCounter
	categories categoryCounter
}

// NewMetricsService creates a new MetricsService
func NewMetricsService(db *sql.DB) *MetricsService {
	return &MetricsService{
		db:         db,
		bills:      store.NewBillStore(db),
		categories: store.NewCategoryStore(db),
	}
}

// metricValues flattens a summary into metric name/value pairs. Aggregate
// feed stats are prefixed with "aggregate_".
func metricValues(s *Summary) [][2]string {
	values := [][2]string{
		{"total_bills", strconv.Itoa(s.Bills)},
		{"total_categories", strconv.Itoa(s.Categories)},
		{"with_official_bill", strconv.Itoa(s.WithOfficialBill)},
		{"signed", strconv.Itoa(s.Signed)},
		{"in_conference", strconv.Itoa(s.InConference)},
		{"recently_updated", strconv.Itoa(s.Recent)},
	}
	for _, st := range s.Stats {
		if st.Stat == "" {
			continue
		}
		values = append(values, [2]string{"aggregate_" + st.Stat, st.Value.String()})
	}
	return values
}

// CalculateAndStore appends the summary's totals to the metrics table
func (m *MetricsService) CalculateAndStore(ctx context.Context, s *Summary) error {
	calculatedAt := time.Now()
	for _, v := range metricValues(s) {
		if err := m.storeMetric(ctx, v[0], v[1], calculatedAt); err != nil {
			return err
		}
	}
	return nil
}

// storeMetric stores a single metric value
func (m *MetricsService) storeMetric(ctx context.Context, name, value string, calculatedAt time.Time) error {
	query := `
		INSERT INTO metrics (metric_name, metric_value, calculated_at)
		VALUES ($1, $2, $3)
	`

	_, err := m.db.ExecContext(ctx, query, name, value, calculatedAt)
	if err != nil {
		return fmt.Errorf("failed to store metric %s: %w", name, err)
	}

	return nil
}

// GetLatestMetrics retrieves the most recent value of every metric
func (m *MetricsService) GetLatestMetrics(ctx context.Context) (map[string]string, error) {
	query := `
		SELECT DISTINCT ON (metric_name) metric_name, metric_value
		FROM metrics
		ORDER BY metric_name, calculated_at DESC
	`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics: %w", err)
	}
	defer rows.Close()

	metrics := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		metrics[name] = value
	}

	return metrics, rows.Err()
}

// StoredCounts counts the stored bills by merge state and the stored
// categories
func (m *MetricsService) StoredCounts(ctx context.Context) (*StoredCounts, error) {
	byState, err := m.bills.CountByState(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := m.categories.CountCategories(ctx)
	if err != nil {
		return nil, err
	}

	counts := &StoredCounts{BillsByState: byState, Categories: categories}
	for _, n := range byState {
		counts.Bills += n
	}
	return counts, nil
}
