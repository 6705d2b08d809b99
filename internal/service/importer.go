package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/store"
)

// ImportStats tracks import statistics
type ImportStats struct {
	RunID     string
	Total     int
	Imported  int
	Changed   int
	Unchanged int
	Skipped   int
	Failed    int
}

// billSaver persists one merged bill
type billSaver interface {
	SaveBillWithSnapshot(ctx context.Context, b *model.EditorialBill, runID string, snapshotDate time.Time) (bool, error)
}

// categorySaver persists a category and its bill links
type categorySaver interface {
	UpsertCategory(ctx context.Context, c *model.Category) error
	ReplaceCategoryBills(ctx context.Context, categoryID string, billKeys []string) error
}

// Importer resolves every tracked bill and stores its merged status
type Importer struct {
	tracker    *Tracker
	bills      billSaver
	categories categorySaver
	logger     zerolog.Logger
}

// NewImporter creates a new Importer
func NewImporter(tracker *Tracker, bills *store.BillStore, categories *store.CategoryStore, logger zerolog.Logger) *Importer {
	return newImporter(tracker, bills, categories, logger)
}

func newImporter(tracker *Tracker, bills billSaver, categories categorySaver, logger zerolog.Logger) *Importer {
	return &Importer{
		tracker:    tracker,
		bills:      bills,
		categories: categories,
		logger:     logger.With().Str("component", "importer").Logger(),
	}
}

// Import resolves and stores every bill for snapshotDate. The returned
// summary counts every bill in the sheets, stored or not. Bills whose
// official data fails to load are counted as failed; bills without an
// official bill are skipped.
func (i *Importer) Import(ctx context.Context, snapshotDate time.Time) (*ImportStats, *Summary, error) {
	stats := &ImportStats{RunID: uuid.NewString()}
	log := i.logger.With().Str("run_id", stats.RunID).Logger()

	log.Info().Msg("Loading editorial sheets...")
	if _, err := i.tracker.Load(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to load sheets: %w", err)
	}

	keys, err := i.tracker.BillKeys(ctx)
	if err != nil {
		return nil, nil, err
	}
	stats.Total = len(keys)
	log.Info().Int("bills", stats.Total).Msg("Found bills to process")

	var imported []*model.EditorialBill
	for idx, key := range keys {
		select {
		case <-ctx.Done():
			return stats, nil, ctx.Err()
		default:
		}

		progress := fmt.Sprintf("[%d/%d]", idx+1, stats.Total)

		b, err := i.tracker.ResolveBill(ctx, key)
		if err != nil {
			log.Error().Err(err).Str("bill", key).Msgf("%s Failed to resolve bill", progress)
			stats.Failed++
			continue
		}
		if !b.HasOfficialBill {
			log.Info().Str("bill", key).Msgf("%s Skipping bill (no official bill)", progress)
			stats.Skipped++
			continue
		}

		changed, err := i.bills.SaveBillWithSnapshot(ctx, b, stats.RunID, snapshotDate)
		if err != nil {
			log.Error().Err(err).Str("bill", key).Msgf("%s Failed to save bill", progress)
			stats.Failed++
			continue
		}

		stats.Imported++
		if changed {
			log.Info().Str("bill", key).Str("state", string(b.State())).Msgf("%s Bill changed, snapshot created", progress)
			stats.Changed++
		} else {
			log.Info().Str("bill", key).Msgf("%s Bill unchanged", progress)
			stats.Unchanged++
		}
		imported = append(imported, b)
	}

	recent := i.tracker.BuildRecent()
	for _, r := range recent.Bills {
		for _, b := range imported {
			if b.BillKey == r.BillKey && !b.InCategory(model.RecentCategoryID) {
				b.CategoryIDs = append(b.CategoryIDs, model.RecentCategoryID)
			}
		}
	}

	categories, err := i.saveCategories(ctx, imported)
	if err != nil {
		return stats, nil, err
	}

	all, err := i.tracker.Bills(ctx)
	if err != nil {
		return stats, nil, err
	}
	summary := Summarize(all)
	summary.Categories = categories
	return stats, summary, nil
}

// saveCategories stores every category with the stored bills listed under it
func (i *Importer) saveCategories(ctx context.Context, bills []*model.EditorialBill) (int, error) {
	categories, err := i.tracker.Categories(ctx)
	if err != nil {
		return 0, err
	}

	for _, c := range categories {
		if err := i.categories.UpsertCategory(ctx, c); err != nil {
			return 0, err
		}

		var keys []string
		for _, b := range bills {
			if b.InCategory(c.ID) {
				keys = append(keys, b.BillKey)
			}
		}
		if err := i.categories.ReplaceCategoryBills(ctx, c.ID, keys); err != nil {
			return 0, err
		}
	}

	i.logger.Info().Int("categories", len(categories)).Msg("Saved categories")
	return len(categories), nil
}

// PrintSummary logs the import statistics
func (i *Importer) PrintSummary(stats *ImportStats) {
	successRate := 0.0
	if attempted := stats.Total - stats.Skipped; attempted > 0 {
		successRate = float64(stats.Imported) / float64(attempted) * 100
	}

	i.logger.Info().
		Str("run_id", stats.RunID).
		Int("total", stats.Total).
		Int("imported", stats.Imported).
		Int("changed", stats.Changed).
		Int("unchanged", stats.Unchanged).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Str("success_rate", fmt.Sprintf("%.1f%%", successRate)).
		Msg("Import summary")
}
