package service

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/store"
)

// CategoryAggregator groups bills by category and builds the synthetic
// recent category
type CategoryAggregator struct {
	repo          *store.Repository
	thresholdDays int
	recentTitle   string
	now           func() time.Time
	logger        zerolog.Logger

	mu          sync.Mutex
	recentBuilt bool
}

// NewCategoryAggregator creates an aggregator. Bills updated fewer than
// thresholdDays days from now count as recent.
func NewCategoryAggregator(repo *store.Repository, thresholdDays int, recentTitle string, logger zerolog.Logger) *CategoryAggregator {
	return &CategoryAggregator{
		repo:          repo,
		thresholdDays: thresholdDays,
		recentTitle:   recentTitle,
		now:           time.Now,
		logger:        logger.With().Str("component", "categories").Logger(),
	}
}

// BillsInCategory returns the bills listing categoryID, in sheet order
func (a *CategoryAggregator) BillsInCategory(categoryID string) []*model.EditorialBill {
	var out []*model.EditorialBill
	for _, b := range store.All[*model.EditorialBill](a.repo, model.KindBill) {
		if b.InCategory(categoryID) {
			out = append(out, b)
		}
	}
	return out
}

// BuildRecent tags recently updated bills with the recent category and
// returns that category. It runs once; later calls return the same
// category without touching any bill. Bills must already be merged.
func (a *CategoryAggregator) BuildRecent() *model.Category {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := store.Key{Kind: model.KindCategory, IDAttr: "id", ID: model.RecentCategoryID}
	recent := store.GetOrCreate(a.repo, key, func() *model.Category {
		return &model.Category{ID: model.RecentCategoryID, Title: a.recentTitle, Links: []model.Link{}}
	})
	if a.recentBuilt {
		return recent
	}

	now := a.now()
	tagged := 0
	for _, b := range store.All[*model.EditorialBill](a.repo, model.KindBill) {
		if !b.HasOfficialBill {
			continue
		}
		updated := b.LastUpdated()
		if updated == nil {
			continue
		}
		if daysBetween(now, *updated) < a.thresholdDays && !b.InCategory(model.RecentCategoryID) {
			b.CategoryIDs = append(b.CategoryIDs, model.RecentCategoryID)
			tagged++
		}
	}

	a.recentBuilt = true
	a.logger.Debug().Int("bills", tagged).Int("threshold_days", a.thresholdDays).Msg("Built recent category")
	return recent
}

// RecentBuilt reports whether BuildRecent has run
func (a *CategoryAggregator) RecentBuilt() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recentBuilt
}

// Reset forgets the recent category so the next BuildRecent tags bills
// again. Used after the bills have been rebuilt from fresh sheets.
func (a *CategoryAggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recentBuilt = false
}

// daysBetween returns the absolute number of whole days between a and b
func daysBetween(a, b time.Time) int {
	days := int(a.Sub(b).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}
