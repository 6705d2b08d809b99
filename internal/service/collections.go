package service

import (
	"sort"

	"github.com/jjenkins/billtracker/internal/model"
)

// SortBills returns bills ordered by newest action, latest first. Bills
// without a dated newest action follow, ordered by title. Ties keep their
// input order.
func SortBills(bills []*model.EditorialBill) []*model.EditorialBill {
	sorted := make([]*model.EditorialBill, len(bills))
	copy(sorted, bills)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := newestUnix(sorted[i]), newestUnix(sorted[j])
		switch {
		case a != nil && b != nil:
			return *a > *b
		case a != nil:
			return true
		case b != nil:
			return false
		default:
			return sorted[i].Title < sorted[j].Title
		}
	})
	return sorted
}

func newestUnix(b *model.EditorialBill) *int64 {
	if b.NewestAction == nil || b.NewestAction.Date.IsZero() {
		return nil
	}
	u := b.NewestAction.Date.Unix()
	return &u
}

// SortCategories returns categories ordered by title with the recent
// category always last
func SortCategories(categories []*model.Category) []*model.Category {
	sorted := make([]*model.Category, len(categories))
	copy(sorted, categories)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.IsRecent() != b.IsRecent() {
			return b.IsRecent()
		}
		return a.Title < b.Title
	})
	return sorted
}
