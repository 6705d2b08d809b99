package service

import (
	"context"

	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/remote"
)

// Fetcher loads remote records at most once per instance
type Fetcher struct {
	api LegislatureAPI
}

// NewFetcher creates a Fetcher over the legislative API
func NewFetcher(api LegislatureAPI) *Fetcher {
	return &Fetcher{api: api}
}

// BillIfNeeded fetches b unless it has already been fetched, in which
// case no request is made and the result is marked Cached.
func (f *Fetcher) BillIfNeeded(ctx context.Context, b *model.OfficialBill) (remote.Fetched[model.OfficialBillData], error) {
	res, err := b.Resolve(ctx, func(ctx context.Context) (model.OfficialBillData, error) {
		return f.api.FetchBill(ctx, b.Ref)
	})
	countFetch(model.KindOfficialBill, res.Cached, err)
	return res, err
}

// LegislatorIfNeeded fetches l unless it has already been fetched
func (f *Fetcher) LegislatorIfNeeded(ctx context.Context, l *model.Legislator) (remote.Fetched[model.LegislatorData], error) {
	res, err := l.Resolve(ctx, func(ctx context.Context) (model.LegislatorData, error) {
		return f.api.FetchLegislator(ctx, l.LegID)
	})
	countFetch(model.KindLegislator, res.Cached, err)
	return res, err
}

func countFetch(kind model.Kind, cached bool, err error) {
	result := "network"
	switch {
	case err != nil:
		result = "error"
	case cached:
		result = "cached"
	}
	remoteFetchesTotal.WithLabelValues(string(kind), result).Inc()
}
