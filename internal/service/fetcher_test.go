package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjenkins/billtracker/internal/model"
)

func TestFetcherBillIfNeeded(t *testing.T) {
	api := newFakeAPI()
	api.bills["HF 1"] = model.OfficialBillData{BillID: "HF 1", Title: "Clinics"}
	f := NewFetcher(api)
	ctx := context.Background()

	t.Run("fetches once", func(t *testing.T) {
		b := model.NewOfficialBill(model.BillRef{BillID: "HF 1"})

		res, err := f.BillIfNeeded(ctx, b)
		require.NoError(t, err)
		assert.True(t, res.Fetched)
		assert.False(t, res.Cached)
		assert.Equal(t, "Clinics", res.Value.Title)

		res, err = f.BillIfNeeded(ctx, b)
		require.NoError(t, err)
		assert.True(t, res.Cached)
		assert.Equal(t, 1, api.callsFor("HF 1"))
	})

	t.Run("already fetched makes no request", func(t *testing.T) {
		b := model.NewOfficialBill(model.BillRef{BillID: "SF 5"})
		b.Set(model.OfficialBillData{BillID: "SF 5"})

		res, err := f.BillIfNeeded(ctx, b)
		require.NoError(t, err)
		assert.True(t, res.Cached)
		assert.Equal(t, 0, api.callsFor("SF 5"))
	})

	t.Run("failure is returned and retried next time", func(t *testing.T) {
		b := model.NewOfficialBill(model.BillRef{BillID: "HF 404"})

		_, err := f.BillIfNeeded(ctx, b)
		var fetchErr *model.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.False(t, b.IsFetched())

		_, err = f.BillIfNeeded(ctx, b)
		require.Error(t, err)
		assert.Equal(t, 2, api.callsFor("HF 404"))
	})

	t.Run("concurrent callers share one request", func(t *testing.T) {
		api.bills["HF 7"] = model.OfficialBillData{BillID: "HF 7"}
		b := model.NewOfficialBill(model.BillRef{BillID: "HF 7"})

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.BillIfNeeded(ctx, b)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, api.callsFor("HF 7"))
	})
}

func TestFetcherLegislatorIfNeeded(t *testing.T) {
	api := newFakeAPI()
	api.legislators["MNL000001"] = model.LegislatorData{ID: "MNL000001", FullName: "Pat Doe"}
	f := NewFetcher(api)

	l := &model.Legislator{LegID: "MNL000001"}
	for i := 0; i < 2; i++ {
		res, err := f.LegislatorIfNeeded(context.Background(), l)
		require.NoError(t, err)
		assert.Equal(t, "Pat Doe", res.Value.FullName)
	}
	assert.Equal(t, 1, api.legCalls["MNL000001"])
}
