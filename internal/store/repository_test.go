package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjenkins/billtracker/internal/model"
)

func TestGetOrCreate(t *testing.T) {
	repo := NewRepository()
	key := Key{Kind: model.KindBill, IDAttr: "billKey", ID: "HF1"}

	builds := 0
	create := func() *model.EditorialBill {
		builds++
		return &model.EditorialBill{BillKey: "HF1"}
	}

	first := GetOrCreate(repo, key, create)
	second := GetOrCreate(repo, key, create)

	assert.Same(t, first, second)
	assert.Equal(t, 1, builds)
	assert.Equal(t, 1, repo.Len())

	got, ok := Lookup[*model.EditorialBill](repo, key)
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestGetOrCreateKeysIncludeAttribute(t *testing.T) {
	repo := NewRepository()

	a := GetOrCreate(repo, Key{Kind: model.KindOfficialBill, IDAttr: "bill_id", ID: "HF 1"}, func() *model.OfficialBill {
		return model.NewOfficialBill(model.BillRef{BillID: "HF 1"})
	})
	b := GetOrCreate(repo, Key{Kind: model.KindOfficialBill, IDAttr: "id", ID: "HF 1"}, func() *model.OfficialBill {
		return model.NewOfficialBill(model.BillRef{ID: "HF 1"})
	})

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, repo.Len())
}

func TestGetOrCreateConcurrent(t *testing.T) {
	repo := NewRepository()
	key := Key{Kind: model.KindCategory, IDAttr: "id", ID: "education"}

	var wg sync.WaitGroup
	results := make([]*model.Category, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = GetOrCreate(repo, key, func() *model.Category {
				return &model.Category{ID: "education"}
			})
		}(i)
	}
	wg.Wait()

	for _, c := range results {
		assert.Same(t, results[0], c)
	}
	assert.Len(t, All[*model.Category](repo, model.KindCategory), 1)
}

func TestAllKeepsInsertionOrder(t *testing.T) {
	repo := NewRepository()
	for _, id := range []string{"b", "a", "c"} {
		id := id
		GetOrCreate(repo, Key{Kind: model.KindCategory, IDAttr: "id", ID: id}, func() *model.Category {
			return &model.Category{ID: id}
		})
	}

	var ids []string
	for _, c := range All[*model.Category](repo, model.KindCategory) {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
	assert.Empty(t, All[*model.EditorialBill](repo, model.KindBill))
}

func TestForget(t *testing.T) {
	repo := NewRepository()
	billKey := Key{Kind: model.KindBill, IDAttr: "billKey", ID: "HF1"}
	officialKey := Key{Kind: model.KindOfficialBill, IDAttr: "bill_id", ID: "HF 1"}

	bill := GetOrCreate(repo, billKey, func() *model.EditorialBill {
		return &model.EditorialBill{BillKey: "HF1", Title: "old"}
	})
	official := GetOrCreate(repo, officialKey, func() *model.OfficialBill {
		return model.NewOfficialBill(model.BillRef{BillID: "HF 1"})
	})

	repo.Forget(model.KindBill)

	_, ok := Lookup[*model.EditorialBill](repo, billKey)
	assert.False(t, ok)
	assert.Empty(t, All[*model.EditorialBill](repo, model.KindBill))

	kept, ok := Lookup[*model.OfficialBill](repo, officialKey)
	require.True(t, ok)
	assert.Same(t, official, kept)

	rebuilt := GetOrCreate(repo, billKey, func() *model.EditorialBill {
		return &model.EditorialBill{BillKey: "HF1", Title: "new"}
	})
	assert.NotSame(t, bill, rebuilt)
	assert.Equal(t, "new", rebuilt.Title)
}
