package model

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewestAction(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC) }

	t.Run("latest date wins", func(t *testing.T) {
		got := NewestAction([]Action{
			{Date: day(1), Action: "a"},
			{Date: day(5), Action: "b"},
			{Date: day(3), Action: "c"},
		})
		require.NotNil(t, got)
		assert.Equal(t, "b", got.Action)
	})

	t.Run("later index wins a tie", func(t *testing.T) {
		got := NewestAction([]Action{
			{Date: day(2), Action: "first"},
			{Date: day(2), Action: "second"},
		})
		require.NotNil(t, got)
		assert.Equal(t, "second", got.Action)
	})

	t.Run("undated actions are ignored", func(t *testing.T) {
		assert.Nil(t, NewestAction([]Action{{Action: "undated"}}))
		assert.Nil(t, NewestAction(nil))
	})
}

func TestOfficialBillSubstituted(t *testing.T) {
	match := regexp.MustCompile(`(?i)substituted`)

	b := NewOfficialBill(BillRef{BillID: "SF 10"})
	assert.False(t, b.Substituted(match), "unfetched bill is never substituted")

	b.Set(OfficialBillData{Actions: []Action{{Action: "HF 12 Substituted in lieu"}}})
	assert.True(t, b.Substituted(match))
	assert.False(t, b.Substituted(nil))

	// sticky after the first answer
	b.Set(OfficialBillData{})
	assert.True(t, b.Substituted(match))
}

func TestEditorialBillState(t *testing.T) {
	b := &EditorialBill{BillKey: "a-bill"}
	assert.Equal(t, StateNoOfficialBill, b.State())

	b.HasOfficialBill = true
	assert.Equal(t, StatePending, b.State())

	b.Status = &MergedStatus{}
	assert.Equal(t, StateMerged, b.State())
}
