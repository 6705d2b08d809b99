package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjenkins/billtracker/internal/config"
	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/sheets"
	"github.com/jjenkins/billtracker/internal/store"
)

func buildRecords(t *testing.T, opts config.Options, data SheetData) (*Records, *BuildStats, *store.Repository, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	repo := store.NewRepository()
	records, stats := NewRecordBuilder(opts, repo, captureLogger(&buf)).Build(data)
	return records, stats, repo, &buf
}

func TestRecordBuilderBuild(t *testing.T) {
	data := SheetData{
		Categories: []sheets.Row{
			{"categoryid": "health", "title": "Health", "links": `"Info|http://info"`},
			{"categoryid": "", "title": "No id"},
		},
		Bills: []sheets.Row{
			{"bill": "HF 1", "title": "Clinic funding", "categories": `"health", "budget"`, "companionbill": "SF 2"},
			{"bill": "", "title": "Study on roads"},
			{"bill": "bogus", "title": "Bad number", "conferencebill": "CC 3"},
		},
		Events: []sheets.Row{
			{"bill": "HF 1", "chamber": "House", "action": "Rally", "date": "2025-03-01"},
		},
	}

	records, stats, repo, buf := buildRecords(t, config.DefaultOptions(), data)

	require.Len(t, records.Categories, 1)
	assert.Equal(t, "health", records.Categories[0].ID)
	assert.Equal(t, []model.Link{{Title: "Info", URL: "http://info"}}, records.Categories[0].Links)

	require.Len(t, records.Bills, 3)

	hf1 := records.Bills[0]
	assert.Equal(t, "HF 1", hf1.BillKey)
	assert.True(t, hf1.HasOfficialBill)
	assert.Equal(t, "SF 2", hf1.CompanionBillID)
	assert.Equal(t, []string{"health", "budget"}, hf1.CategoryIDs)
	require.Len(t, hf1.CustomEvents, 1)
	assert.Equal(t, "Rally", hf1.CustomEvents[0].Action)
	assert.Equal(t, []string{model.CustomEventType}, hf1.CustomEvents[0].Type)

	roads := records.Bills[1]
	assert.Equal(t, "study-on-roads", roads.BillKey)
	assert.False(t, roads.HasOfficialBill)
	assert.NotNil(t, roads.CustomEvents)
	assert.Empty(t, roads.CustomEvents)

	bad := records.Bills[2]
	assert.Equal(t, "bad-number", bad.BillKey)
	assert.False(t, bad.HasOfficialBill)
	assert.Equal(t, "CC 3", bad.ConferenceBillID, "conference id validates independently")

	assert.Equal(t, 1, stats.InvalidBillNumbers)
	assert.Equal(t, 1, stats.InvalidRows)
	assert.Equal(t, 2, countWarnings(buf))

	got, ok := store.Lookup[*model.EditorialBill](repo, store.Key{Kind: model.KindBill, IDAttr: "billKey", ID: "HF 1"})
	require.True(t, ok)
	assert.Same(t, hf1, got)
}

func TestRecordBuilderTruncatesBills(t *testing.T) {
	opts := config.DefaultOptions()
	opts.MaxBills = 2

	data := SheetData{Bills: []sheets.Row{
		{"bill": "HF 1"}, {"bill": "HF 2"}, {"bill": "HF 3"}, {"bill": "HF 4"}, {"bill": "HF 5"},
	}}

	records, stats, _, buf := buildRecords(t, opts, data)

	require.Len(t, records.Bills, 2)
	assert.Equal(t, "HF 1", records.Bills[0].BillKey)
	assert.Equal(t, "HF 2", records.Bills[1].BillKey)
	assert.Equal(t, 3, stats.Truncated)
	assert.Equal(t, 1, countWarnings(buf))
}

func TestRecordBuilderDuplicateBills(t *testing.T) {
	data := SheetData{Bills: []sheets.Row{
		{"bill": "HF 1", "title": "First"},
		{"bill": "HF 1", "title": "Second"},
	}}

	records, _, _, buf := buildRecords(t, config.DefaultOptions(), data)

	require.Len(t, records.Bills, 1)
	assert.Equal(t, "First", records.Bills[0].Title)
	assert.Equal(t, 1, countWarnings(buf))
}

func TestRecordBuilderFallbackKey(t *testing.T) {
	data := SheetData{Bills: []sheets.Row{{"description": "untitled"}}}

	records, _, _, _ := buildRecords(t, config.DefaultOptions(), data)

	require.Len(t, records.Bills, 1)
	assert.Equal(t, "bill-1", records.Bills[0].BillKey)
}

func TestParseEventDate(t *testing.T) {
	for _, raw := range []string{"2025-03-01", "3/1/2025", "03/01/2025", "2025-03-01T00:00:00Z"} {
		got, ok := parseEventDate(raw)
		require.True(t, ok, raw)
		assert.Equal(t, date(2025, 3, 1), got.UTC(), raw)
	}

	_, ok := parseEventDate("soon")
	assert.False(t, ok)
}
