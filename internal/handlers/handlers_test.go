package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjenkins/billtracker/internal/config"
	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/service"
	"github.com/jjenkins/billtracker/internal/sheets"
)

type staticSource map[string][]sheets.Row

func (s staticSource) Rows(ctx context.Context, sheet string) ([]sheets.Row, error) {
	return sheets.Copy(s[sheet]), nil
}

type staticAPI struct {
	bills map[string]model.OfficialBillData
}

func (a staticAPI) FetchBill(ctx context.Context, ref model.BillRef) (model.OfficialBillData, error) {
	data, ok := a.bills[ref.BillID]
	if !ok {
		return model.OfficialBillData{}, &model.FetchError{Resource: "bill", ID: ref.BillID, Status: http.StatusServiceUnavailable}
	}
	return data, nil
}

func (a staticAPI) FetchLegislator(ctx context.Context, legID string) (model.LegislatorData, error) {
	return model.LegislatorData{ID: legID, FullName: "Pat Doe"}, nil
}

type staticHistory struct {
	err error
}

func (s staticHistory) GetByKey(ctx context.Context, billKey string) (*model.StoredBill, error) {
	if s.err != nil {
		return nil, s.err
	}
	if billKey != "HF 1" {
		return nil, nil
	}
	return &model.StoredBill{BillKey: billKey, State: model.StateMerged, Status: json.RawMessage(`{}`)}, nil
}

func (s staticHistory) GetSnapshots(ctx context.Context, billKey string) ([]model.BillSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []model.BillSnapshot{{ID: 1, BillKey: billKey, State: model.StateMerged, Status: json.RawMessage(`{}`)}}, nil
}

func (s staticHistory) GetSnapshotDates(ctx context.Context) ([]time.Time, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []time.Time{
		time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 13, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (s staticHistory) GetCategoryBills(ctx context.Context, categoryID string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	if categoryID != "health" {
		return []string{}, nil
	}
	return []string{"HF 1"}, nil
}

type staticMetrics map[string]string

func (m staticMetrics) GetLatestMetrics(ctx context.Context) (map[string]string, error) {
	return m, nil
}

func (m staticMetrics) StoredCounts(ctx context.Context) (*service.StoredCounts, error) {
	return &service.StoredCounts{
		BillsByState: map[model.BillState]int{model.StateNoOfficialBill: 1},
		Bills:        1,
		Categories:   2,
	}, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	source := staticSource{
		config.SheetCategories: {{"categoryid": "health", "title": "Health"}},
		config.SheetBills: {
			{"bill": "HF 1", "title": "Clinic funding", "categories": `"health"`},
			{"bill": "HF 2", "title": "Broken", "categories": `"broken"`},
		},
	}
	api := staticAPI{bills: map[string]model.OfficialBillData{
		"HF 1": {
			BillID:      "HF 1",
			Chamber:     model.ChamberLower,
			ActionDates: map[string]time.Time{model.MilestonePassedLower: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
			Sponsors:    []model.Sponsor{{LegID: "MNL000001", Name: "Pat Doe"}},
		},
	}}
	tracker := service.NewTracker("mn", "2025-2026", config.DefaultOptions(), source, api, service.NewAggregateClient(""), zerolog.Nop())

	app := fiber.New()
	routes := app.Group("/api")
	routes.Get("/categories", CategoriesHandler(tracker))
	routes.Get("/categories/:id", CategoryDetailHandler(tracker))
	routes.Get("/bills/:key", BillDetailHandler(tracker))
	routes.Get("/bills/:key/history", BillHistoryHandler(staticHistory{}))
	routes.Get("/history/dates", SnapshotDatesHandler(staticHistory{}))
	routes.Get("/history/categories/:id", StoredCategoryHandler(staticHistory{}))
	routes.Get("/summary", SummaryHandler(tracker, staticMetrics{"total_bills": "2"}))
	return app
}

func get(t *testing.T, app *fiber.App, target string) (int, map[string]any) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return resp.StatusCode, out
}

func TestCategoriesHandler(t *testing.T) {
	app := newTestApp(t)

	status, body := get(t, app, "/api/categories")
	assert.Equal(t, http.StatusOK, status)

	categories := body["categories"].([]any)
	require.Len(t, categories, 1)
	assert.Equal(t, "health", categories[0].(map[string]any)["id"])
}

func TestCategoryDetailHandler(t *testing.T) {
	app := newTestApp(t)

	status, body := get(t, app, "/api/categories/health")
	assert.Equal(t, http.StatusOK, status)
	bills := body["bills"].([]any)
	require.Len(t, bills, 1)
	assert.Equal(t, "HF 1", bills[0].(map[string]any)["bill_key"])

	status, body = get(t, app, "/api/categories/taxes")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not found", body["error"])
}

func TestBillDetailHandler(t *testing.T) {
	app := newTestApp(t)

	status, body := get(t, app, "/api/bills/HF%201")
	assert.Equal(t, http.StatusOK, status)

	bill := body["bill"].(map[string]any)
	assert.Equal(t, "HF 1", bill["bill_key"])
	assert.NotNil(t, bill["status"])
	sponsors := body["sponsors"].([]any)
	require.Len(t, sponsors, 1)
	assert.Equal(t, "Pat Doe", sponsors[0].(map[string]any)["full_name"])

	t.Run("unknown bill", func(t *testing.T) {
		status, _ := get(t, app, "/api/bills/HF%20999")
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("upstream failure", func(t *testing.T) {
		status, body := get(t, app, "/api/bills/HF%202")
		assert.Equal(t, http.StatusBadGateway, status)
		assert.Equal(t, "Error loading bill", body["error"])
	})
}

func TestBillHistoryHandler(t *testing.T) {
	app := newTestApp(t)

	status, body := get(t, app, "/api/bills/HF%201/history")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "HF 1", body["bill_key"])
	assert.Equal(t, "merged", body["bill"].(map[string]any)["state"])
	assert.Len(t, body["snapshots"], 1)

	t.Run("bill never imported", func(t *testing.T) {
		status, body := get(t, app, "/api/bills/HF%202/history")
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Bill not imported", body["error"])
	})

	t.Run("database failure", func(t *testing.T) {
		failing := fiber.New()
		failing.Get("/api/bills/:key/history", BillHistoryHandler(staticHistory{err: errors.New("db down")}))
		status, body := get(t, failing, "/api/bills/HF%201/history")
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Error loading history", body["error"])
	})
}

func TestSnapshotDatesHandler(t *testing.T) {
	app := newTestApp(t)

	status, body := get(t, app, "/api/history/dates")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"2025-05-20", "2025-05-13"}, body["dates"])
}

func TestStoredCategoryHandler(t *testing.T) {
	app := newTestApp(t)

	status, body := get(t, app, "/api/history/categories/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "health", body["category_id"])
	assert.Equal(t, []any{"HF 1"}, body["bill_keys"])

	_, body = get(t, app, "/api/history/categories/taxes")
	assert.Equal(t, []any{}, body["bill_keys"])
}

func TestSummaryHandler(t *testing.T) {
	app := newTestApp(t)

	status, body := get(t, app, "/api/summary")
	assert.Equal(t, http.StatusBadGateway, status, "HF 2 cannot be fetched")
	assert.Equal(t, "Error loading summary", body["error"])
}

func TestSummaryHandlerWithStoredMetrics(t *testing.T) {
	source := staticSource{config.SheetBills: {{"title": "Study only"}}}
	tracker := service.NewTracker("mn", "2025-2026", config.DefaultOptions(), source, staticAPI{}, service.NewAggregateClient(""), zerolog.Nop())

	app := fiber.New()
	app.Get("/api/summary", SummaryHandler(tracker, staticMetrics{"total_bills": "1"}))

	status, body := get(t, app, "/api/summary")
	assert.Equal(t, http.StatusOK, status)
	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(1), summary["bills"])
	assert.Equal(t, "1", body["stored_metrics"].(map[string]any)["total_bills"])

	counts := body["stored_counts"].(map[string]any)
	assert.Equal(t, float64(2), counts["categories"])
	assert.Equal(t, float64(1), counts["bills_by_state"].(map[string]any)["no_official_bill"])
}
