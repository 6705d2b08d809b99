package service

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/sheets"
)

// fakeAPI serves official bills and legislators from memory and counts calls
type fakeAPI struct {
	mu          sync.Mutex
	bills       map[string]model.OfficialBillData
	legislators map[string]model.LegislatorData
	fail        map[string]error
	billCalls   map[string]int
	legCalls    map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		bills:       make(map[string]model.OfficialBillData),
		legislators: make(map[string]model.LegislatorData),
		fail:        make(map[string]error),
		billCalls:   make(map[string]int),
		legCalls:    make(map[string]int),
	}
}

func (f *fakeAPI) FetchBill(ctx context.Context, ref model.BillRef) (model.OfficialBillData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.billCalls[ref.BillID]++
	if err, ok := f.fail[ref.BillID]; ok {
		return model.OfficialBillData{}, err
	}
	data, ok := f.bills[ref.BillID]
	if !ok {
		return model.OfficialBillData{}, &model.FetchError{Resource: "bill", ID: ref.BillID, Status: 404}
	}
	return data, nil
}

func (f *fakeAPI) FetchLegislator(ctx context.Context, legID string) (model.LegislatorData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.legCalls[legID]++
	data, ok := f.legislators[legID]
	if !ok {
		return model.LegislatorData{}, &model.FetchError{Resource: "legislator", ID: legID, Status: 404}
	}
	return data, nil
}

func (f *fakeAPI) totalBillCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.billCalls {
		n += c
	}
	return n
}

func (f *fakeAPI) callsFor(billID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.billCalls[billID]
}

// memSource serves fixed sheet rows
type memSource map[string][]sheets.Row

func (m memSource) Rows(ctx context.Context, sheet string) ([]sheets.Row, error) {
	return sheets.Copy(m[sheet]), nil
}

// captureLogger returns a logger writing JSON lines into buf
func captureLogger(buf *bytes.Buffer) zerolog.Logger {
	return zerolog.New(buf)
}

// countWarnings counts warn-level lines written to buf
func countWarnings(buf *bytes.Buffer) int {
	return strings.Count(buf.String(), `"level":"warn"`)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
