package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jjenkins/billtracker/internal/config"
	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/sheets"
	"github.com/jjenkins/billtracker/internal/store"
)

// BillDetail is a merged bill with the official records behind it
type BillDetail struct {
	Bill       *model.EditorialBill    `json:"bill"`
	Primary    *model.OfficialBillData `json:"primary,omitempty"`
	Companion  *model.OfficialBillData `json:"companion,omitempty"`
	Conference *model.OfficialBillData `json:"conference,omitempty"`
	Sponsors   []model.LegislatorData  `json:"sponsors"`
}

// CategoryDetail is a category with its merged, sorted bills
type CategoryDetail struct {
	Category *model.Category        `json:"category"`
	Bills    []*model.EditorialBill `json:"bills"`
}

// Summary holds tracker-wide totals
type Summary struct {
	Bills            int          `json:"bills"`
	Categories       int          `json:"categories"`
	WithOfficialBill int          `json:"with_official_bill"`
	Signed           int          `json:"signed"`
	InConference     int          `json:"in_conference"`
	Recent           int          `json:"recent"`
	Stats            []model.Stat `json:"stats,omitempty"`
}

// Tracker wires the editorial sheets and the legislative API together.
// Records and bill state are only touched under one lock; official bills
// are fetched concurrently with that lock released, so a slow upstream
// call never holds up other operations.
type Tracker struct {
	state     string
	session   string
	source    sheets.Source
	aggregate *AggregateClient
	repo      *store.Repository
	builder   *RecordBuilder
	fetcher   *Fetcher
	merge     *MergeEngine
	groups    *CategoryAggregator
	detector  *CompanionDetector
	logger    zerolog.Logger

	mu         sync.Mutex
	records    *Records
	stats      *BuildStats
	generation uint64
}

// NewTracker creates a Tracker for one state legislative session
func NewTracker(state, session string, opts config.Options, source sheets.Source, api LegislatureAPI, aggregate *AggregateClient, logger zerolog.Logger) *Tracker {
	repo := store.NewRepository()
	validator := NewBillNumberValidator(opts.BillNumberFormat)

	return &Tracker{
		state:     state,
		session:   session,
		source:    source,
		aggregate: aggregate,
		repo:      repo,
		builder:   NewRecordBuilder(opts, repo, logger),
		fetcher:   NewFetcher(api),
		merge:     NewMergeEngine(repo, opts.SubstituteMatch, logger),
		groups:    NewCategoryAggregator(repo, opts.RecentChangeThreshold, opts.Translate(model.RecentCategoryID), logger),
		detector:  NewCompanionDetector(opts.DetectCompanionBill, opts.CompanionFunc, validator),
		logger:    logger.With().Str("component", "tracker").Logger(),
	}
}

// Load reads the editorial sheets and builds the records. The records are
// kept until a Generational source reports new rows.
func (t *Tracker) Load(ctx context.Context) (*BuildStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.load(ctx); err != nil {
		return nil, err
	}
	return t.stats, nil
}

// load builds the records on first use and rebuilds them when the source
// has read new rows since. Official bills keep their identity and data
// across a rebuild. Must be called with t.mu held.
func (t *Tracker) load(ctx context.Context) error {
	gen, refreshable := t.source.(sheets.Generational)
	if t.records != nil && !refreshable {
		return nil
	}

	data, err := t.readSheets(ctx)
	if err != nil {
		if t.records != nil {
			t.logger.Warn().Err(err).Msg("Failed to refresh editorial sheets, keeping loaded records")
			return nil
		}
		return err
	}

	if t.records != nil {
		if gen.Generation() == t.generation {
			return nil
		}
		t.repo.Forget(model.KindBill, model.KindCategory)
		t.groups.Reset()
		t.logger.Info().Msg("Editorial sheets changed, rebuilding records")
	}

	t.records, t.stats = t.builder.Build(data)
	if refreshable {
		t.generation = gen.Generation()
	}

	t.logger.Info().
		Int("categories", t.stats.Categories).
		Int("bills", t.stats.Bills).
		Int("events", t.stats.Events).
		Int("warnings", t.stats.Warnings).
		Msg("Loaded editorial sheets")
	return nil
}

// readSheets reads and copies the three editorial sheets
func (t *Tracker) readSheets(ctx context.Context) (SheetData, error) {
	var data SheetData
	reads := []struct {
		sheet string
		dst   *[]sheets.Row
	}{
		{config.SheetCategories, &data.Categories},
		{config.SheetBills, &data.Bills},
		{config.SheetEvents, &data.Events},
	}
	for _, r := range reads {
		rows, err := t.source.Rows(ctx, r.sheet)
		if err != nil {
			return SheetData{}, fmt.Errorf("failed to read %s sheet: %w", r.sheet, err)
		}
		*r.dst = sheets.Copy(rows)
	}
	return data, nil
}

// loadedBills loads the records and returns the current bills in sheet order
func (t *Tracker) loadedBills(ctx context.Context) ([]*model.EditorialBill, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.load(ctx); err != nil {
		return nil, err
	}
	return append([]*model.EditorialBill(nil), t.records.Bills...), nil
}

// Categories returns every category ordered by title, recent last once built
func (t *Tracker) Categories(ctx context.Context) ([]*model.Category, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.load(ctx); err != nil {
		return nil, err
	}

	categories := append([]*model.Category(nil), t.records.Categories...)
	if t.groups.RecentBuilt() {
		categories = append(categories, t.groups.BuildRecent())
	}

	out := make([]*model.Category, 0, len(categories))
	for _, c := range SortCategories(categories) {
		cc := *c
		out = append(out, &cc)
	}
	return out, nil
}

// Category resolves and returns the bills of one category. The recent
// category resolves every bill first.
func (t *Tracker) Category(ctx context.Context, id string) (*CategoryDetail, error) {
	if id == model.RecentCategoryID {
		all, err := t.loadedBills(ctx)
		if err != nil {
			return nil, err
		}
		if err := t.resolve(ctx, all); err != nil {
			return nil, err
		}
		return t.BuildRecent(), nil
	}

	t.mu.Lock()
	if err := t.load(ctx); err != nil {
		t.mu.Unlock()
		return nil, err
	}
	category, ok := store.Lookup[*model.Category](t.repo, store.Key{Kind: model.KindCategory, IDAttr: "id", ID: id})
	var bills []*model.EditorialBill
	if ok {
		bills = t.groups.BillsInCategory(id)
	}
	t.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("category %s: %w", id, model.ErrNotFound)
	}
	if err := t.resolve(ctx, bills); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	cc := *category
	return &CategoryDetail{Category: &cc, Bills: cloneBills(SortBills(bills))}, nil
}

// Bill resolves one bill with its official records and sponsors
func (t *Tracker) Bill(ctx context.Context, billKey string) (*BillDetail, error) {
	b, err := t.resolveBill(ctx, billKey)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	detail := &BillDetail{
		Bill:       b.Clone(),
		Primary:    t.officialData(b.PrimaryBillID),
		Companion:  t.officialData(b.CompanionBillID),
		Conference: t.officialData(b.ConferenceBillID),
		Sponsors:   []model.LegislatorData{},
	}
	t.mu.Unlock()

	if detail.Primary != nil {
		sponsors, err := t.sponsors(ctx, detail.Primary.Sponsors)
		if err != nil {
			return nil, err
		}
		detail.Sponsors = sponsors
	}

	return detail, nil
}

// ResolveBill resolves one bill without its sponsors
func (t *Tracker) ResolveBill(ctx context.Context, billKey string) (*model.EditorialBill, error) {
	b, err := t.resolveBill(ctx, billKey)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return b.Clone(), nil
}

func (t *Tracker) resolveBill(ctx context.Context, billKey string) (*model.EditorialBill, error) {
	t.mu.Lock()
	if err := t.load(ctx); err != nil {
		t.mu.Unlock()
		return nil, err
	}
	b, ok := store.Lookup[*model.EditorialBill](t.repo, store.Key{Kind: model.KindBill, IDAttr: "billKey", ID: billKey})
	t.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("bill %s: %w", billKey, model.ErrNotFound)
	}
	if err := t.resolve(ctx, []*model.EditorialBill{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// BillKeys returns the key of every bill in sheet order
func (t *Tracker) BillKeys(ctx context.Context) ([]string, error) {
	bills, err := t.loadedBills(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(bills))
	for i, b := range bills {
		keys[i] = b.BillKey
	}
	return keys, nil
}

// BuildRecent builds the recent category from the bills merged so far and
// returns it with the bills it holds
func (t *Tracker) BuildRecent() *CategoryDetail {
	t.mu.Lock()
	defer t.mu.Unlock()

	recent := *t.groups.BuildRecent()
	return &CategoryDetail{
		Category: &recent,
		Bills:    cloneBills(SortBills(t.groups.BillsInCategory(model.RecentCategoryID))),
	}
}

// AggregateCounts returns the aggregate counts feed, or nil when no feed
// is configured
func (t *Tracker) AggregateCounts(ctx context.Context) ([]model.Stat, error) {
	return t.aggregate.FetchCounts(ctx)
}

// Bills returns every bill in sheet order as merged so far, without
// fetching anything. Bills that were never resolved have no status.
func (t *Tracker) Bills(ctx context.Context) ([]*model.EditorialBill, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.load(ctx); err != nil {
		return nil, err
	}
	return cloneBills(t.records.Bills), nil
}

// Summary resolves every bill and returns tracker totals plus the
// aggregate counts feed when configured
func (t *Tracker) Summary(ctx context.Context) (*Summary, error) {
	all, err := t.loadedBills(ctx)
	if err != nil {
		return nil, err
	}
	if err := t.resolve(ctx, all); err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.groups.BuildRecent()
	s := Summarize(all)
	s.Categories = len(t.records.Categories)
	t.mu.Unlock()

	stats, err := t.aggregate.FetchCounts(ctx)
	if err != nil {
		return nil, err
	}
	s.Stats = stats
	return s, nil
}

// resolve fetches the official bills behind bills and derives their
// status. Phase one fetches every referenced primary, companion and
// conference bill; phase two, which needs the primary data, detects and
// fetches companions the sheet left out; only then is status derived. A
// failed fetch does not stop its siblings, but its error is returned and
// no status is derived. Bill state is read and written under t.mu; the
// fetches run without it.
func (t *Tracker) resolve(ctx context.Context, bills []*model.EditorialBill) error {
	t.mu.Lock()
	var referenced []string
	for _, b := range bills {
		if !b.HasOfficialBill {
			continue
		}
		for _, id := range []string{b.PrimaryBillID, b.CompanionBillID, b.ConferenceBillID} {
			if id != "" {
				referenced = append(referenced, id)
			}
		}
	}
	t.mu.Unlock()

	if err := t.fetchBills(ctx, referenced); err != nil {
		return fmt.Errorf("failed to load official bills: %w", err)
	}

	t.mu.Lock()
	var companions []string
	for _, b := range bills {
		if !b.HasOfficialBill || b.CompanionBillID != "" {
			continue
		}
		if id, ok := t.detectCompanion(b); ok {
			b.CompanionBillID = id
			companions = append(companions, id)
		}
	}
	t.mu.Unlock()

	if err := t.fetchBills(ctx, companions); err != nil {
		return fmt.Errorf("failed to load companion bills: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, b := range bills {
		t.merge.Derive(b)
	}
	return nil
}

// fetchBills fetches every distinct official bill in billIDs concurrently
// and returns the first error once all have finished
func (t *Tracker) fetchBills(ctx context.Context, billIDs []string) error {
	var g errgroup.Group
	queued := make(map[*model.OfficialBill]bool)
	for _, id := range billIDs {
		ob := t.officialBill(id)
		if queued[ob] {
			continue
		}
		queued[ob] = true
		g.Go(func() error {
			_, err := t.fetcher.BillIfNeeded(ctx, ob)
			return err
		})
	}
	return g.Wait()
}

// detectCompanion looks for a companion in the primary bill's companion list
func (t *Tracker) detectCompanion(b *model.EditorialBill) (string, bool) {
	primary, ok := store.Lookup[*model.OfficialBill](t.repo, officialBillKey(b.PrimaryBillID))
	if !ok {
		return "", false
	}
	data, ok := primary.Data()
	if !ok {
		return "", false
	}

	for _, c := range data.Companions {
		if id, ok := t.detector.Detect(c.BillID); ok && id != b.PrimaryBillID {
			t.logger.Debug().Str("bill", b.BillKey).Str("companion", id).Msg("Detected companion bill")
			return id, true
		}
	}
	return "", false
}

func (t *Tracker) officialBill(billID string) *model.OfficialBill {
	return store.GetOrCreate(t.repo, officialBillKey(billID), func() *model.OfficialBill {
		return model.NewOfficialBill(model.BillRef{State: t.state, Session: t.session, BillID: billID})
	})
}

func (t *Tracker) officialData(billID string) *model.OfficialBillData {
	if billID == "" {
		return nil
	}
	ob, ok := store.Lookup[*model.OfficialBill](t.repo, officialBillKey(billID))
	if !ok {
		return nil
	}
	data, ok := ob.Data()
	if !ok {
		return nil
	}
	return &data
}

// sponsors fetches the legislators behind a bill's sponsors, keeping
// sponsor order. Sponsors without a legislator id are returned by name.
func (t *Tracker) sponsors(ctx context.Context, sponsors []model.Sponsor) ([]model.LegislatorData, error) {
	out := make([]model.LegislatorData, len(sponsors))
	var g errgroup.Group

	for i, s := range sponsors {
		if s.LegID == "" {
			out[i] = model.LegislatorData{FullName: s.Name}
			continue
		}
		leg := store.GetOrCreate(t.repo, store.Key{Kind: model.KindLegislator, IDAttr: "leg_id", ID: s.LegID}, func() *model.Legislator {
			return &model.Legislator{LegID: s.LegID}
		})
		g.Go(func() error {
			res, err := t.fetcher.LegislatorIfNeeded(ctx, leg)
			if err != nil {
				return err
			}
			out[i] = res.Value
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load sponsors: %w", err)
	}
	return out, nil
}

// Summarize counts bills by their merged status. Categories is left zero.
func Summarize(bills []*model.EditorialBill) *Summary {
	s := &Summary{Bills: len(bills)}
	for _, b := range bills {
		if b.HasOfficialBill {
			s.WithOfficialBill++
		}
		if b.Status != nil && b.Status.Signed != nil {
			s.Signed++
		}
		if b.Status != nil && b.Status.BillType.Conference {
			s.InConference++
		}
		if b.InCategory(model.RecentCategoryID) {
			s.Recent++
		}
	}
	return s
}

func cloneBills(bills []*model.EditorialBill) []*model.EditorialBill {
	out := make([]*model.EditorialBill, len(bills))
	for i, b := range bills {
		out[i] = b.Clone()
	}
	return out
}

// IsNotFound reports whether err means an unknown category or bill
func IsNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
