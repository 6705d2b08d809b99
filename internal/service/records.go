package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jjenkins/billtracker/internal/config"
	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/sheets"
	"github.com/jjenkins/billtracker/internal/store"
)

// eventDateLayouts are tried in order when parsing an Events sheet date
var eventDateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"1/2/2006 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// SheetData holds the raw rows of the three editorial sheets
type SheetData struct {
	Categories []sheets.Row
	Bills      []sheets.Row
	Events     []sheets.Row
}

// Records is the typed result of a build
type Records struct {
	Categories []*model.Category
	Bills      []*model.EditorialBill
	Events     []model.Event
}

// BuildStats counts what a build kept and dropped
type BuildStats struct {
	Categories         int
	Bills              int
	Events             int
	Truncated          int
	InvalidBillNumbers int
	InvalidRows        int
	Warnings           int
}

// RecordBuilder turns editorial sheet rows into model records registered
// in the repository. It never fails: bad cells are logged and left empty.
type RecordBuilder struct {
	opts      config.Options
	validator *BillNumberValidator
	repo      *store.Repository
	logger    zerolog.Logger
}

// NewRecordBuilder creates a RecordBuilder
func NewRecordBuilder(opts config.Options, repo *store.Repository, logger zerolog.Logger) *RecordBuilder {
	return &RecordBuilder{
		opts:      opts,
		validator: NewBillNumberValidator(opts.BillNumberFormat),
		repo:      repo,
		logger:    logger.With().Str("component", "records").Logger(),
	}
}

// Build translates and parses all three sheets. Rows are modified in place.
func (b *RecordBuilder) Build(data SheetData) (*Records, *BuildStats) {
	stats := &BuildStats{}
	records := &Records{}

	records.Categories = b.buildCategories(data.Categories, stats)

	events := b.buildEvents(data.Events, stats)
	records.Events = events

	byBill := make(map[string][]model.Event)
	for _, e := range events {
		byBill[e.BillKey] = append(byBill[e.BillKey], e)
	}

	rows := data.Bills
	if len(rows) > b.opts.MaxBills {
		stats.Truncated = len(rows) - b.opts.MaxBills
		b.warn().
			Int("rows", len(rows)).
			Int("max_bills", b.opts.MaxBills).
			Msg("Too many bills in sheet, extra rows ignored")
		stats.Warnings++
		rows = rows[:b.opts.MaxBills]
	}

	seen := make(map[string]bool, len(rows))
	for idx, row := range rows {
		bill := b.buildBill(idx, row, byBill, stats)
		if seen[bill.BillKey] {
			b.warn().Int("row", idx+1).Str("bill", bill.BillKey).Msg("Duplicate bill row ignored")
			stats.Warnings++
			stats.InvalidRows++
			continue
		}
		seen[bill.BillKey] = true
		records.Bills = append(records.Bills, bill)
	}
	stats.Bills = len(records.Bills)

	return records, stats
}

func (b *RecordBuilder) warn() *zerolog.Event {
	return b.logger.Warn()
}

func (b *RecordBuilder) buildCategories(rows []sheets.Row, stats *BuildStats) []*model.Category {
	mapping := b.opts.FieldTranslations["categories"]
	categories := make([]*model.Category, 0, len(rows))

	for idx, row := range rows {
		Translate(mapping, row)

		id := strings.TrimSpace(row[config.FieldID])
		if id == "" {
			b.warn().Int("row", idx+1).Msg("Category row has no id, skipping")
			stats.Warnings++
			stats.InvalidRows++
			continue
		}

		key := store.Key{Kind: model.KindCategory, IDAttr: "id", ID: id}
		category := store.GetOrCreate(b.repo, key, func() *model.Category {
			return &model.Category{
				ID:          id,
				Title:       strings.TrimSpace(row[config.FieldTitle]),
				ShortTitle:  strings.TrimSpace(row[config.FieldShortTitle]),
				Description: strings.TrimSpace(row[config.FieldDescription]),
				Links:       ParseLinks(row[config.FieldLinks]),
				Image:       strings.TrimSpace(row[config.FieldImage]),
			}
		})
		categories = append(categories, category)
	}

	stats.Categories = len(categories)
	return categories
}

func (b *RecordBuilder) buildEvents(rows []sheets.Row, stats *BuildStats) []model.Event {
	mapping := b.opts.FieldTranslations["events"]
	events := make([]model.Event, 0, len(rows))

	for idx, row := range rows {
		Translate(mapping, row)

		billKey := strings.TrimSpace(row[config.FieldBill])
		if billKey == "" {
			b.warn().Int("row", idx+1).Msg("Event row has no bill, skipping")
			stats.Warnings++
			stats.InvalidRows++
			continue
		}

		date, ok := parseEventDate(row[config.FieldDate])
		if !ok && strings.TrimSpace(row[config.FieldDate]) != "" {
			b.warn().Int("row", idx+1).Str("bill", billKey).Str("date", row[config.FieldDate]).Msg("Unreadable event date")
			stats.Warnings++
		}

		events = append(events, model.Event{
			BillKey: billKey,
			Actor:   strings.TrimSpace(row[config.FieldChamber]),
			Action:  strings.TrimSpace(row[config.FieldAction]),
			Date:    date,
			Links:   ParseLinks(row[config.FieldLinks]),
			Type:    []string{model.CustomEventType},
		})
	}

	stats.Events = len(events)
	return events
}

func (b *RecordBuilder) buildBill(idx int, row sheets.Row, byBill map[string][]model.Event, stats *BuildStats) *model.EditorialBill {
	Translate(b.opts.FieldTranslations["bills"], row)

	title := strings.TrimSpace(row[config.FieldTitle])
	primary := b.billNumber(idx, row, config.FieldBill, stats)
	companion := b.billNumber(idx, row, config.FieldCompanionBill, stats)
	conference := b.billNumber(idx, row, config.FieldConferenceBill, stats)

	billKey := primary
	if billKey == "" {
		billKey = Slugify(title)
	}
	if billKey == "" {
		billKey = fmt.Sprintf("bill-%d", idx+1)
	}

	key := store.Key{Kind: model.KindBill, IDAttr: "billKey", ID: billKey}
	return store.GetOrCreate(b.repo, key, func() *model.EditorialBill {
		customEvents := byBill[billKey]
		if customEvents == nil {
			customEvents = []model.Event{}
		}
		return &model.EditorialBill{
			BillKey:          billKey,
			Title:            title,
			Description:      strings.TrimSpace(row[config.FieldDescription]),
			CategoryIDs:      ParseCSVList(row[config.FieldCategories]),
			Links:            ParseLinks(row[config.FieldLinks]),
			CustomEvents:     customEvents,
			PrimaryBillID:    primary,
			CompanionBillID:  companion,
			ConferenceBillID: conference,
			HasOfficialBill:  primary != "",
		}
	})
}

// billNumber returns the validated bill number in field, or "" when the
// cell is empty or invalid
func (b *RecordBuilder) billNumber(idx int, row sheets.Row, field string, stats *BuildStats) string {
	raw := strings.TrimSpace(row[field])
	if raw == "" {
		return ""
	}
	if !b.validator.Valid(raw) {
		b.warn().Int("row", idx+1).Str("field", field).Str("value", raw).Msg("Invalid bill number, ignoring")
		stats.Warnings++
		stats.InvalidBillNumbers++
		return ""
	}
	return raw
}

func parseEventDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
