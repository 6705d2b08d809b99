package model

import (
	"regexp"
	"sync"
	"time"

	"github.com/jjenkins/billtracker/internal/remote"
)

// Milestone names in an official bill's action_dates
const (
	MilestoneFirst       = "first"
	MilestoneLast        = "last"
	MilestonePassedLower = "passed_lower"
	MilestonePassedUpper = "passed_upper"
	MilestoneSigned      = "signed"
)

// Chambers as reported by the legislative API
const (
	ChamberLower = "lower"
	ChamberUpper = "upper"
)

// BillRef locates an official bill. ID is the server-assigned id and wins
// when set; otherwise State, Session and BillID form the lookup key.
type BillRef struct {
	State   string
	Session string
	BillID  string
	ID      string
}

// Action is one entry in an official bill's action history
type Action struct {
	Date   time.Time `json:"date"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Type   []string  `json:"type,omitempty"`
	Links  []Link    `json:"links,omitempty"`
}

// Sponsor is a legislator credited on a bill
type Sponsor struct {
	LegID string `json:"leg_id,omitempty"`
	Name  string `json:"name"`
	Type  string `json:"type"`
}

// Vote is a recorded roll call on a bill
type Vote struct {
	Date       time.Time `json:"date"`
	Chamber    string    `json:"chamber"`
	Motion     string    `json:"motion"`
	YesCount   int       `json:"yes_count"`
	NoCount    int       `json:"no_count"`
	OtherCount int       `json:"other_count"`
	Passed     bool      `json:"passed"`
}

// Source is a page the legislative API scraped the bill from
type Source struct {
	URL string `json:"url"`
}

// Companion is a counterpart bill listed by the legislative API
type Companion struct {
	BillID     string `json:"bill_id"`
	Session    string `json:"session,omitempty"`
	Chamber    string `json:"chamber,omitempty"`
	InternalID string `json:"internal_companion,omitempty"`
}

// OfficialBillData is the payload of one official bill
type OfficialBillData struct {
	ID          string               `json:"id"`
	BillID      string               `json:"bill_id"`
	State       string               `json:"state"`
	Session     string               `json:"session"`
	Title       string               `json:"title"`
	Chamber     string               `json:"chamber"`
	Summary     string               `json:"summary,omitempty"`
	Actions     []Action             `json:"actions"`
	ActionDates map[string]time.Time `json:"action_dates"`
	Sponsors    []Sponsor            `json:"sponsors"`
	Votes       []Vote               `json:"votes"`
	Sources     []Source             `json:"sources"`
	Companions  []Companion          `json:"companions"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Milestone returns the named action date, or nil if it is missing
func (d OfficialBillData) Milestone(name string) *time.Time {
	t, ok := d.ActionDates[name]
	if !ok || t.IsZero() {
		return nil
	}
	return &t
}

// HasMilestones reports whether any milestone date is present
func (d OfficialBillData) HasMilestones() bool {
	for _, t := range d.ActionDates {
		if !t.IsZero() {
			return true
		}
	}
	return false
}

// NewestAction returns the latest dated action, or nil
func (d OfficialBillData) NewestAction() *Action {
	return NewestAction(d.Actions)
}

// NewestAction returns the action with the greatest unix date. On a tie
// the later entry in the slice wins. Undated actions are ignored.
func NewestAction(actions []Action) *Action {
	var newest *Action
	for i := range actions {
		a := &actions[i]
		if a.Date.IsZero() {
			continue
		}
		if newest == nil || a.Date.Unix() >= newest.Date.Unix() {
			newest = a
		}
	}
	if newest == nil {
		return nil
	}
	out := *newest
	return &out
}

// OfficialBill is the cached instance of one official bill
type OfficialBill struct {
	Ref BillRef
	remote.Remote[OfficialBillData]

	subMu       sync.Mutex
	substituted *bool
}

// NewOfficialBill creates an unfetched official bill
func NewOfficialBill(ref BillRef) *OfficialBill {
	return &OfficialBill{Ref: ref}
}

func (b *OfficialBill) Kind() Kind { return KindOfficialBill }

func (b *OfficialBill) IDValue(attr string) string {
	switch attr {
	case "bill_id":
		return b.Ref.BillID
	case "id":
		return b.Ref.ID
	}
	return ""
}

// Data returns the fetched payload and whether it is present
func (b *OfficialBill) Data() (OfficialBillData, bool) {
	return b.Value()
}

// Substituted reports whether any action matches the substitution pattern.
// The first answer computed from fetched data is kept for the life of the
// instance. A nil pattern disables detection.
func (b *OfficialBill) Substituted(match *regexp.Regexp) bool {
	if match == nil {
		return false
	}

	b.subMu.Lock()
	defer b.subMu.Unlock()
	if b.substituted != nil {
		return *b.substituted
	}

	data, ok := b.Value()
	if !ok {
		return false
	}

	found := false
	for _, a := range data.Actions {
		if match.MatchString(a.Action) {
			found = true
			break
		}
	}
	b.substituted = &found
	return found
}
