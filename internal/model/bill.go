package model

import (
	"slices"
	"time"
)

// BillState is the merge state of an editorial bill
type BillState string

const (
	StateNoOfficialBill BillState = "no_official_bill"
	StatePending        BillState = "pending"
	StateMerged         BillState = "merged"
)

// EditorialBill is one row of the Bills sheet after translation. It may
// reference up to three official bills: primary, companion and conference.
type EditorialBill struct {
	BillKey          string   `json:"bill_key"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	CategoryIDs      []string `json:"categories"`
	Links            []Link   `json:"links"`
	CustomEvents     []Event  `json:"custom_events"`
	PrimaryBillID    string   `json:"primary_bill_id,omitempty"`
	CompanionBillID  string   `json:"companion_bill_id,omitempty"`
	ConferenceBillID string   `json:"conference_bill_id,omitempty"`
	HasOfficialBill  bool     `json:"has_official_bill"`

	// Set by the merge engine
	Status       *MergedStatus `json:"status,omitempty"`
	NewestAction *Action       `json:"newest_action,omitempty"`
}

func (b *EditorialBill) Kind() Kind { return KindBill }

func (b *EditorialBill) IDValue(attr string) string {
	switch attr {
	case "billKey":
		return b.BillKey
	case "bill":
		return b.PrimaryBillID
	}
	return ""
}

// State reports where the bill is in the merge lifecycle
func (b *EditorialBill) State() BillState {
	switch {
	case !b.HasOfficialBill:
		return StateNoOfficialBill
	case b.Status == nil:
		return StatePending
	default:
		return StateMerged
	}
}

// InCategory reports whether categoryID is listed on the bill
func (b *EditorialBill) InCategory(categoryID string) bool {
	for _, id := range b.CategoryIDs {
		if id == categoryID {
			return true
		}
	}
	return false
}

// LastUpdated returns the merged last-updated date, or nil
func (b *EditorialBill) LastUpdated() *time.Time {
	if b.Status == nil {
		return nil
	}
	return b.Status.LastUpdated
}

// BillType flags which official bills shaped the merged status
type BillType struct {
	Companion   bool `json:"companion"`
	Conference  bool `json:"conference"`
	Substituted bool `json:"substituted"`
}

// MergedStatus is derived from the official bills referenced by an
// editorial bill. A nil date means the milestone has not happened.
type MergedStatus struct {
	PassedLower      *time.Time `json:"passed_lower,omitempty"`
	PassedUpper      *time.Time `json:"passed_upper,omitempty"`
	PassedConference *time.Time `json:"passed_conference,omitempty"`
	Signed           *time.Time `json:"signed,omitempty"`
	LastUpdated      *time.Time `json:"last_updated,omitempty"`
	IsSubstituted    bool       `json:"is_substituted"`
	BillType         BillType   `json:"bill_type"`
}

// Clone returns a copy of b that shares no slices or pointers with it
func (b *EditorialBill) Clone() *EditorialBill {
	out := *b
	out.CategoryIDs = slices.Clone(b.CategoryIDs)
	out.Links = slices.Clone(b.Links)
	out.CustomEvents = slices.Clone(b.CustomEvents)
	if b.Status != nil {
		s := *b.Status
		out.Status = &s
	}
	if b.NewestAction != nil {
		a := *b.NewestAction
		out.NewestAction = &a
	}
	return &out
}
