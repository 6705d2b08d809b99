package service

import (
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/store"
)

// officialBillKey is the identity of an official bill known by its number
func officialBillKey(billID string) store.Key {
	return store.Key{Kind: model.KindOfficialBill, IDAttr: "bill_id", ID: billID}
}

// officialSource is an official bill's data as seen by one merge. ok is
// false when the bill is not referenced or failed to load.
type officialSource struct {
	bill *model.OfficialBill
	data model.OfficialBillData
	ok   bool
}

func (s officialSource) milestone(name string) *time.Time {
	if !s.ok {
		return nil
	}
	return s.data.Milestone(name)
}

func (s officialSource) newestAction() *model.Action {
	if !s.ok {
		return nil
	}
	return s.data.NewestAction()
}

// MergeEngine derives an editorial bill's status from the official bills
// it references
type MergeEngine struct {
	repo       *store.Repository
	substitute *regexp.Regexp
	logger     zerolog.Logger
}

// NewMergeEngine creates a MergeEngine. A nil substitute pattern disables
// substitution detection.
func NewMergeEngine(repo *store.Repository, substitute *regexp.Regexp, logger zerolog.Logger) *MergeEngine {
	return &MergeEngine{
		repo:       repo,
		substitute: substitute,
		logger:     logger.With().Str("component", "merge").Logger(),
	}
}

// Derive computes and attaches the merged status and newest action of b.
// Official bills that are missing or unfetched are logged and skipped, so
// the result may be partial; Derive never fails. Bills without an official
// bill only get a newest action from their custom events.
func (m *MergeEngine) Derive(b *model.EditorialBill) *model.MergedStatus {
	log := m.logger.With().Str("bill", b.BillKey).Logger()

	custom := make([]model.Action, 0, len(b.CustomEvents))
	for _, e := range b.CustomEvents {
		custom = append(custom, e.AsAction())
	}

	if !b.HasOfficialBill {
		b.NewestAction = model.NewestAction(custom)
		return nil
	}

	primary := m.source(log, b.PrimaryBillID, "primary")
	companion := m.source(log, b.CompanionBillID, "companion")
	conference := m.source(log, b.ConferenceBillID, "conference")

	status := &model.MergedStatus{
		BillType: model.BillType{
			Companion:  b.CompanionBillID != "",
			Conference: b.ConferenceBillID != "",
		},
	}

	partial := false
	if !primary.ok {
		partial = true
	} else if !primary.data.HasMilestones() {
		partial = true
		log.Warn().Str("bill_id", b.PrimaryBillID).Msg("Primary official bill has no milestone dates")
	}

	if status.BillType.Companion {
		status.BillType.Substituted = m.isSubstituted(companion) || m.isSubstituted(primary)
		status.IsSubstituted = status.BillType.Substituted
	}

	if !status.BillType.Companion || status.BillType.Substituted {
		status.PassedLower = primary.milestone(model.MilestonePassedLower)
		status.PassedUpper = primary.milestone(model.MilestonePassedUpper)
	} else {
		upper, lower := companion, primary
		if (primary.ok && primary.data.Chamber == model.ChamberUpper) ||
			(companion.ok && companion.data.Chamber == model.ChamberLower) {
			upper, lower = primary, companion
		}
		status.PassedUpper = upper.milestone(model.MilestonePassedUpper)
		status.PassedLower = lower.milestone(model.MilestonePassedLower)
	}

	if status.BillType.Conference {
		confLower := conference.milestone(model.MilestonePassedLower)
		confUpper := conference.milestone(model.MilestonePassedUpper)
		if confLower != nil && confUpper != nil {
			status.PassedConference = later(confLower, confUpper)
		}
		status.Signed = conference.milestone(model.MilestoneSigned)
	} else {
		status.Signed = primary.milestone(model.MilestoneSigned)
	}

	switch {
	case status.BillType.Conference:
		status.LastUpdated = conference.milestone(model.MilestoneLast)
	case status.BillType.Companion && !status.BillType.Substituted:
		status.LastUpdated = later(companion.milestone(model.MilestoneLast), primary.milestone(model.MilestoneLast))
	default:
		status.LastUpdated = primary.milestone(model.MilestoneLast)
	}

	if b.Description == "" && primary.ok {
		b.Description = primary.data.Summary
	}

	candidates := []*model.Action{
		primary.newestAction(),
		companion.newestAction(),
		conference.newestAction(),
		model.NewestAction(custom),
	}
	b.NewestAction = latestAction(candidates)

	if partial {
		mergesTotal.WithLabelValues("partial").Inc()
	} else {
		mergesTotal.WithLabelValues("merged").Inc()
	}

	b.Status = status
	return status
}

// source looks up a referenced official bill. Unfetched bills are logged
// and reported as unavailable.
func (m *MergeEngine) source(log zerolog.Logger, billID, role string) officialSource {
	if billID == "" {
		return officialSource{}
	}

	bill, found := store.Lookup[*model.OfficialBill](m.repo, officialBillKey(billID))
	if !found {
		log.Warn().Str("bill_id", billID).Str("role", role).Msg("Official bill was never requested")
		return officialSource{}
	}

	data, ok := bill.Data()
	if !ok {
		log.Warn().Str("bill_id", billID).Str("role", role).Msg("Official bill failed to load")
		return officialSource{bill: bill}
	}
	return officialSource{bill: bill, data: data, ok: true}
}

func (m *MergeEngine) isSubstituted(s officialSource) bool {
	if !s.ok {
		return false
	}
	return s.bill.Substituted(m.substitute)
}

// later returns the later of two optional dates
func later(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	default:
		return a
	}
}

// latestAction picks the candidate with the greatest unix date; a later
// candidate wins a tie
func latestAction(candidates []*model.Action) *model.Action {
	var newest *model.Action
	for _, a := range candidates {
		if a == nil || a.Date.IsZero() {
			continue
		}
		if newest == nil || a.Date.Unix() >= newest.Date.Unix() {
			newest = a
		}
	}
	return newest
}
