package model

import "github.com/jjenkins/billtracker/internal/remote"

// LegislatorData is the payload of one legislator
type LegislatorData struct {
	ID        string `json:"leg_id"`
	FullName  string `json:"full_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Party     string `json:"party"`
	Chamber   string `json:"chamber"`
	District  string `json:"district"`
	PhotoURL  string `json:"photo_url,omitempty"`
	URL       string `json:"url,omitempty"`
	Active    bool   `json:"active"`
}

// Legislator is the cached instance of one legislator
type Legislator struct {
	LegID string
	remote.Remote[LegislatorData]
}

func (l *Legislator) Kind() Kind { return KindLegislator }

func (l *Legislator) IDValue(attr string) string {
	if attr == "leg_id" {
		return l.LegID
	}
	return ""
}
