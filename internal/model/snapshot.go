package model

import (
	"encoding/json"
	"time"
)

// StoredBill is the current persisted merged state of an editorial bill
type StoredBill struct {
	BillKey          string          `json:"bill_key"`
	Title            string          `json:"title"`
	PrimaryBillID    string          `json:"primary_bill_id"`
	CompanionBillID  string          `json:"companion_bill_id,omitempty"`
	ConferenceBillID string          `json:"conference_bill_id,omitempty"`
	State            BillState       `json:"state"`
	Status           json.RawMessage `json:"status"`
	Checksum         string          `json:"checksum"`
	LastUpdated      *time.Time      `json:"last_updated,omitempty"`
	FetchedAt        time.Time       `json:"fetched_at"`
}

// BillSnapshot is a point-in-time record of a bill's merged state
type BillSnapshot struct {
	ID           int             `json:"id"`
	BillKey      string          `json:"bill_key"`
	RunID        string          `json:"run_id"`
	State        BillState       `json:"state"`
	Status       json.RawMessage `json:"status"`
	Checksum     string          `json:"checksum"`
	LastUpdated  *time.Time      `json:"last_updated,omitempty"`
	SnapshotDate time.Time       `json:"snapshot_date"`
	CreatedAt    time.Time       `json:"created_at"`
}
