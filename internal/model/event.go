package model

import "time"

// CustomEventType is the only type an editorial event carries
const CustomEventType = "custom"

// Event is one row of the Events sheet, attached to a bill by BillKey
type Event struct {
	BillKey string    `json:"bill_key"`
	Actor   string    `json:"actor"`
	Action  string    `json:"action"`
	Date    time.Time `json:"date"`
	Links   []Link    `json:"links"`
	Type    []string  `json:"type"`
}

// AsAction converts the event into an action so it can compete with
// official actions for newest-action selection.
func (e Event) AsAction() Action {
	return Action{
		Date:   e.Date,
		Actor:  e.Actor,
		Action: e.Action,
		Type:   e.Type,
		Links:  e.Links,
	}
}
