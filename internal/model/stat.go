package model

import "encoding/json"

// Stat is one entry of the aggregate counts feed
type Stat struct {
	Stat  string      `json:"stat"`
	Value json.Number `json:"value"`
}
