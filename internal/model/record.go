package model

// Kind names a record type held in the identity map
type Kind string

const (
	KindBill         Kind = "Bill"
	KindCategory     Kind = "Category"
	KindOfficialBill Kind = "OfficialBill"
	KindLegislator   Kind = "Legislator"
)

// Record is implemented by every model the tracker caches by identity:
// *EditorialBill, *Category, *OfficialBill and *Legislator.
type Record interface {
	Kind() Kind
	// IDValue returns the value of the named id attribute, or "" if the
	// record has no such attribute.
	IDValue(attr string) string
}

// Link is a titled URL parsed from a spreadsheet cell
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}
