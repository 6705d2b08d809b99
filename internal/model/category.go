package model

// RecentCategoryID is the id of the synthetic recently-changed category
const RecentCategoryID = "recent"

// Category is one row of the Categories sheet, or the synthetic recent category
type Category struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ShortTitle  string `json:"short_title,omitempty"`
	Description string `json:"description,omitempty"`
	Links       []Link `json:"links"`
	Image       string `json:"image,omitempty"`
}

func (c *Category) Kind() Kind { return KindCategory }

func (c *Category) IDValue(attr string) string {
	if attr == "id" {
		return c.ID
	}
	return ""
}

// IsRecent reports whether c is the synthetic recent category
func (c *Category) IsRecent() bool {
	return c.ID == RecentCategoryID
}
