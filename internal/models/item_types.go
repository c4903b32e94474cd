package models

import "time"

// ItemState mirrors the `state` enum on the items table.
type ItemState string

const (
	ItemStateAvailable ItemState = "available"
	ItemStateReserved  ItemState = "reserved"
	ItemStateSold      ItemState = "sold"
)

// MaxItemImages caps the images array per item.
const MaxItemImages = 5

// Item Model
// Items keep the camelCase column names of the original schema (userId,
// publishDate), so the JSON names and DB columns line up 1:1.
type Item struct {
	ID          string    `json:"id" db:"id"`
	UserID      int64     `json:"userId" db:"userId"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Category    string    `json:"category" db:"category"`
	Location    string    `json:"location" db:"location"`
	State       ItemState `json:"state" db:"state"`
	Condition   int       `json:"condition" db:"condition"`
	PublishDate string    `json:"publishDate" db:"publishDate"`
	Images      []string  `json:"images" db:"images"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CanBeUpdated reports whether update calls may touch this item.
// Sold items are immutable.
func (i *Item) CanBeUpdated() bool {
	return i.State != ItemStateSold
}

// IsListable reports whether the item shows up in listings and search.
func (i *Item) IsListable() bool {
	return i.State == ItemStateAvailable || i.State == ItemStateReserved
}

// SearchableItemColumns is the whitelist for search filters and ordering.
// Scalar columns only: images is a JSON array and cannot be compared to a
// filter value.
var SearchableItemColumns = map[string]bool{
	"userId":      true,
	"title":       true,
	"description": true,
	"price":       true,
	"category":    true,
	"location":    true,
	"state":       true,
	"condition":   true,
	"publishDate": true,
}
