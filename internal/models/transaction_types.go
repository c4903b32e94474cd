package models

import "time"

// Transaction Model
// Transactions keep the snake_case wire names of the original schema. They
// are append-only: no update or delete path exists, and item_id carries a
// UNIQUE constraint so an item sells at most once.
type Transaction struct {
	ID              string    `json:"id" db:"id"`
	ItemID          string    `json:"item_id" db:"item_id"`
	BuyerID         int64     `json:"buyer_id" db:"buyer_id"`
	SellerID        int64     `json:"seller_id" db:"seller_id"`
	Price           float64   `json:"price" db:"price"`
	TransactionDate string    `json:"transaction_date" db:"transaction_date"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
