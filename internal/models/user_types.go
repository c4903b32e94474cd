package models

import "time"

// User Model
// Country, address and zip code are kept out of API responses, as are the
// soft-delete flag and timestamps.
type User struct {
	ID                 int64  `json:"id" db:"id"`
	Name               string `json:"name" db:"name"`
	LastName           string `json:"lastName" db:"lastName"`
	Email              string `json:"email" db:"email"`
	Phone              string `json:"phone" db:"phone"`
	ShowPhone          bool   `json:"showPhone" db:"showPhone"`
	ProfileDescription string `json:"profileDescription" db:"profileDescription"`
	City               string `json:"city" db:"city"`
	State              string `json:"state" db:"state"`
	Country            string `json:"-" db:"country"`
	Address            string `json:"-" db:"address"`
	ZipCode            string `json:"-" db:"zipCode"`
	IsAdmin            bool   `json:"isAdmin" db:"isAdmin"`
	IsDeleted          bool   `json:"-" db:"isDeleted"`

	CreatedAt time.Time `json:"-" db:"created_at"`
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

// IsActive reports whether the user should appear in active listings.
// Soft-deleted users stay in storage for transaction history.
func (u *User) IsActive() bool {
	return !u.IsDeleted
}
