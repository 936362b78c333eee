package models

import "time"

// Contact belongs to exactly one user; rows cascade-delete with the owner.
type Contact struct {
	ID          int64
	UserID      int64
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Birthday    time.Time
	Note        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
