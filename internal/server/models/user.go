// Package models contains plain data records persisted by the server.
// Ownership is expressed through explicit foreign-key fields; scoping is
// always done by passing the owning user id into repository queries.
package models

import "time"

// UserRole is the authorization role of a user account.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

type User struct {
	ID             int64
	Username       string
	Email          string
	HashedPassword string
	Avatar         string
	Confirmed      bool
	Role           UserRole
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
