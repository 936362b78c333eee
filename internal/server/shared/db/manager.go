// Package db owns the database lifecycle: opening the connection via the
// pgx stdlib driver, running the embedded migrations and handing out the
// repositories built on top of the shared *sql.DB.
package db

import (
	"context"
	"database/sql"

	"contactbook/internal/server/contacts"
	"contactbook/internal/server/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	Contacts() contacts.Repository
	Close() error
}
