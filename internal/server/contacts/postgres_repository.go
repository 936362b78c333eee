// Package contacts provides per-user contact persistence and the queries
// built on it: pagination, substring search and upcoming-birthday lookups.
package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"contactbook/internal/common"
	"contactbook/internal/dbx"
	"contactbook/internal/server/models"
)

// PostgresRepository implements contact storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const contactColumns = `id, user_id, first_name, last_name, email, phone_number, birthday, COALESCE(note, ''), created_at, updated_at`

func scanContact(row *sql.Row) (*models.Contact, error) {
	c := &models.Contact{}
	err := row.Scan(&c.ID, &c.UserID, &c.FirstName, &c.LastName, &c.Email,
		&c.PhoneNumber, &c.Birthday, &c.Note, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func collectContacts(rows *sql.Rows) ([]*models.Contact, error) {
	defer rows.Close()

	var result []*models.Contact
	for rows.Next() {
		c := &models.Contact{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.FirstName, &c.LastName, &c.Email,
			&c.PhoneNumber, &c.Birthday, &c.Note, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// List returns a page of the user's contacts ordered by id, so pagination
// stays deterministic across requests.
func (r *PostgresRepository) List(ctx context.Context, skip, limit int, userID int64) ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		 WHERE user_id = $1
		 ORDER BY id
		 OFFSET $2 LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, userID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return collectContacts(rows)
}

// ListAll returns every contact of the user; the birthday window is
// evaluated in the service layer.
func (r *PostgresRepository) ListAll(ctx context.Context, userID int64) ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		 WHERE user_id = $1
		 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return collectContacts(rows)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id, userID int64) (*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		 WHERE id = $1 AND user_id = $2`

	return scanContact(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *PostgresRepository) Create(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	query := `INSERT INTO contacts (user_id, first_name, last_name, email, phone_number, birthday, note)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		 RETURNING ` + contactColumns

	row := r.db.QueryRowContext(ctx, query,
		contact.UserID, contact.FirstName, contact.LastName, contact.Email,
		contact.PhoneNumber, contact.Birthday, contact.Note)
	return scanContact(row)
}

// Update overwrites all mutable fields of the row identified by id and
// owner; partial-update semantics are assembled by the service before the
// call, inside the same transaction as the read.
func (r *PostgresRepository) Update(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	query := `UPDATE contacts
		 SET first_name = $3, last_name = $4, email = $5, phone_number = $6,
		     birthday = $7, note = NULLIF($8, ''), updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING ` + contactColumns

	row := r.db.QueryRowContext(ctx, query,
		contact.ID, contact.UserID, contact.FirstName, contact.LastName,
		contact.Email, contact.PhoneNumber, contact.Birthday, contact.Note)
	return scanContact(row)
}

func (r *PostgresRepository) Delete(ctx context.Context, id, userID int64) (*models.Contact, error) {
	query := `DELETE FROM contacts
		 WHERE id = $1 AND user_id = $2
		 RETURNING ` + contactColumns

	return scanContact(r.db.QueryRowContext(ctx, query, id, userID))
}

// Search matches the query case-insensitively as an unanchored substring
// across name, email, phone and note fields.
func (r *PostgresRepository) Search(ctx context.Context, search string, skip, limit int, userID int64) ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		 WHERE user_id = $1
		   AND (first_name ILIKE '%' || $2 || '%'
		     OR last_name ILIKE '%' || $2 || '%'
		     OR email ILIKE '%' || $2 || '%'
		     OR phone_number ILIKE '%' || $2 || '%'
		     OR note ILIKE '%' || $2 || '%')
		 ORDER BY id
		 OFFSET $3 LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, userID, search, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return collectContacts(rows)
}
