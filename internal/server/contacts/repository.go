package contacts

import (
	"context"

	"contactbook/internal/server/models"
)

// Repository is the persistence contract for contact records. Every method
// takes the owning user id and filters by it; a row that is absent or owned
// by another user yields common.ErrorNotFound with no distinction between
// the two cases.
type Repository interface {
	List(ctx context.Context, skip, limit int, userID int64) ([]*models.Contact, error)
	ListAll(ctx context.Context, userID int64) ([]*models.Contact, error)
	GetByID(ctx context.Context, id, userID int64) (*models.Contact, error)
	Create(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	Update(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	Delete(ctx context.Context, id, userID int64) (*models.Contact, error)
	Search(ctx context.Context, query string, skip, limit int, userID int64) ([]*models.Contact, error)
}
