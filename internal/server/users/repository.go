package users

import (
	"context"

	"contactbook/internal/server/models"
)

// Repository is the persistence contract for user records. Lookups return
// common.ErrorNotFound for absent rows; Create relies on the store's unique
// constraints as the last line of defense against concurrent registrations
// and surfaces violations as common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ConfirmEmail(ctx context.Context, email string) error
	UpdateAvatar(ctx context.Context, email string, url string) (*models.User, error)
	UpdatePassword(ctx context.Context, email string, hashedPassword string) error
}
