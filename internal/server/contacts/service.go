package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"contactbook/internal/common"
	"contactbook/internal/dbx"
	"contactbook/internal/server/models"
)

// ContactInput carries the validated fields for creating a contact.
type ContactInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Birthday    time.Time
	Note        string
}

// ContactPatch carries a partial update; nil fields stay unchanged.
type ContactPatch struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *string
	Birthday    *time.Time
	Note        *string
}

// Service implements the contact operations on top of the repository,
// always scoped by the authenticated user. The repository factory lets the
// partial-update flow run its read and write on one transaction.
type Service struct {
	db      *sql.DB
	repoFor func(db dbx.DBTX) Repository
	now     func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{
		db:      db,
		repoFor: func(db dbx.DBTX) Repository { return NewPostgresRepository(db) },
		now:     time.Now,
	}
}

func (s *Service) List(ctx context.Context, skip, limit int, user *models.User) ([]*models.Contact, error) {
	return s.repoFor(s.db).List(ctx, skip, limit, user.ID)
}

func (s *Service) Get(ctx context.Context, id int64, user *models.User) (*models.Contact, error) {
	return s.repoFor(s.db).GetByID(ctx, id, user.ID)
}

// Create validates the birthday and persists a new contact for the user.
func (s *Service) Create(ctx context.Context, input ContactInput, user *models.User) (*models.Contact, error) {

	if err := s.validateBirthday(input.Birthday); err != nil {
		return nil, err
	}

	contact := &models.Contact{
		UserID:      user.ID,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		Birthday:    input.Birthday,
		Note:        input.Note,
	}
	return s.repoFor(s.db).Create(ctx, contact)
}

// Update applies only the supplied fields. The read and the write share one
// transaction so a concurrent edit cannot interleave between them; the last
// committed writer wins. An id that is absent or owned by another user
// yields common.ErrorNotFound.
func (s *Service) Update(ctx context.Context, id int64, patch ContactPatch, user *models.User) (*models.Contact, error) {

	if patch.Birthday != nil {
		if err := s.validateBirthday(*patch.Birthday); err != nil {
			return nil, err
		}
	}

	var updated *models.Contact
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repoFor(tx)

		contact, err := repo.GetByID(ctx, id, user.ID)
		if err != nil {
			return err
		}

		if patch.FirstName != nil {
			contact.FirstName = *patch.FirstName
		}
		if patch.LastName != nil {
			contact.LastName = *patch.LastName
		}
		if patch.Email != nil {
			contact.Email = *patch.Email
		}
		if patch.PhoneNumber != nil {
			contact.PhoneNumber = *patch.PhoneNumber
		}
		if patch.Birthday != nil {
			contact.Birthday = *patch.Birthday
		}
		if patch.Note != nil {
			contact.Note = *patch.Note
		}

		updated, err = repo.Update(ctx, contact)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64, user *models.User) (*models.Contact, error) {
	return s.repoFor(s.db).Delete(ctx, id, user.ID)
}

func (s *Service) Search(ctx context.Context, query string, skip, limit int, user *models.User) ([]*models.Contact, error) {
	return s.repoFor(s.db).Search(ctx, query, skip, limit, user.ID)
}

// UpcomingBirthdays returns the user's contacts whose birthday falls within
// the next days days, including windows that cross New Year.
func (s *Service) UpcomingBirthdays(ctx context.Context, days int, user *models.User) ([]*models.Contact, error) {

	if days < 0 || days > MaxBirthdayWindowDays {
		return nil, fmt.Errorf("%w: days must be between 0 and %d", common.ErrorValidation, MaxBirthdayWindowDays)
	}

	all, err := s.repoFor(s.db).ListAll(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	today := s.now()
	result := make([]*models.Contact, 0, len(all))
	for _, c := range all {
		if birthdayInWindow(c.Birthday, today, days) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (s *Service) validateBirthday(birthday time.Time) error {
	today := s.now()
	endOfToday := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	if !birthday.Before(endOfToday) {
		return fmt.Errorf("%w: birthday cannot be in the future", common.ErrorValidation)
	}
	return nil
}
