package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contactbook/internal/common"
	"contactbook/internal/server/auth"
	"contactbook/internal/server/config"
	"contactbook/internal/server/models"
)

// Mailer enqueues outbound messages for asynchronous delivery. Enqueueing
// never blocks and never fails the calling request.
type Mailer interface {
	EnqueueConfirmation(to string, username string, token string)
	EnqueuePasswordReset(to string, username string, token string)
}

// AvatarUploader stores an avatar image and returns its public URL.
type AvatarUploader interface {
	Upload(ctx context.Context, data []byte, ownerKey string) (string, error)
}

// Service composes the user repository, the token service and the external
// mail/image collaborators into the register/login/confirm/reset flows.
type Service struct {
	repo            Repository
	mailer          Mailer
	uploader        AvatarUploader
	jwtSecret       []byte
	sessionTokenTTL time.Duration
}

func NewService(repo Repository, mailer Mailer, uploader AvatarUploader, cfg *config.Config) *Service {
	return &Service{
		repo:            repo,
		mailer:          mailer,
		uploader:        uploader,
		jwtSecret:       []byte(cfg.SecretKey),
		sessionTokenTTL: cfg.SessionTokenTTL,
	}
}

// Register creates an unconfirmed account and dispatches a confirmation
// email. Duplicate username or email yields common.ErrorAlreadyExists.
// The pre-checks give friendly errors; the unique constraints close the
// check-then-insert race for concurrent registrations.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {

	if _, err := s.repo.GetByEmail(ctx, email); !errors.Is(err, common.ErrorNotFound) {
		if err != nil {
			return nil, common.ErrorInternal
		}
		return nil, common.ErrorAlreadyExists
	}
	if _, err := s.repo.GetByUsername(ctx, username); !errors.Is(err, common.ErrorNotFound) {
		if err != nil {
			return nil, common.ErrorInternal
		}
		return nil, common.ErrorAlreadyExists
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.repo.Create(ctx, &models.User{
		Username:       username,
		Email:          email,
		HashedPassword: hashed,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.sendConfirmation(user)

	return user, nil
}

// Login verifies credentials and issues a session token. An absent user, a
// wrong password and an unconfirmed account are all unauthorized; the
// unconfirmed case keeps its own sentinel so the handler can phrase the
// response the way the original flow does.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	if !user.Confirmed {
		return "", common.ErrorNotConfirmed
	}

	if !auth.CheckPassword(password, user.HashedPassword) {
		return "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.Username, s.jwtSecret, s.sessionTokenTTL)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// GetByUsername resolves the user behind a validated session token subject.
func (s *Service) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// RequestConfirmation re-sends the confirmation email. It reports whether
// the account is already confirmed; an unknown email reports nothing so the
// endpoint's reply does not reveal account existence.
func (s *Service) RequestConfirmation(ctx context.Context, email string) (alreadyConfirmed bool, err error) {

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, common.ErrorInternal
	}

	if user.Confirmed {
		return true, nil
	}

	s.sendConfirmation(user)
	return false, nil
}

// ConfirmEmail validates an email-action token and marks the account
// confirmed. Reports whether the account was already confirmed.
func (s *Service) ConfirmEmail(ctx context.Context, token string) (alreadyConfirmed bool, err error) {

	email, err := auth.GetSubjectFromToken(token, s.jwtSecret)
	if err != nil {
		return false, common.ErrInvalidToken
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, common.ErrorNotFound
		}
		return false, common.ErrorInternal
	}

	if user.Confirmed {
		return true, nil
	}

	if err := s.repo.ConfirmEmail(ctx, email); err != nil {
		return false, common.ErrorInternal
	}
	return false, nil
}

// RequestPasswordReset dispatches a reset email when the account exists.
// The caller always gets the same generic outcome.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return common.ErrorInternal
	}

	token, err := auth.GenerateEmailToken(user.Email, s.jwtSecret)
	if err != nil {
		return common.ErrorInternal
	}
	s.mailer.EnqueuePasswordReset(user.Email, user.Username, token)
	return nil
}

// UpdatePassword validates an email-action token and replaces the account
// password with a fresh hash of the supplied one.
func (s *Service) UpdatePassword(ctx context.Context, token, newPassword string) error {

	email, err := auth.GetSubjectFromToken(token, s.jwtSecret)
	if err != nil {
		return common.ErrInvalidToken
	}

	if _, err := s.repo.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}

	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	if err := s.repo.UpdatePassword(ctx, email, hashed); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// UpdateAvatar uploads the image to the external host and, only after the
// upload succeeds, persists the returned URL. A failed upload leaves the
// user record untouched.
func (s *Service) UpdateAvatar(ctx context.Context, user *models.User, data []byte) (*models.User, error) {

	url, err := s.uploader.Upload(ctx, data, user.Username)
	if err != nil {
		return nil, common.ErrUploadFailed
	}

	updated, err := s.repo.UpdateAvatar(ctx, user.Email, url)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return updated, nil
}

func (s *Service) sendConfirmation(user *models.User) {
	token, err := auth.GenerateEmailToken(user.Email, s.jwtSecret)
	if err != nil {
		// token generation failing here only delays confirmation; the user
		// can re-request the email
		return
	}
	s.mailer.EnqueueConfirmation(user.Email, user.Username, token)
}
