package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"contactbook/internal/common"
	"contactbook/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func userRows(u *models.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "email", "hashed_password", "avatar", "confirmed", "role", "created_at", "updated_at",
	}).AddRow(u.ID, u.Username, u.Email, u.HashedPassword, u.Avatar, u.Confirmed, string(u.Role), u.CreatedAt, u.UpdatedAt)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	want := &models.User{ID: 1, Username: "alice", Email: "a@example.com", HashedPassword: "h", Role: models.RoleUser, CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WithArgs("alice", "a@example.com", "h").
		WillReturnRows(userRows(want))

	got, err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "a@example.com", HashedPassword: "h"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 1 || got.Username != "alice" || got.Confirmed {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WithArgs("alice", "a@example.com", "h").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "a@example.com", HashedPassword: "h"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM users WHERE email`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByUsername_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	u := &models.User{ID: 7, Username: "bob", Email: "b@example.com", HashedPassword: "h", Confirmed: true, Role: models.RoleUser, CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery(`SELECT .* FROM users WHERE username`).
		WithArgs("bob").
		WillReturnRows(userRows(u))

	got, err := repo.GetByUsername(context.Background(), "bob")
	if err != nil {
		t.Fatalf("GetByUsername error: %v", err)
	}
	if got.ID != 7 || !got.Confirmed {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestConfirmEmail_Idempotent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// the UPDATE touches the row whether or not confirmed was already true
	mock.ExpectExec(`UPDATE\s+users\s+SET\s+confirmed`).
		WithArgs("a@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ConfirmEmail(context.Background(), "a@example.com"); err != nil {
		t.Fatalf("ConfirmEmail error: %v", err)
	}
}

func TestConfirmEmail_UnknownEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+confirmed`).
		WithArgs("ghost@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ConfirmEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestUpdateAvatar_ReturnsUpdatedRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	u := &models.User{ID: 3, Username: "carol", Email: "c@example.com", HashedPassword: "h", Avatar: "http://img/ava.jpg", Confirmed: true, Role: models.RoleUser, CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery(`UPDATE\s+users\s+SET\s+avatar`).
		WithArgs("c@example.com", "http://img/ava.jpg").
		WillReturnRows(userRows(u))

	got, err := repo.UpdateAvatar(context.Background(), "c@example.com", "http://img/ava.jpg")
	if err != nil {
		t.Fatalf("UpdateAvatar error: %v", err)
	}
	if got.Avatar != "http://img/ava.jpg" {
		t.Fatalf("unexpected avatar: %q", got.Avatar)
	}
}

func TestUpdatePassword_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+hashed_password`).
		WithArgs("a@example.com", "newhash").
		WillReturnError(errors.New("db down"))

	err := repo.UpdatePassword(context.Background(), "a@example.com", "newhash")
	if err == nil {
		t.Fatalf("expected wrapped db error, got nil")
	}
}
