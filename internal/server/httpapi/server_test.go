package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"contactbook/internal/common"
	"contactbook/internal/logging"
	"contactbook/internal/server/config"
	"contactbook/internal/server/contacts"
	"contactbook/internal/server/models"
	"contactbook/internal/server/users"
)

// fakeUserRepo is an in-memory users.Repository so the handler tests run
// the real user service end to end.
type fakeUserRepo struct {
	mu     sync.Mutex
	byID   map[int64]*models.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[int64]*models.User{}, nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *user
	cp.ID = f.nextID
	f.nextID++
	f.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Username == username })
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUserRepo) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUserRepo) ConfirmEmail(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			u.Confirmed = true
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeUserRepo) UpdateAvatar(ctx context.Context, email string, url string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			u.Avatar = url
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, email string, hashedPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			u.HashedPassword = hashedPassword
			return nil
		}
	}
	return common.ErrorNotFound
}

// recordingMailer captures dispatched tokens so tests can follow the
// confirmation and reset links.
type recordingMailer struct {
	mu            sync.Mutex
	confirmTokens map[string]string
	resetTokens   map[string]string
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{confirmTokens: map[string]string{}, resetTokens: map[string]string{}}
}

func (m *recordingMailer) EnqueueConfirmation(to, username, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmTokens[to] = token
}

func (m *recordingMailer) EnqueuePasswordReset(to, username, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetTokens[to] = token
}

func (m *recordingMailer) confirmToken(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirmTokens[to]
}

func (m *recordingMailer) resetToken(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resetTokens[to]
}

type fakeUploader struct {
	err error
}

func (f *fakeUploader) Upload(ctx context.Context, data []byte, ownerKey string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "http://images.local/avatars/" + ownerKey + ".jpg", nil
}

// fakeContactStore implements ContactService with per-user storage; the
// real contact service has its own tests, the handlers only need behavior.
type fakeContactStore struct {
	mu     sync.Mutex
	byID   map[int64]*models.Contact
	nextID int64
}

func newFakeContactStore() *fakeContactStore {
	return &fakeContactStore{byID: map[int64]*models.Contact{}, nextID: 1}
}

func (f *fakeContactStore) List(ctx context.Context, skip, limit int, user *models.User) ([]*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Contact
	for id := int64(1); id < f.nextID; id++ {
		if c, ok := f.byID[id]; ok && c.UserID == user.ID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeContactStore) Get(ctx context.Context, id int64, user *models.User) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok || c.UserID != user.ID {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContactStore) Create(ctx context.Context, input contacts.ContactInput, user *models.User) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &models.Contact{
		ID:          f.nextID,
		UserID:      user.ID,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		Birthday:    input.Birthday,
		Note:        input.Note,
	}
	f.nextID++
	f.byID[c.ID] = c
	cp := *c
	return &cp, nil
}

func (f *fakeContactStore) Update(ctx context.Context, id int64, patch contacts.ContactPatch, user *models.User) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok || c.UserID != user.ID {
		return nil, common.ErrorNotFound
	}
	if patch.FirstName != nil {
		c.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		c.LastName = *patch.LastName
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.PhoneNumber != nil {
		c.PhoneNumber = *patch.PhoneNumber
	}
	if patch.Birthday != nil {
		c.Birthday = *patch.Birthday
	}
	if patch.Note != nil {
		c.Note = *patch.Note
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContactStore) Delete(ctx context.Context, id int64, user *models.User) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok || c.UserID != user.ID {
		return nil, common.ErrorNotFound
	}
	delete(f.byID, id)
	return c, nil
}

func (f *fakeContactStore) Search(ctx context.Context, query string, skip, limit int, user *models.User) ([]*models.Contact, error) {
	return f.List(ctx, skip, limit, user)
}

func (f *fakeContactStore) UpcomingBirthdays(ctx context.Context, days int, user *models.User) ([]*models.Contact, error) {
	if days < 0 || days > contacts.MaxBirthdayWindowDays {
		return nil, common.ErrorValidation
	}
	return f.List(ctx, 0, 100, user)
}

type testEnv struct {
	server   *httptest.Server
	mailer   *recordingMailer
	userRepo *fakeUserRepo
	store    *fakeContactStore
	uploader *fakeUploader
	dbMock   sqlmock.Sqlmock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{SecretKey: "test-secret", SessionTokenTTL: time.Hour}

	repo := newFakeUserRepo()
	mailer := newRecordingMailer()
	uploader := &fakeUploader{}
	userService := users.NewService(repo, mailer, uploader, cfg)

	store := newFakeContactStore()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	srv := NewServer(userService, store, db, cfg, logger)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, mailer: mailer, userRepo: repo, store: store, uploader: uploader, dbMock: mock}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// register creates and confirms an account and returns a session token.
func (e *testEnv) register(t *testing.T, username, email, password string) string {
	t.Helper()

	resp := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	confirmToken := e.mailer.confirmToken(email)
	require.NotEmpty(t, confirmToken)
	resp = e.do(t, http.MethodGet, "/api/auth/confirmed_email/"+confirmToken, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tok := decodeBody[tokenResponse](t, resp)
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}
