package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"contactbook/internal/dbx"
	"contactbook/internal/logging"
	"contactbook/internal/server/config"
	"contactbook/internal/server/contacts"
	"contactbook/internal/server/models"
)

// meRequestsPerMinute caps GET /api/users/me per client address.
const meRequestsPerMinute = 5

// UserService is the slice of the user service the handlers call.
type UserService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	RequestConfirmation(ctx context.Context, email string) (alreadyConfirmed bool, err error)
	ConfirmEmail(ctx context.Context, token string) (alreadyConfirmed bool, err error)
	RequestPasswordReset(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, token, newPassword string) error
	UpdateAvatar(ctx context.Context, user *models.User, data []byte) (*models.User, error)
}

// ContactService is the slice of the contact service the handlers call.
type ContactService interface {
	List(ctx context.Context, skip, limit int, user *models.User) ([]*models.Contact, error)
	Get(ctx context.Context, id int64, user *models.User) (*models.Contact, error)
	Create(ctx context.Context, input contacts.ContactInput, user *models.User) (*models.Contact, error)
	Update(ctx context.Context, id int64, patch contacts.ContactPatch, user *models.User) (*models.Contact, error)
	Delete(ctx context.Context, id int64, user *models.User) (*models.Contact, error)
	Search(ctx context.Context, query string, skip, limit int, user *models.User) ([]*models.Contact, error)
	UpcomingBirthdays(ctx context.Context, days int, user *models.User) ([]*models.Contact, error)
}

// Server wires the services into an HTTP handler tree.
type Server struct {
	users     UserService
	contacts  ContactService
	healthDB  dbx.DBTX
	jwtSecret []byte
	limiter   *clientRateLimiter
	logger    logging.Logger
	router    *mux.Router
}

func NewServer(users UserService, contactSvc ContactService, healthDB dbx.DBTX, cfg *config.Config, logger logging.Logger) *Server {
	s := &Server{
		users:     users,
		contacts:  contactSvc,
		healthDB:  healthDB,
		jwtSecret: []byte(cfg.SecretKey),
		limiter:   newClientRateLimiter(meRequestsPerMinute),
		logger:    logger.With("module", "httpapi"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler for the server.
func (s *Server) Handler() http.Handler {
	return s.loggingMiddleware(s.router)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/healthchecker", s.handleHealthcheck).Methods(http.MethodGet)

	authRouter := api.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	authRouter.HandleFunc("/request_email", s.handleRequestEmail).Methods(http.MethodPost)
	authRouter.HandleFunc("/confirmed_email/{token}", s.handleConfirmEmail).Methods(http.MethodGet)
	authRouter.HandleFunc("/reset_password", s.handleResetPassword).Methods(http.MethodPost)
	authRouter.HandleFunc("/update_password/{token}", s.handleUpdatePassword).Methods(http.MethodPatch)

	usersRouter := api.PathPrefix("/users").Subrouter()
	usersRouter.Use(s.authMiddleware)
	usersRouter.Handle("/me", s.rateLimitMiddleware(http.HandlerFunc(s.handleMe))).Methods(http.MethodGet)
	usersRouter.HandleFunc("/avatar", s.handleUpdateAvatar).Methods(http.MethodPatch)

	contactsRouter := api.PathPrefix("/contacts").Subrouter()
	contactsRouter.Use(s.authMiddleware)
	contactsRouter.HandleFunc("", s.handleListContacts).Methods(http.MethodGet)
	contactsRouter.HandleFunc("", s.handleCreateContact).Methods(http.MethodPost)
	contactsRouter.HandleFunc("/search", s.handleSearchContacts).Methods(http.MethodGet)
	contactsRouter.HandleFunc("/upcoming-birthdays", s.handleUpcomingBirthdays).Methods(http.MethodPost)
	contactsRouter.HandleFunc("/{id:[0-9]+}", s.handleGetContact).Methods(http.MethodGet)
	contactsRouter.HandleFunc("/{id:[0-9]+}", s.handleUpdateContact).Methods(http.MethodPut)
	contactsRouter.HandleFunc("/{id:[0-9]+}", s.handleDeleteContact).Methods(http.MethodDelete)

	return r
}

// handleHealthcheck verifies database connectivity with a trivial query.
func (s *Server) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	var one int
	if err := s.healthDB.QueryRowContext(r.Context(), "SELECT 1").Scan(&one); err != nil || one != 1 {
		writeError(w, http.StatusInternalServerError, "Error connecting to the database")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Application is healthy"})
}
