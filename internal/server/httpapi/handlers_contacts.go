package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"contactbook/internal/server/contacts"
	"contactbook/internal/server/models"
)

const dateLayout = "2006-01-02"

type contactRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Birthday    string `json:"birthday"`
	Note        string `json:"note"`
}

type contactPatchRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	Birthday    *string `json:"birthday"`
	Note        *string `json:"note"`
}

type contactResponse struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Birthday    string `json:"birthday"`
	Note        string `json:"note"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toContactResponse(c *models.Contact) contactResponse {
	return contactResponse{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		Birthday:    c.Birthday.Format(dateLayout),
		Note:        c.Note,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
}

func toContactResponses(list []*models.Contact) []contactResponse {
	out := make([]contactResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toContactResponse(c))
	}
	return out
}

// validateContactField enforces the field length rules shared by create
// and update. An empty string means "field not supplied" for updates, so
// only non-empty values are checked here; create checks presence itself.
func validateContactField(name, value string, min, max int) string {
	if len(value) < min {
		return name + " is too short"
	}
	if len(value) > max {
		return name + " is too long"
	}
	return ""
}

func (r contactRequest) validate() string {
	if msg := validateContactField("first_name", r.FirstName, 2, 50); msg != "" {
		return msg
	}
	if msg := validateContactField("last_name", r.LastName, 2, 50); msg != "" {
		return msg
	}
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return "email is invalid"
	}
	if msg := validateContactField("phone_number", r.PhoneNumber, 6, 20); msg != "" {
		return msg
	}
	if len(r.Note) > 150 {
		return "note is too long"
	}
	return ""
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	list, err := s.contacts.List(r.Context(), skip, limit, user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toContactResponses(list))
}

func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	contact, err := s.contacts.Get(r.Context(), pathID(r), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toContactResponse(contact))
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	birthday, err := time.Parse(dateLayout, req.Birthday)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "birthday must be a date in YYYY-MM-DD format")
		return
	}

	contact, err := s.contacts.Create(r.Context(), contacts.ContactInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Birthday:    birthday,
		Note:        req.Note,
	}, user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContactResponse(contact))
}

func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req contactPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	patch := contacts.ContactPatch{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Note:        req.Note,
	}
	if req.FirstName != nil {
		if msg := validateContactField("first_name", *req.FirstName, 2, 50); msg != "" {
			writeError(w, http.StatusUnprocessableEntity, msg)
			return
		}
	}
	if req.LastName != nil {
		if msg := validateContactField("last_name", *req.LastName, 2, 50); msg != "" {
			writeError(w, http.StatusUnprocessableEntity, msg)
			return
		}
	}
	if req.PhoneNumber != nil {
		if msg := validateContactField("phone_number", *req.PhoneNumber, 6, 20); msg != "" {
			writeError(w, http.StatusUnprocessableEntity, msg)
			return
		}
	}
	if req.Note != nil && len(*req.Note) > 150 {
		writeError(w, http.StatusUnprocessableEntity, "note is too long")
		return
	}
	if req.Birthday != nil {
		birthday, err := time.Parse(dateLayout, *req.Birthday)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "birthday must be a date in YYYY-MM-DD format")
			return
		}
		patch.Birthday = &birthday
	}

	contact, err := s.contacts.Update(r.Context(), pathID(r), patch, user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toContactResponse(contact))
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	if _, err := s.contacts.Delete(r.Context(), pathID(r), user); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearchContacts(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	text := r.URL.Query().Get("text")
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	list, err := s.contacts.Search(r.Context(), text, skip, limit, user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toContactResponses(list))
}

type birthdayRequest struct {
	Days int `json:"days"`
}

func (s *Server) handleUpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req birthdayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	list, err := s.contacts.UpcomingBirthdays(r.Context(), req.Days, user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toContactResponses(list))
}
