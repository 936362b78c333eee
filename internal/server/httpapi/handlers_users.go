package httpapi

import (
	"io"
	"net/http"
)

// maxAvatarBytes caps the multipart upload for avatar updates.
const maxAvatarBytes = 10 << 20

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// handleUpdateAvatar accepts a multipart form with a "file" field, hands
// the bytes to the upload adapter and returns the user with the new URL.
func (s *Server) handleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "could not read file")
		return
	}

	updated, err := s.users.UpdateAvatar(r.Context(), user, data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(updated))
}
