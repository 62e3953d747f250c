package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"songvault/internal/auth"
	"songvault/internal/media"
	"songvault/internal/store"
)

type successEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type messageEnvelope struct {
	Message string `json:"message"`
}

// listEnvelope wraps paginated collection responses.
type listEnvelope struct {
	Items any `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("write response")
	}
}

func respondData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{Status: "success", Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageEnvelope{Message: message})
}

func respondDeleted(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, successEnvelope{Status: "success", Message: message})
}

var errorStatuses = []struct {
	err     error
	status  int
	message string
}{
	{store.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{store.ErrForbidden, http.StatusForbidden, "Not authorized to perform this action"},
	{store.ErrArtistNotFound, http.StatusNotFound, "Artist not found"},
	{store.ErrAlbumNotFound, http.StatusNotFound, "Album not found"},
	{store.ErrSongNotFound, http.StatusNotFound, "Song not found"},
	{store.ErrPlaylistNotFound, http.StatusNotFound, "Playlist not found"},
	{store.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{store.ErrArtistExists, http.StatusBadRequest, "Artist already exists"},
	{store.ErrAlbumExists, http.StatusBadRequest, "Album with this title already exists"},
	{store.ErrPlaylistExists, http.StatusBadRequest, "You already have a playlist with this name"},
	{store.ErrUserExists, http.StatusBadRequest, "User already exists"},
	{store.ErrAlreadyCollaborator, http.StatusBadRequest, "User is already a collaborator"},
	{store.ErrNotCollaborator, http.StatusBadRequest, "User is not a collaborator"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "Not authorized, token failed"},
}

// respondError maps service errors onto HTTP statuses. Validation messages are
// passed through so clients see what was wrong with the request.
func respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrInvalidInput) {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, entry := range errorStatuses {
		if errors.Is(err, entry.err) {
			respondMessage(w, entry.status, entry.message)
			return
		}
	}
	if errors.Is(err, media.ErrUpload) {
		log.Error().Err(err).Msg("media upload")
		respondMessage(w, http.StatusInternalServerError, "Media upload failed")
		return
	}
	log.Error().Err(err).Msg("request failed")
	respondMessage(w, http.StatusInternalServerError, "Internal server error")
}

// pathID extracts a numeric path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// pagination reads page and limit query parameters. Defaults apply when a
// parameter is absent; present but malformed values are rejected outright.
func pagination(r *http.Request) (page, limit int, err error) {
	page, limit = 1, 10
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, errors.New("page must be a positive integer")
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			return 0, 0, errors.New("limit must be between 1 and 100")
		}
	}
	return page, limit, nil
}

// queryLimit reads an optional limit parameter for top-N endpoints.
func queryLimit(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > 100 {
		return 0, errors.New("limit must be between 1 and 100")
	}
	return limit, nil
}
