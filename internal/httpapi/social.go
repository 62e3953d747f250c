package httpapi

import (
	"context"
	"net/http"

	"songvault/internal/store"
)

// handleToggle factors the shared shape of the four like/follow endpoints.
func (s *Server) handleToggle(
	w http.ResponseWriter,
	r *http.Request,
	invalidID string,
	toggle func(ctx context.Context, userID, targetID int64) (store.ToggleResult, error),
	onMessage, offMessage string,
) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, invalidID)
		return
	}

	result, err := toggle(r.Context(), viewerID(r), id)
	if err != nil {
		respondError(w, err)
		return
	}

	message := offMessage
	if result.Active {
		message = onMessage
	}
	writeJSON(w, http.StatusOK, successEnvelope{Status: "success", Message: message, Data: result})
}

func (s *Server) handleToggleSongLike(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, "Invalid song ID", s.social.ToggleSongLike, "Song liked", "Song unliked")
}

func (s *Server) handleToggleAlbumLike(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, "Invalid album ID", s.social.ToggleAlbumLike, "Album liked", "Album unliked")
}

func (s *Server) handleToggleArtistFollow(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, "Invalid artist ID", s.social.ToggleArtistFollow, "Artist followed", "Artist unfollowed")
}

func (s *Server) handleTogglePlaylistFollow(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, "Invalid playlist ID", s.social.TogglePlaylistFollow, "Playlist followed", "Playlist unfollowed")
}
