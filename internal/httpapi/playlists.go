package httpapi

import (
	"encoding/json"
	"net/http"

	"songvault/internal/app/playlists"
	"songvault/internal/middleware"
	"songvault/internal/store"
)

// viewerID returns the authenticated user's id, or zero for anonymous
// requests.
func viewerID(r *http.Request) int64 {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return 0
	}
	return principal.UserID
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := parseUploadForm(r); err != nil {
		respondError(w, err)
		return
	}

	isPublic, err := formBool(r, "isPublic")
	if err != nil {
		respondError(w, err)
		return
	}
	coverPath, err := saveUpload(r, "coverImage")
	if err != nil {
		respondError(w, err)
		return
	}

	input := playlists.CreateInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		CoverPath:   coverPath,
	}
	// Playlists are private unless asked otherwise.
	if isPublic != nil {
		input.IsPublic = *isPublic
	}

	playlist, err := s.playlists.Create(r.Context(), viewerID(r), input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, playlist)
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := s.playlists.List(r.Context(), store.PlaylistFilter{
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, listEnvelope{Items: items, Total: total, Page: page, Limit: limit})
}

func (s *Server) handleMyPlaylists(w http.ResponseWriter, r *http.Request) {
	items, err := s.playlists.ListMine(r.Context(), viewerID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, items)
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}

	playlist, err := s.playlists.Get(r.Context(), viewerID(r), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, playlist)
}

func (s *Server) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}
	if err := parseUploadForm(r); err != nil {
		respondError(w, err)
		return
	}

	patch := store.PlaylistPatch{
		Name:        formValue(r, "name"),
		Description: formValue(r, "description"),
	}
	if patch.IsPublic, err = formBool(r, "isPublic"); err != nil {
		respondError(w, err)
		return
	}

	coverPath, err := saveUpload(r, "coverImage")
	if err != nil {
		respondError(w, err)
		return
	}

	playlist, err := s.playlists.Update(r.Context(), viewerID(r), id, playlists.UpdateInput{
		Patch:     patch,
		CoverPath: coverPath,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, playlist)
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}

	if err := s.playlists.Delete(r.Context(), viewerID(r), id); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w, "Playlist deleted successfully")
}

func (s *Server) handleAddPlaylistSongs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}

	var body struct {
		SongIDs []int64 `json:"songIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(body.SongIDs) == 0 {
		respondMessage(w, http.StatusBadRequest, "songIds must not be empty")
		return
	}

	playlist, err := s.playlists.AddSongs(r.Context(), viewerID(r), id, body.SongIDs)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, playlist)
}

func (s *Server) handleRemovePlaylistSong(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}
	songID, err := pathID(r, "songId")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	playlist, err := s.playlists.RemoveSong(r.Context(), viewerID(r), id, songID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, playlist)
}

func (s *Server) handleAddCollaborator(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}

	var body struct {
		UserID int64 `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID < 1 {
		respondMessage(w, http.StatusBadRequest, "userId is required")
		return
	}

	playlist, err := s.playlists.AddCollaborator(r.Context(), viewerID(r), id, body.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, playlist)
}

func (s *Server) handleRemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}
	userID, err := pathID(r, "userId")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	playlist, err := s.playlists.RemoveCollaborator(r.Context(), viewerID(r), id, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, playlist)
}
