package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"songvault/internal/app/albums"
	"songvault/internal/store"
)

// parseReleaseDate accepts a date or a full timestamp.
func parseReleaseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: release date must be YYYY-MM-DD or RFC 3339", store.ErrInvalidInput)
	}
	return t, nil
}

func (s *Server) handleCreateAlbum(w http.ResponseWriter, r *http.Request) {
	if err := parseUploadForm(r); err != nil {
		respondError(w, err)
		return
	}

	artistID, err := strconv.ParseInt(r.FormValue("artistId"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid artist ID")
		return
	}
	releaseDate, err := parseReleaseDate(r.FormValue("releaseDate"))
	if err != nil {
		respondError(w, err)
		return
	}
	explicit, err := formBool(r, "explicit")
	if err != nil {
		respondError(w, err)
		return
	}
	coverPath, err := saveUpload(r, "coverImage")
	if err != nil {
		respondError(w, err)
		return
	}

	input := albums.CreateInput{
		Title:       r.FormValue("title"),
		ArtistID:    artistID,
		ReleaseDate: releaseDate,
		Genre:       r.FormValue("genre"),
		Description: r.FormValue("description"),
		CoverPath:   coverPath,
	}
	if explicit != nil {
		input.Explicit = *explicit
	}

	album, err := s.albums.Create(r.Context(), input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, album)
}

func (s *Server) handleListAlbums(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := s.albums.List(r.Context(), store.AlbumFilter{
		Genre:  r.URL.Query().Get("genre"),
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

func (s *Server) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid album ID")
		return
	}

	album, err := s.albums.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, album)
}

func (s *Server) handleUpdateAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid album ID")
		return
	}
	if err := parseUploadForm(r); err != nil {
		respondError(w, err)
		return
	}

	patch := store.AlbumPatch{
		Title:       formValue(r, "title"),
		Genre:       formValue(r, "genre"),
		Description: formValue(r, "description"),
	}
	if patch.Explicit, err = formBool(r, "explicit"); err != nil {
		respondError(w, err)
		return
	}

	coverPath, err := saveUpload(r, "coverImage")
	if err != nil {
		respondError(w, err)
		return
	}

	album, err := s.albums.Update(r.Context(), id, albums.UpdateInput{
		Patch:     patch,
		CoverPath: coverPath,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, album)
}

func (s *Server) handleDeleteAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid album ID")
		return
	}

	if err := s.albums.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w, "Album deleted successfully")
}
