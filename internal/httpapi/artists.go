package httpapi

import (
	"net/http"

	"songvault/internal/app/artists"
	"songvault/internal/store"
)

func (s *Server) handleCreateArtist(w http.ResponseWriter, r *http.Request) {
	if err := parseUploadForm(r); err != nil {
		respondError(w, err)
		return
	}

	imagePath, err := saveUpload(r, "image")
	if err != nil {
		respondError(w, err)
		return
	}

	artist, err := s.artists.Create(r.Context(), artists.CreateInput{
		Name:      r.FormValue("name"),
		Bio:       r.FormValue("bio"),
		Genres:    formStrings(r, "genres"),
		ImagePath: imagePath,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, artist)
}

func (s *Server) handleListArtists(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := s.artists.List(r.Context(), store.ArtistFilter{
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

func (s *Server) handleTopArtists(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, 10)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := s.artists.Top(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, items)
}

func (s *Server) handleGetArtist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid artist ID")
		return
	}

	artist, err := s.artists.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, artist)
}

func (s *Server) handleArtistTopSongs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid artist ID")
		return
	}
	limit, err := queryLimit(r, 5)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := s.artists.TopSongs(r.Context(), id, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, items)
}

func (s *Server) handleUpdateArtist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid artist ID")
		return
	}
	if err := parseUploadForm(r); err != nil {
		respondError(w, err)
		return
	}

	patch := store.ArtistPatch{
		Name: formValue(r, "name"),
		Bio:  formValue(r, "bio"),
	}
	if genres := formStrings(r, "genres"); genres != nil {
		patch.Genres = &genres
	}
	if patch.Verified, err = formBool(r, "verified"); err != nil {
		respondError(w, err)
		return
	}

	imagePath, err := saveUpload(r, "image")
	if err != nil {
		respondError(w, err)
		return
	}

	artist, err := s.artists.Update(r.Context(), id, artists.UpdateInput{
		Patch:     patch,
		ImagePath: imagePath,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, artist)
}

func (s *Server) handleDeleteArtist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid artist ID")
		return
	}

	if err := s.artists.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w, "Artist deleted successfully")
}
