package httpapi

import (
	"net/http"
	"strconv"

	"songvault/internal/app/songs"
	"songvault/internal/store"
)

func (s *Server) handleCreateSong(w http.ResponseWriter, r *http.Request) {
	if err := parseUploadForm(r); err != nil {
		respondError(w, err)
		return
	}

	artistID, err := strconv.ParseInt(r.FormValue("artistId"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid artist ID")
		return
	}

	input := songs.CreateInput{
		Title:    r.FormValue("title"),
		ArtistID: artistID,
		Genre:    r.FormValue("genre"),
		Lyrics:   r.FormValue("lyrics"),
	}

	if raw := formValue(r, "albumId"); raw != nil && *raw != "" {
		albumID, err := strconv.ParseInt(*raw, 10, 64)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "Invalid album ID")
			return
		}
		input.AlbumID = &albumID
	}
	if raw := formValue(r, "duration"); raw != nil {
		if input.Duration, err = strconv.Atoi(*raw); err != nil || input.Duration < 0 {
			respondMessage(w, http.StatusBadRequest, "Duration must be a number of seconds")
			return
		}
	}
	if input.FeaturedArtists, err = formIDs(r, "featuredArtists"); err != nil {
		respondError(w, err)
		return
	}
	explicit, err := formBool(r, "explicit")
	if err != nil {
		respondError(w, err)
		return
	}
	if explicit != nil {
		input.Explicit = *explicit
	}

	if input.AudioPath, err = saveUpload(r, "audio"); err != nil {
		respondError(w, err)
		return
	}
	if input.CoverPath, err = saveUpload(r, "coverImage"); err != nil {
		discardSpools(input.AudioPath)
		respondError(w, err)
		return
	}
	if input.AudioPath == "" || input.CoverPath == "" {
		discardSpools(input.AudioPath, input.CoverPath)
		respondMessage(w, http.StatusBadRequest, "Audio and cover image are required")
		return
	}

	song, err := s.songs.Create(r.Context(), input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, song)
}

func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := s.songs.List(r.Context(), store.SongFilter{
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

func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	song, err := s.songs.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, song)
}

func (s *Server) handleUpdateSong(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid song ID")
		return
	}
	if err := parseUploadForm(r); err != nil {
		respondError(w, err)
		return
	}

	patch := store.SongPatch{
		Title:  formValue(r, "title"),
		Genre:  formValue(r, "genre"),
		Lyrics: formValue(r, "lyrics"),
	}
	if raw := formValue(r, "duration"); raw != nil {
		duration, err := strconv.Atoi(*raw)
		if err != nil || duration < 0 {
			respondMessage(w, http.StatusBadRequest, "Duration must be a number of seconds")
			return
		}
		patch.Duration = &duration
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

	song, err := s.songs.Update(r.Context(), id, songs.UpdateInput{
		Patch:     patch,
		CoverPath: coverPath,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, song)
}

func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	if err := s.songs.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w, "Song deleted successfully")
}
