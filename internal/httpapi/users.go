package httpapi

import (
	"encoding/json"
	"net/http"

	"songvault/internal/app/users"
	"songvault/internal/store"
)

type authResponse struct {
	User  store.User `json:"user"`
	Token string     `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := s.users.Register(r.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, authResponse{User: user, Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := s.users.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, authResponse{User: user, Token: token})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Profile(r.Context(), viewerID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := parseUploadForm(r); err != nil {
		respondError(w, err)
		return
	}

	patch := store.UserPatch{
		Name:     formValue(r, "name"),
		Email:    formValue(r, "email"),
		Password: formValue(r, "password"),
	}

	picturePath, err := saveUpload(r, "profilePicture")
	if err != nil {
		respondError(w, err)
		return
	}

	user, err := s.users.UpdateProfile(r.Context(), viewerID(r), users.UpdateInput{
		Patch:       patch,
		PicturePath: picturePath,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, user)
}
