package main

import (
	"net/http"

	"songvault/internal/app/albums"
	"songvault/internal/app/artists"
	"songvault/internal/app/playlists"
	"songvault/internal/app/social"
	"songvault/internal/app/songs"
	"songvault/internal/app/users"
	"songvault/internal/auth"
	"songvault/internal/httpapi"
	"songvault/internal/media"
	"songvault/internal/middleware"
	"songvault/internal/store"
)

func newHTTPHandler(cfg Config, dataStore *store.Store) http.Handler {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	uploader := media.NewClient(cfg.MediaBaseURL, cfg.MediaAPIKey)

	artistSvc := artists.New(dataStore, uploader)
	albumSvc := albums.New(dataStore, uploader)
	songSvc := songs.New(dataStore, uploader)
	playlistSvc := playlists.New(dataStore, uploader)
	userSvc := users.New(dataStore, tokens, uploader)
	socialSvc := social.New(dataStore)

	server := httpapi.New(artistSvc, albumSvc, songSvc, playlistSvc, userSvc, socialSvc)

	requireAuth := middleware.RequireAuth(tokens, dataStore)
	optionalAuth := middleware.OptionalAuth(tokens, dataStore)

	handler := server.Routes(requireAuth, optionalAuth)
	handler = middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)(handler)
	handler = middleware.CORS(cfg.AllowedOrigins)(handler)
	handler = middleware.RequestLogging()(handler)
	handler = middleware.Recovery()(handler)
	return handler
}
