// Package social implements the toggle-style interactions: likes and follows.
package social

import (
	"context"

	"songvault/internal/store"
)

// Store captures the persistence needs for toggle workflows.
type Store interface {
	ToggleSongLike(ctx context.Context, userID, songID int64) (store.ToggleResult, error)
	ToggleAlbumLike(ctx context.Context, userID, albumID int64) (store.ToggleResult, error)
	ToggleArtistFollow(ctx context.Context, userID, artistID int64) (store.ToggleResult, error)
	TogglePlaylistFollow(ctx context.Context, userID, playlistID int64) (store.ToggleResult, error)
}

// Service coordinates like/follow toggles. Each call flips the membership
// state for the acting user and reports the state it ended up in.
type Service interface {
	ToggleSongLike(ctx context.Context, userID, songID int64) (store.ToggleResult, error)
	ToggleAlbumLike(ctx context.Context, userID, albumID int64) (store.ToggleResult, error)
	ToggleArtistFollow(ctx context.Context, userID, artistID int64) (store.ToggleResult, error)
	TogglePlaylistFollow(ctx context.Context, userID, playlistID int64) (store.ToggleResult, error)
}

type service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) ToggleSongLike(ctx context.Context, userID, songID int64) (store.ToggleResult, error) {
	if err := ctx.Err(); err != nil {
		return store.ToggleResult{}, err
	}
	return s.store.ToggleSongLike(ctx, userID, songID)
}

func (s *service) ToggleAlbumLike(ctx context.Context, userID, albumID int64) (store.ToggleResult, error) {
	if err := ctx.Err(); err != nil {
		return store.ToggleResult{}, err
	}
	return s.store.ToggleAlbumLike(ctx, userID, albumID)
}

func (s *service) ToggleArtistFollow(ctx context.Context, userID, artistID int64) (store.ToggleResult, error) {
	if err := ctx.Err(); err != nil {
		return store.ToggleResult{}, err
	}
	return s.store.ToggleArtistFollow(ctx, userID, artistID)
}

func (s *service) TogglePlaylistFollow(ctx context.Context, userID, playlistID int64) (store.ToggleResult, error) {
	if err := ctx.Err(); err != nil {
		return store.ToggleResult{}, err
	}
	return s.store.TogglePlaylistFollow(ctx, userID, playlistID)
}
