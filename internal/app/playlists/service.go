package playlists

import (
	"context"

	"songvault/internal/media"
	"songvault/internal/store"
)

const coverFolder = "catalog/playlists"

// Store captures the persistence needs for playlist workflows.
type Store interface {
	CreatePlaylist(ctx context.Context, playlist store.Playlist) (store.Playlist, error)
	PlaylistByID(ctx context.Context, viewerID, id int64) (store.Playlist, error)
	ListPlaylists(ctx context.Context, filter store.PlaylistFilter) ([]store.Playlist, int, error)
	PlaylistsByUser(ctx context.Context, userID int64) ([]store.Playlist, error)
	UpdatePlaylist(ctx context.Context, actorID, id int64, patch store.PlaylistPatch) (store.Playlist, error)
	DeletePlaylist(ctx context.Context, actorID, id int64) error
	AddSongsToPlaylist(ctx context.Context, actorID, playlistID int64, songIDs []int64) (store.Playlist, error)
	RemoveSongFromPlaylist(ctx context.Context, actorID, playlistID, songID int64) (store.Playlist, error)
	AddCollaborator(ctx context.Context, actorID, playlistID, userID int64) (store.Playlist, error)
	RemoveCollaborator(ctx context.Context, actorID, playlistID, userID int64) (store.Playlist, error)
}

// CreateInput carries the fields for a new playlist. CoverPath points to a
// local temporary file still awaiting upload; empty means no cover.
type CreateInput struct {
	Name        string
	Description string
	IsPublic    bool
	CoverPath   string
}

// UpdateInput carries a partial playlist update plus an optional new cover.
type UpdateInput struct {
	Patch     store.PlaylistPatch
	CoverPath string
}

// Service coordinates playlist-related operations. Every mutation takes the
// acting user explicitly; ownership and collaborator checks happen in the
// store inside the same transaction as the write.
type Service interface {
	Create(ctx context.Context, creatorID int64, input CreateInput) (store.Playlist, error)
	List(ctx context.Context, filter store.PlaylistFilter) ([]store.Playlist, int, error)
	ListMine(ctx context.Context, userID int64) ([]store.Playlist, error)
	Get(ctx context.Context, viewerID, id int64) (store.Playlist, error)
	Update(ctx context.Context, actorID, id int64, input UpdateInput) (store.Playlist, error)
	Delete(ctx context.Context, actorID, id int64) error
	AddSongs(ctx context.Context, actorID, playlistID int64, songIDs []int64) (store.Playlist, error)
	RemoveSong(ctx context.Context, actorID, playlistID, songID int64) (store.Playlist, error)
	AddCollaborator(ctx context.Context, actorID, playlistID, userID int64) (store.Playlist, error)
	RemoveCollaborator(ctx context.Context, actorID, playlistID, userID int64) (store.Playlist, error)
}

type service struct {
	store    Store
	uploader media.Uploader
}

// New constructs a Service backed by the provided Store and upload gateway.
func New(store Store, uploader media.Uploader) Service {
	return &service{store: store, uploader: uploader}
}

func (s *service) Create(ctx context.Context, creatorID int64, input CreateInput) (store.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return store.Playlist{}, err
	}

	playlist := store.Playlist{
		Name:        input.Name,
		Description: input.Description,
		CreatorID:   creatorID,
		IsPublic:    input.IsPublic,
	}

	if input.CoverPath != "" {
		url, err := s.uploader.Upload(ctx, input.CoverPath, coverFolder)
		if err != nil {
			return store.Playlist{}, err
		}
		playlist.CoverImage = url
	}

	return s.store.CreatePlaylist(ctx, playlist)
}

func (s *service) List(ctx context.Context, filter store.PlaylistFilter) ([]store.Playlist, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return s.store.ListPlaylists(ctx, filter)
}

func (s *service) ListMine(ctx context.Context, userID int64) ([]store.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.PlaylistsByUser(ctx, userID)
}

func (s *service) Get(ctx context.Context, viewerID, id int64) (store.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return store.Playlist{}, err
	}
	return s.store.PlaylistByID(ctx, viewerID, id)
}

func (s *service) Update(ctx context.Context, actorID, id int64, input UpdateInput) (store.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return store.Playlist{}, err
	}

	patch := input.Patch
	if input.CoverPath != "" {
		url, err := s.uploader.Upload(ctx, input.CoverPath, coverFolder)
		if err != nil {
			return store.Playlist{}, err
		}
		patch.CoverImage = &url
	}

	return s.store.UpdatePlaylist(ctx, actorID, id, patch)
}

func (s *service) Delete(ctx context.Context, actorID, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeletePlaylist(ctx, actorID, id)
}

func (s *service) AddSongs(ctx context.Context, actorID, playlistID int64, songIDs []int64) (store.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return store.Playlist{}, err
	}
	return s.store.AddSongsToPlaylist(ctx, actorID, playlistID, songIDs)
}

func (s *service) RemoveSong(ctx context.Context, actorID, playlistID, songID int64) (store.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return store.Playlist{}, err
	}
	return s.store.RemoveSongFromPlaylist(ctx, actorID, playlistID, songID)
}

func (s *service) AddCollaborator(ctx context.Context, actorID, playlistID, userID int64) (store.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return store.Playlist{}, err
	}
	return s.store.AddCollaborator(ctx, actorID, playlistID, userID)
}

func (s *service) RemoveCollaborator(ctx context.Context, actorID, playlistID, userID int64) (store.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return store.Playlist{}, err
	}
	return s.store.RemoveCollaborator(ctx, actorID, playlistID, userID)
}
