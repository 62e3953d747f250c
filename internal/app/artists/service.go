package artists

import (
	"context"

	"songvault/internal/media"
	"songvault/internal/store"
)

const imageFolder = "catalog/artists"

// Store captures the persistence needs for artist workflows.
type Store interface {
	CreateArtist(ctx context.Context, artist store.Artist) (store.Artist, error)
	ArtistByID(ctx context.Context, id int64) (store.Artist, error)
	ListArtists(ctx context.Context, filter store.ArtistFilter) ([]store.Artist, int, error)
	TopArtists(ctx context.Context, limit int) ([]store.Artist, error)
	TopSongsByArtist(ctx context.Context, artistID int64, limit int) ([]store.Song, error)
	UpdateArtist(ctx context.Context, id int64, patch store.ArtistPatch) (store.Artist, error)
	DeleteArtist(ctx context.Context, id int64) error
}

// CreateInput carries the fields for a new artist. ImagePath points to a local
// temporary file still awaiting upload; empty means no image was attached.
type CreateInput struct {
	Name      string
	Bio       string
	Genres    []string
	ImagePath string
}

// UpdateInput carries a partial artist update plus an optional new image.
type UpdateInput struct {
	Patch     store.ArtistPatch
	ImagePath string
}

// Service coordinates artist-related operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (store.Artist, error)
	List(ctx context.Context, filter store.ArtistFilter) ([]store.Artist, int, error)
	Get(ctx context.Context, id int64) (store.Artist, error)
	Top(ctx context.Context, limit int) ([]store.Artist, error)
	TopSongs(ctx context.Context, id int64, limit int) ([]store.Song, error)
	Update(ctx context.Context, id int64, input UpdateInput) (store.Artist, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	store    Store
	uploader media.Uploader
}

// New constructs a Service backed by the provided Store and upload gateway.
func New(store Store, uploader media.Uploader) Service {
	return &service{store: store, uploader: uploader}
}

func (s *service) Create(ctx context.Context, input CreateInput) (store.Artist, error) {
	if err := ctx.Err(); err != nil {
		return store.Artist{}, err
	}

	artist := store.Artist{
		Name:   input.Name,
		Bio:    input.Bio,
		Genres: input.Genres,
		// Artists created through the catalog are verified.
		Verified: true,
	}

	if input.ImagePath != "" {
		url, err := s.uploader.Upload(ctx, input.ImagePath, imageFolder)
		if err != nil {
			return store.Artist{}, err
		}
		artist.Image = url
	}

	return s.store.CreateArtist(ctx, artist)
}

func (s *service) List(ctx context.Context, filter store.ArtistFilter) ([]store.Artist, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return s.store.ListArtists(ctx, filter)
}

func (s *service) Get(ctx context.Context, id int64) (store.Artist, error) {
	if err := ctx.Err(); err != nil {
		return store.Artist{}, err
	}
	return s.store.ArtistByID(ctx, id)
}

func (s *service) Top(ctx context.Context, limit int) ([]store.Artist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.TopArtists(ctx, limit)
}

func (s *service) TopSongs(ctx context.Context, id int64, limit int) ([]store.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := s.store.ArtistByID(ctx, id); err != nil {
		return nil, err
	}
	return s.store.TopSongsByArtist(ctx, id, limit)
}

func (s *service) Update(ctx context.Context, id int64, input UpdateInput) (store.Artist, error) {
	if err := ctx.Err(); err != nil {
		return store.Artist{}, err
	}

	patch := input.Patch
	if input.ImagePath != "" {
		url, err := s.uploader.Upload(ctx, input.ImagePath, imageFolder)
		if err != nil {
			return store.Artist{}, err
		}
		patch.Image = &url
	}

	return s.store.UpdateArtist(ctx, id, patch)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeleteArtist(ctx, id)
}
