package albums

import (
	"context"
	"time"

	"songvault/internal/media"
	"songvault/internal/store"
)

const coverFolder = "catalog/albums"

// Store captures the persistence needs for album workflows.
type Store interface {
	CreateAlbum(ctx context.Context, album store.Album) (store.Album, error)
	AlbumByID(ctx context.Context, id int64) (store.Album, error)
	ListAlbums(ctx context.Context, filter store.AlbumFilter) ([]store.Album, int, error)
	UpdateAlbum(ctx context.Context, id int64, patch store.AlbumPatch) (store.Album, error)
	DeleteAlbum(ctx context.Context, id int64) error
}

// CreateInput carries the fields for a new album. CoverPath points to a local
// temporary file still awaiting upload; empty means no cover was attached.
type CreateInput struct {
	Title       string
	ArtistID    int64
	ReleaseDate time.Time
	Genre       string
	Description string
	Explicit    bool
	CoverPath   string
}

// UpdateInput carries a partial album update plus an optional new cover.
type UpdateInput struct {
	Patch     store.AlbumPatch
	CoverPath string
}

// Service coordinates album-related operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (store.Album, error)
	List(ctx context.Context, filter store.AlbumFilter) ([]store.Album, int, error)
	Get(ctx context.Context, id int64) (store.Album, error)
	Update(ctx context.Context, id int64, input UpdateInput) (store.Album, error)
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

func (s *service) Create(ctx context.Context, input CreateInput) (store.Album, error) {
	if err := ctx.Err(); err != nil {
		return store.Album{}, err
	}

	album := store.Album{
		Title:       input.Title,
		ArtistID:    input.ArtistID,
		ReleaseDate: input.ReleaseDate,
		Genre:       input.Genre,
		Description: input.Description,
		Explicit:    input.Explicit,
	}

	if input.CoverPath != "" {
		url, err := s.uploader.Upload(ctx, input.CoverPath, coverFolder)
		if err != nil {
			return store.Album{}, err
		}
		album.CoverImage = url
	}

	return s.store.CreateAlbum(ctx, album)
}

func (s *service) List(ctx context.Context, filter store.AlbumFilter) ([]store.Album, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return s.store.ListAlbums(ctx, filter)
}

func (s *service) Get(ctx context.Context, id int64) (store.Album, error) {
	if err := ctx.Err(); err != nil {
		return store.Album{}, err
	}
	return s.store.AlbumByID(ctx, id)
}

func (s *service) Update(ctx context.Context, id int64, input UpdateInput) (store.Album, error) {
	if err := ctx.Err(); err != nil {
		return store.Album{}, err
	}

	patch := input.Patch
	if input.CoverPath != "" {
		url, err := s.uploader.Upload(ctx, input.CoverPath, coverFolder)
		if err != nil {
			return store.Album{}, err
		}
		patch.CoverImage = &url
	}

	return s.store.UpdateAlbum(ctx, id, patch)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeleteAlbum(ctx, id)
}
