package songs

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"songvault/internal/media"
	"songvault/internal/store"
)

const (
	audioFolder = "catalog/songs/audio"
	coverFolder = "catalog/songs/covers"
)

// Store captures the persistence needs for song workflows.
type Store interface {
	CreateSong(ctx context.Context, song store.Song) (store.Song, error)
	SongByID(ctx context.Context, id int64) (store.Song, error)
	RecordPlay(ctx context.Context, id int64) (store.Song, error)
	ListSongs(ctx context.Context, filter store.SongFilter) ([]store.Song, int, error)
	UpdateSong(ctx context.Context, id int64, patch store.SongPatch) (store.Song, error)
	DeleteSong(ctx context.Context, id int64) (store.Song, error)
}

// CreateInput carries the fields for a new song. AudioPath and CoverPath point
// to local temporary files awaiting upload; both are mandatory.
type CreateInput struct {
	Title           string
	ArtistID        int64
	AlbumID         *int64
	FeaturedArtists []int64
	Duration        int
	Genre           string
	Lyrics          string
	Explicit        bool
	AudioPath       string
	CoverPath       string
}

// UpdateInput carries a partial song update plus an optional new cover.
type UpdateInput struct {
	Patch     store.SongPatch
	CoverPath string
}

// Service coordinates song-related operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (store.Song, error)
	List(ctx context.Context, filter store.SongFilter) ([]store.Song, int, error)
	Get(ctx context.Context, id int64) (store.Song, error)
	Update(ctx context.Context, id int64, input UpdateInput) (store.Song, error)
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

func (s *service) Create(ctx context.Context, input CreateInput) (store.Song, error) {
	if err := ctx.Err(); err != nil {
		return store.Song{}, err
	}

	if input.AudioPath == "" || input.CoverPath == "" {
		return store.Song{}, fmt.Errorf("%w: audio and cover image are required", store.ErrInvalidInput)
	}

	audioURL, err := s.uploader.Upload(ctx, input.AudioPath, audioFolder)
	if err != nil {
		// The cover spool never reaches the gateway on this path.
		os.Remove(input.CoverPath)
		return store.Song{}, err
	}
	coverURL, err := s.uploader.Upload(ctx, input.CoverPath, coverFolder)
	if err != nil {
		return store.Song{}, err
	}

	return s.store.CreateSong(ctx, store.Song{
		Title:           input.Title,
		ArtistID:        input.ArtistID,
		AlbumID:         input.AlbumID,
		FeaturedArtists: input.FeaturedArtists,
		Duration:        input.Duration,
		Genre:           input.Genre,
		Lyrics:          input.Lyrics,
		Explicit:        input.Explicit,
		AudioURL:        audioURL,
		CoverImage:      coverURL,
	})
}

func (s *service) List(ctx context.Context, filter store.SongFilter) ([]store.Song, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return s.store.ListSongs(ctx, filter)
}

// Get returns the song and counts the fetch as a play.
func (s *service) Get(ctx context.Context, id int64) (store.Song, error) {
	if err := ctx.Err(); err != nil {
		return store.Song{}, err
	}
	return s.store.RecordPlay(ctx, id)
}

func (s *service) Update(ctx context.Context, id int64, input UpdateInput) (store.Song, error) {
	if err := ctx.Err(); err != nil {
		return store.Song{}, err
	}

	patch := input.Patch
	if input.CoverPath != "" {
		url, err := s.uploader.Upload(ctx, input.CoverPath, coverFolder)
		if err != nil {
			return store.Song{}, err
		}
		patch.CoverImage = &url
	}

	return s.store.UpdateSong(ctx, id, patch)
}

// Delete removes the song record and its references, then releases the stored
// audio and cover. Asset deletion is best-effort and never fails the request.
func (s *service) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	deleted, err := s.store.DeleteSong(ctx, id)
	if err != nil {
		return err
	}

	for _, assetURL := range []string{deleted.AudioURL, deleted.CoverImage} {
		if assetURL == "" {
			continue
		}
		if err := s.uploader.DeleteByReference(ctx, assetURL); err != nil {
			log.Warn().Err(err).Str("asset_url", assetURL).Msg("failed to delete song asset")
		}
	}
	return nil
}
