package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrInvalidInput indicates a validation failure on caller-supplied data.
	ErrInvalidInput = errors.New("invalid input")

	// ErrArtistNotFound signals a missing artist record.
	ErrArtistNotFound = errors.New("artist not found")
	// ErrAlbumNotFound signals a missing album record.
	ErrAlbumNotFound = errors.New("album not found")
	// ErrSongNotFound signals a missing song record.
	ErrSongNotFound = errors.New("song not found")
	// ErrPlaylistNotFound signals a missing playlist record.
	ErrPlaylistNotFound = errors.New("playlist not found")
	// ErrUserNotFound signals a missing user record.
	ErrUserNotFound = errors.New("user not found")

	// ErrArtistExists signals the artist name is already taken.
	ErrArtistExists = errors.New("artist already exists")
	// ErrAlbumExists signals the album title is already taken.
	ErrAlbumExists = errors.New("album already exists")
	// ErrPlaylistExists signals the creator already has a playlist by that name.
	ErrPlaylistExists = errors.New("playlist already exists")
	// ErrUserExists signals the email is already registered.
	ErrUserExists = errors.New("user already exists")

	// ErrAlreadyCollaborator signals a duplicate collaborator addition.
	ErrAlreadyCollaborator = errors.New("user is already a collaborator")
	// ErrNotCollaborator signals removal of a user who is not a collaborator.
	ErrNotCollaborator = errors.New("user is not a collaborator")

	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrForbidden indicates the acting user may not perform the operation.
	ErrForbidden = errors.New("forbidden")
)

// Store provides persistence backed by Postgres. Every cross-entity write
// (cascade, toggle, membership change) runs inside a single transaction with
// the affected rows locked, so denormalized reference lists and counters do
// not drift from the primary record under concurrent requests.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	tx = nil
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
