package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ToggleResult reports the membership state after a toggle, plus the target's
// fresh counter value.
type ToggleResult struct {
	Active bool `json:"active"`
	Count  int  `json:"count"`
}

// toggleSpec names the tables and columns a toggle operates on. The user's set
// column and the target's counter column flip together inside one transaction.
type toggleSpec struct {
	userColumn  string
	targetTable string
	counter     string
	notFound    error
}

var (
	songLikeSpec = toggleSpec{
		userColumn:  "liked_songs",
		targetTable: "songs",
		counter:     "likes",
		notFound:    ErrSongNotFound,
	}
	albumLikeSpec = toggleSpec{
		userColumn:  "liked_albums",
		targetTable: "albums",
		counter:     "likes",
		notFound:    ErrAlbumNotFound,
	}
	artistFollowSpec = toggleSpec{
		userColumn:  "followed_artists",
		targetTable: "artists",
		counter:     "followers",
		notFound:    ErrArtistNotFound,
	}
	playlistFollowSpec = toggleSpec{
		userColumn:  "followed_playlists",
		targetTable: "playlists",
		counter:     "followers",
		notFound:    ErrPlaylistNotFound,
	}
)

// ToggleSongLike likes the song for the user, or unlikes it when already
// liked. Returns the new membership state and like count.
func (s *Store) ToggleSongLike(ctx context.Context, userID, songID int64) (ToggleResult, error) {
	return s.toggle(ctx, userID, songID, songLikeSpec)
}

// ToggleAlbumLike likes or unlikes the album for the user.
func (s *Store) ToggleAlbumLike(ctx context.Context, userID, albumID int64) (ToggleResult, error) {
	return s.toggle(ctx, userID, albumID, albumLikeSpec)
}

// ToggleArtistFollow follows or unfollows the artist for the user.
func (s *Store) ToggleArtistFollow(ctx context.Context, userID, artistID int64) (ToggleResult, error) {
	return s.toggle(ctx, userID, artistID, artistFollowSpec)
}

// TogglePlaylistFollow follows or unfollows the playlist for the user.
func (s *Store) TogglePlaylistFollow(ctx context.Context, userID, playlistID int64) (ToggleResult, error) {
	return s.toggle(ctx, userID, playlistID, playlistFollowSpec)
}

// toggle serializes concurrent toggles on the same (user, target) pair by
// locking both rows. The target row is locked before the user row, matching
// the order delete cascades acquire locks, so a toggle racing a delete cannot
// deadlock. The counter decrement clamps at zero.
func (s *Store) toggle(ctx context.Context, userID, targetID int64, spec toggleSpec) (ToggleResult, error) {
	var result ToggleResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int64
		if err := tx.QueryRowContext(ctx, fmt.Sprintf(`
			SELECT id FROM %s WHERE id = $1 FOR UPDATE
		`, spec.targetTable), targetID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return spec.notFound
			}
			return fmt.Errorf("lock %s: %w", spec.targetTable, err)
		}

		var memberAlready bool
		err := tx.QueryRowContext(ctx, fmt.Sprintf(`
			SELECT $1 = ANY(%s) FROM users WHERE id = $2 FOR UPDATE
		`, spec.userColumn), targetID, userID).Scan(&memberAlready)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		if memberAlready {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
				UPDATE users
				SET %s = array_remove(%s, $1), updated_at = NOW()
				WHERE id = $2
			`, spec.userColumn, spec.userColumn), targetID, userID); err != nil {
				return fmt.Errorf("remove from %s: %w", spec.userColumn, err)
			}
			if err := tx.QueryRowContext(ctx, fmt.Sprintf(`
				UPDATE %s
				SET %s = GREATEST(%s - 1, 0), updated_at = NOW()
				WHERE id = $1
				RETURNING %s
			`, spec.targetTable, spec.counter, spec.counter, spec.counter), targetID).Scan(&result.Count); err != nil {
				return fmt.Errorf("decrement %s: %w", spec.counter, err)
			}
			result.Active = false
			return nil
		}

		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
			UPDATE users
			SET %s = array_append(%s, $1), updated_at = NOW()
			WHERE id = $2
		`, spec.userColumn, spec.userColumn), targetID, userID); err != nil {
			return fmt.Errorf("append to %s: %w", spec.userColumn, err)
		}
		if err := tx.QueryRowContext(ctx, fmt.Sprintf(`
			UPDATE %s
			SET %s = %s + 1, updated_at = NOW()
			WHERE id = $1
			RETURNING %s
		`, spec.targetTable, spec.counter, spec.counter, spec.counter), targetID).Scan(&result.Count); err != nil {
			return fmt.Errorf("increment %s: %w", spec.counter, err)
		}
		result.Active = true
		return nil
	})
	if err != nil {
		return ToggleResult{}, err
	}
	return result, nil
}
