package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Song models a track. AlbumID is nil for singles.
type Song struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	ArtistID        int64     `json:"artistId"`
	AlbumID         *int64    `json:"albumId,omitempty"`
	FeaturedArtists []int64   `json:"featuredArtists"`
	Duration        int       `json:"duration"`
	Genre           string    `json:"genre"`
	Lyrics          string    `json:"lyrics"`
	Explicit        bool      `json:"explicit"`
	CoverImage      string    `json:"coverImage"`
	AudioURL        string    `json:"audioUrl"`
	Plays           int       `json:"plays"`
	Likes           int       `json:"likes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// SongPatch carries a partial song update. Nil fields are left unchanged.
type SongPatch struct {
	Title      *string
	Genre      *string
	Lyrics     *string
	Duration   *int
	Explicit   *bool
	CoverImage *string
}

// SongFilter constrains the results returned by ListSongs.
type SongFilter struct {
	Genre  string
	Search string
	Page   int
	Limit  int
}

const songColumns = `id, title, artist_id, album_id, featured_artists, duration, genre, lyrics, explicit, cover_image, audio_url, plays, likes, created_at, updated_at`

// CreateSong inserts a new song and appends its id to the owning artist's song
// list, and to the album's song list when an album is given. Both the artist
// and the album are resolved and locked before the song row is written.
func (s *Store) CreateSong(ctx context.Context, song Song) (Song, error) {
	song.Title = strings.TrimSpace(song.Title)

	switch {
	case song.Title == "":
		return Song{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	case song.AudioURL == "" || song.CoverImage == "":
		return Song{}, fmt.Errorf("%w: audio and cover image are required", ErrInvalidInput)
	}

	var created Song
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var artistID int64
		if err := tx.QueryRowContext(ctx, `
			SELECT id FROM artists WHERE id = $1 FOR UPDATE
		`, song.ArtistID).Scan(&artistID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrArtistNotFound
			}
			return fmt.Errorf("lock artist: %w", err)
		}

		if song.AlbumID != nil {
			var albumID int64
			if err := tx.QueryRowContext(ctx, `
				SELECT id FROM albums WHERE id = $1 FOR UPDATE
			`, *song.AlbumID).Scan(&albumID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrAlbumNotFound
				}
				return fmt.Errorf("lock album: %w", err)
			}
		}

		featured := song.FeaturedArtists
		if featured == nil {
			featured = []int64{}
		}

		var err error
		created, err = scanSong(tx.QueryRowContext(ctx, `
			INSERT INTO songs (title, artist_id, album_id, featured_artists, duration, genre, lyrics, explicit, cover_image, audio_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING `+songColumns,
			song.Title, song.ArtistID, song.AlbumID, pq.Array(featured),
			song.Duration, song.Genre, song.Lyrics, song.Explicit, song.CoverImage, song.AudioURL))
		if err != nil {
			return fmt.Errorf("insert song: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE artists
			SET songs = array_append(songs, $1), updated_at = NOW()
			WHERE id = $2
		`, created.ID, song.ArtistID); err != nil {
			return fmt.Errorf("append song to artist: %w", err)
		}

		if song.AlbumID != nil {
			if _, err := tx.ExecContext(ctx, `
				UPDATE albums
				SET songs = array_append(songs, $1), updated_at = NOW()
				WHERE id = $2
			`, created.ID, *song.AlbumID); err != nil {
				return fmt.Errorf("append song to album: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Song{}, err
	}
	return created, nil
}

// SongByID returns a single song without touching its play counter.
func (s *Store) SongByID(ctx context.Context, id int64) (Song, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+songColumns+`
		FROM songs
		WHERE id = $1
	`, id)

	song, err := scanSong(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Song{}, ErrSongNotFound
		}
		return Song{}, fmt.Errorf("select song: %w", err)
	}
	return song, nil
}

// RecordPlay increments the song's play counter atomically and returns the
// song with the fresh count. Every successful single-song fetch counts as a
// play.
func (s *Store) RecordPlay(ctx context.Context, id int64) (Song, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE songs
		SET plays = plays + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING `+songColumns, id)

	song, err := scanSong(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Song{}, ErrSongNotFound
		}
		return Song{}, fmt.Errorf("record play: %w", err)
	}
	return song, nil
}

// ListSongs returns songs matching the filter plus the pre-pagination count.
// Free-text search covers title, genre and the artist's name.
func (s *Store) ListSongs(ctx context.Context, filter SongFilter) ([]Song, int, error) {
	var (
		clauses []string
		args    []any
	)

	if genre := strings.TrimSpace(filter.Genre); genre != "" {
		args = append(args, "%"+genre+"%")
		clauses = append(clauses, fmt.Sprintf("s.genre ILIKE $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(s.title ILIKE $%d OR s.genre ILIKE $%d OR ar.name ILIKE $%d)", n, n, n))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}
	from := ` FROM songs s JOIN artists ar ON ar.id = s.artist_id`

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count songs: %w", err)
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	args = append(args, limit, (page-1)*limit)
	query := `
		SELECT ` + prefixColumns("s.", songColumns) + from + where + fmt.Sprintf(`
		ORDER BY s.created_at DESC, s.id ASC
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select songs: %w", err)
	}
	defer rows.Close()

	songs, err := scanSongRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return songs, total, nil
}

// TopSongsByArtist returns the artist's most-played songs.
func (s *Store) TopSongsByArtist(ctx context.Context, artistID int64, limit int) ([]Song, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+songColumns+`
		FROM songs
		WHERE artist_id = $1
		ORDER BY plays DESC, id ASC
		LIMIT $2
	`, artistID, limit)
	if err != nil {
		return nil, fmt.Errorf("select top songs: %w", err)
	}
	defer rows.Close()

	return scanSongRows(rows)
}

// UpdateSong applies a partial update and returns the stored song.
func (s *Store) UpdateSong(ctx context.Context, id int64, patch SongPatch) (Song, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return Song{}, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
		}
		set("title", title)
	}
	if patch.Genre != nil {
		set("genre", strings.TrimSpace(*patch.Genre))
	}
	if patch.Lyrics != nil {
		set("lyrics", *patch.Lyrics)
	}
	if patch.Duration != nil {
		set("duration", *patch.Duration)
	}
	if patch.Explicit != nil {
		set("explicit", *patch.Explicit)
	}
	if patch.CoverImage != nil {
		set("cover_image", *patch.CoverImage)
	}

	if len(sets) == 0 {
		return s.SongByID(ctx, id)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		UPDATE songs
		SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), len(args), songColumns), args...)

	song, err := scanSong(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Song{}, ErrSongNotFound
		}
		return Song{}, fmt.Errorf("update song: %w", err)
	}
	return song, nil
}

// DeleteSong removes the song from its artist's and album's lists, from every
// playlist and every user's liked songs, then deletes the record. Reference
// cleanup precedes the delete inside one transaction. The returned song lets
// the caller release the stored media afterwards.
func (s *Store) DeleteSong(ctx context.Context, id int64) (Song, error) {
	var deleted Song
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		deleted, err = scanSong(tx.QueryRowContext(ctx, `
			SELECT `+songColumns+`
			FROM songs
			WHERE id = $1
			FOR UPDATE
		`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrSongNotFound
			}
			return fmt.Errorf("lock song: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE artists
			SET songs = array_remove(songs, $1), updated_at = NOW()
			WHERE id = $2
		`, id, deleted.ArtistID); err != nil {
			return fmt.Errorf("remove song from artist: %w", err)
		}

		if deleted.AlbumID != nil {
			if _, err := tx.ExecContext(ctx, `
				UPDATE albums
				SET songs = array_remove(songs, $1), updated_at = NOW()
				WHERE id = $2
			`, id, *deleted.AlbumID); err != nil {
				return fmt.Errorf("remove song from album: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE playlists
			SET songs = array_remove(songs, $1), updated_at = NOW()
			WHERE $1 = ANY(songs)
		`, id); err != nil {
			return fmt.Errorf("remove song from playlists: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET liked_songs = array_remove(liked_songs, $1), updated_at = NOW()
			WHERE $1 = ANY(liked_songs)
		`, id); err != nil {
			return fmt.Errorf("remove song from liked songs: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM songs WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete song: %w", err)
		}
		return nil
	})
	if err != nil {
		return Song{}, err
	}
	return deleted, nil
}

func scanSong(scanner rowScanner) (Song, error) {
	var (
		s        Song
		albumID  sql.NullInt64
		featured pq.Int64Array
	)
	if err := scanner.Scan(&s.ID, &s.Title, &s.ArtistID, &albumID, &featured, &s.Duration,
		&s.Genre, &s.Lyrics, &s.Explicit, &s.CoverImage, &s.AudioURL, &s.Plays, &s.Likes,
		&s.CreatedAt, &s.UpdatedAt); err != nil {
		return Song{}, err
	}
	if albumID.Valid {
		s.AlbumID = &albumID.Int64
	}
	s.FeaturedArtists = featured
	return s, nil
}

func scanSongRows(rows *sql.Rows) ([]Song, error) {
	var songs []Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return songs, nil
}
