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

// Artist models a catalog artist with its denormalized song/album references.
type Artist struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	Image     string    `json:"image"`
	Genres    []string  `json:"genres"`
	Followers int       `json:"followers"`
	Albums    []int64   `json:"albums"`
	Songs     []int64   `json:"songs"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ArtistPatch carries a partial artist update. Nil fields are left unchanged.
type ArtistPatch struct {
	Name     *string
	Bio      *string
	Genres   *[]string
	Image    *string
	Verified *bool
}

// ArtistFilter constrains the results returned by ListArtists.
type ArtistFilter struct {
	Genre  string
	Search string
	Page   int
	Limit  int
}

const artistColumns = `id, name, bio, image, genres, followers, albums, songs, verified, created_at, updated_at`

// CreateArtist inserts a new artist.
func (s *Store) CreateArtist(ctx context.Context, artist Artist) (Artist, error) {
	artist.Name = strings.TrimSpace(artist.Name)
	artist.Bio = strings.TrimSpace(artist.Bio)

	switch {
	case artist.Name == "":
		return Artist{}, fmt.Errorf("%w: name, genres, and bio are required", ErrInvalidInput)
	case artist.Bio == "":
		return Artist{}, fmt.Errorf("%w: name, genres, and bio are required", ErrInvalidInput)
	case len(artist.Genres) == 0:
		return Artist{}, fmt.Errorf("%w: name, genres, and bio are required", ErrInvalidInput)
	}

	query := `
		INSERT INTO artists (name, bio, genres, verified`
	args := []any{artist.Name, artist.Bio, pq.Array(artist.Genres), artist.Verified}
	placeholders := "$1, $2, $3, $4"
	if artist.Image != "" {
		args = append(args, artist.Image)
		query += ", image"
		placeholders += ", $5"
	}
	query += `)
		VALUES (` + placeholders + `)
		RETURNING ` + artistColumns

	created, err := scanArtist(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return Artist{}, ErrArtistExists
		}
		return Artist{}, fmt.Errorf("insert artist: %w", err)
	}
	return created, nil
}

// ArtistByID returns a single artist by its identifier.
func (s *Store) ArtistByID(ctx context.Context, id int64) (Artist, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+artistColumns+`
		FROM artists
		WHERE id = $1
	`, id)

	artist, err := scanArtist(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Artist{}, ErrArtistNotFound
		}
		return Artist{}, fmt.Errorf("select artist: %w", err)
	}
	return artist, nil
}

// ListArtists returns artists matching the filter plus the pre-pagination count.
func (s *Store) ListArtists(ctx context.Context, filter ArtistFilter) ([]Artist, int, error) {
	var (
		clauses []string
		args    []any
	)

	if genre := strings.TrimSpace(filter.Genre); genre != "" {
		args = append(args, genre)
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(genres)", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(name ILIKE $%d OR EXISTS (SELECT 1 FROM unnest(genres) g WHERE g ILIKE $%d))", n, n))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artists`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count artists: %w", err)
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	args = append(args, limit, (page-1)*limit)
	query := `
		SELECT ` + artistColumns + `
		FROM artists` + where + fmt.Sprintf(`
		ORDER BY followers DESC, id ASC
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select artists: %w", err)
	}
	defer rows.Close()

	artists, err := scanArtistRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return artists, total, nil
}

// TopArtists returns the most-followed artists.
func (s *Store) TopArtists(ctx context.Context, limit int) ([]Artist, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+artistColumns+`
		FROM artists
		ORDER BY followers DESC, id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("select top artists: %w", err)
	}
	defer rows.Close()

	return scanArtistRows(rows)
}

// UpdateArtist applies a partial update and returns the stored artist.
func (s *Store) UpdateArtist(ctx context.Context, id int64, patch ArtistPatch) (Artist, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return Artist{}, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		set("name", name)
	}
	if patch.Bio != nil {
		set("bio", strings.TrimSpace(*patch.Bio))
	}
	if patch.Genres != nil {
		set("genres", pq.Array(*patch.Genres))
	}
	if patch.Image != nil {
		set("image", *patch.Image)
	}
	if patch.Verified != nil {
		set("verified", *patch.Verified)
	}

	if len(sets) == 0 {
		return s.ArtistByID(ctx, id)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		UPDATE artists
		SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), len(args), artistColumns), args...)

	artist, err := scanArtist(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Artist{}, ErrArtistNotFound
		}
		if isUniqueViolation(err) {
			return Artist{}, ErrArtistExists
		}
		return Artist{}, fmt.Errorf("update artist: %w", err)
	}
	return artist, nil
}

// DeleteArtist removes the artist and hard-deletes its entire catalog: every
// song and album owned by the artist, plus every reference other entities hold
// to those records.
func (s *Store) DeleteArtist(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int64
		if err := tx.QueryRowContext(ctx, `
			SELECT id FROM artists WHERE id = $1 FOR UPDATE
		`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrArtistNotFound
			}
			return fmt.Errorf("lock artist: %w", err)
		}

		songIDs, err := collectIDs(tx.QueryContext(ctx, `
			SELECT id FROM songs WHERE artist_id = $1 FOR UPDATE
		`, id))
		if err != nil {
			return fmt.Errorf("collect artist songs: %w", err)
		}
		albumIDs, err := collectIDs(tx.QueryContext(ctx, `
			SELECT id FROM albums WHERE artist_id = $1 FOR UPDATE
		`, id))
		if err != nil {
			return fmt.Errorf("collect artist albums: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE playlists
			SET songs = (
				SELECT COALESCE(ARRAY_AGG(s ORDER BY ord), '{}')
				FROM unnest(songs) WITH ORDINALITY AS t(s, ord)
				WHERE NOT (s = ANY($1))
			), updated_at = NOW()
			WHERE songs && $1
		`, pq.Array(songIDs)); err != nil {
			return fmt.Errorf("clean playlist songs: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET liked_songs = (
				SELECT COALESCE(ARRAY_AGG(s), '{}')
				FROM unnest(liked_songs) s
				WHERE NOT (s = ANY($1))
			),
			liked_albums = (
				SELECT COALESCE(ARRAY_AGG(a), '{}')
				FROM unnest(liked_albums) a
				WHERE NOT (a = ANY($2))
			),
			followed_artists = array_remove(followed_artists, $3),
			updated_at = NOW()
			WHERE liked_songs && $1 OR liked_albums && $2 OR $3 = ANY(followed_artists)
		`, pq.Array(songIDs), pq.Array(albumIDs), id); err != nil {
			return fmt.Errorf("clean user references: %w", err)
		}

		// Songs by other artists may sit on this artist's albums. Detach
		// them before the album delete or the foreign key blocks it.
		if _, err := tx.ExecContext(ctx, `
			UPDATE songs
			SET album_id = NULL, updated_at = NOW()
			WHERE album_id = ANY($1) AND artist_id <> $2
		`, pq.Array(albumIDs), id); err != nil {
			return fmt.Errorf("detach foreign songs: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE songs
			SET featured_artists = array_remove(featured_artists, $1), updated_at = NOW()
			WHERE $1 = ANY(featured_artists)
		`, id); err != nil {
			return fmt.Errorf("clean featured references: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE albums
			SET songs = (
				SELECT COALESCE(ARRAY_AGG(s ORDER BY ord), '{}')
				FROM unnest(songs) WITH ORDINALITY AS t(s, ord)
				WHERE NOT (s = ANY($1))
			), updated_at = NOW()
			WHERE songs && $1 AND artist_id <> $2
		`, pq.Array(songIDs), id); err != nil {
			return fmt.Errorf("clean foreign album songs: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM songs WHERE artist_id = $1`, id); err != nil {
			return fmt.Errorf("delete artist songs: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM albums WHERE artist_id = $1`, id); err != nil {
			return fmt.Errorf("delete artist albums: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM artists WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete artist: %w", err)
		}
		return nil
	})
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}

func collectIDs(rows *sql.Rows, err error) ([]int64, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtist(scanner rowScanner) (Artist, error) {
	var (
		a      Artist
		genres pq.StringArray
		albums pq.Int64Array
		songs  pq.Int64Array
	)
	if err := scanner.Scan(&a.ID, &a.Name, &a.Bio, &a.Image, &genres, &a.Followers,
		&albums, &songs, &a.Verified, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Artist{}, err
	}
	a.Genres = genres
	a.Albums = albums
	a.Songs = songs
	return a, nil
}

func scanArtistRows(rows *sql.Rows) ([]Artist, error) {
	var artists []Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artist: %w", err)
		}
		artists = append(artists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artists: %w", err)
	}
	return artists, nil
}
