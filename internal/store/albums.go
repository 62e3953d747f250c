package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lib/pq"
)

// Album models a release belonging to exactly one artist.
type Album struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	ArtistID    int64     `json:"artistId"`
	ReleaseDate time.Time `json:"releaseDate"`
	CoverImage  string    `json:"coverImage"`
	Songs       []int64   `json:"songs"`
	Genre       string    `json:"genre"`
	Description string    `json:"description"`
	Explicit    bool      `json:"explicit"`
	Likes       int       `json:"likes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AlbumPatch carries a partial album update. Nil fields are left unchanged.
type AlbumPatch struct {
	Title       *string
	Genre       *string
	Description *string
	Explicit    *bool
	CoverImage  *string
}

// AlbumFilter constrains the results returned by ListAlbums.
type AlbumFilter struct {
	Genre  string
	Search string
	Page   int
	Limit  int
}

const albumColumns = `id, title, artist_id, release_date, cover_image, songs, genre, description, explicit, likes, created_at, updated_at`

func validateAlbum(album Album) error {
	title := utf8.RuneCountInString(album.Title)
	desc := utf8.RuneCountInString(album.Description)
	switch {
	case title < 3 || title > 100:
		return fmt.Errorf("%w: title must be between 3 and 100 characters", ErrInvalidInput)
	case desc < 10 || desc > 500:
		return fmt.Errorf("%w: description must be between 10 and 500 characters", ErrInvalidInput)
	// Release dates carry day precision, so a release earlier today is
	// still "now", not the past.
	case album.ReleaseDate.Truncate(24 * time.Hour).Before(time.Now().UTC().Truncate(24 * time.Hour)):
		return fmt.Errorf("%w: release date cannot be in the past", ErrInvalidInput)
	}
	return nil
}

// CreateAlbum inserts a new album and appends its id to the owning artist's
// album list in the same transaction.
func (s *Store) CreateAlbum(ctx context.Context, album Album) (Album, error) {
	album.Title = strings.TrimSpace(album.Title)
	album.Description = strings.TrimSpace(album.Description)

	if err := validateAlbum(album); err != nil {
		return Album{}, err
	}

	var created Album
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var artistID int64
		if err := tx.QueryRowContext(ctx, `
			SELECT id FROM artists WHERE id = $1 FOR UPDATE
		`, album.ArtistID).Scan(&artistID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrArtistNotFound
			}
			return fmt.Errorf("lock artist: %w", err)
		}

		query := `
			INSERT INTO albums (title, artist_id, release_date, genre, description, explicit`
		args := []any{album.Title, album.ArtistID, album.ReleaseDate, album.Genre, album.Description, album.Explicit}
		placeholders := "$1, $2, $3, $4, $5, $6"
		if album.CoverImage != "" {
			args = append(args, album.CoverImage)
			query += ", cover_image"
			placeholders += ", $7"
		}
		query += `)
			VALUES (` + placeholders + `)
			RETURNING ` + albumColumns

		var err error
		created, err = scanAlbum(tx.QueryRowContext(ctx, query, args...))
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlbumExists
			}
			return fmt.Errorf("insert album: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE artists
			SET albums = array_append(albums, $1), updated_at = NOW()
			WHERE id = $2
		`, created.ID, album.ArtistID); err != nil {
			return fmt.Errorf("append album to artist: %w", err)
		}
		return nil
	})
	if err != nil {
		return Album{}, err
	}
	return created, nil
}

// AlbumByID returns a single album by its identifier.
func (s *Store) AlbumByID(ctx context.Context, id int64) (Album, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+albumColumns+`
		FROM albums
		WHERE id = $1
	`, id)

	album, err := scanAlbum(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Album{}, ErrAlbumNotFound
		}
		return Album{}, fmt.Errorf("select album: %w", err)
	}
	return album, nil
}

// ListAlbums returns albums matching the filter plus the pre-pagination count.
// Free-text search covers title, description, genre and the artist's name.
func (s *Store) ListAlbums(ctx context.Context, filter AlbumFilter) ([]Album, int, error) {
	var (
		clauses []string
		args    []any
	)

	if genre := strings.TrimSpace(filter.Genre); genre != "" {
		args = append(args, "%"+genre+"%")
		clauses = append(clauses, fmt.Sprintf("al.genre ILIKE $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(al.title ILIKE $%d OR al.description ILIKE $%d OR al.genre ILIKE $%d OR ar.name ILIKE $%d)", n, n, n, n))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}
	from := ` FROM albums al JOIN artists ar ON ar.id = al.artist_id`

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count albums: %w", err)
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	args = append(args, limit, (page-1)*limit)
	query := `
		SELECT ` + prefixColumns("al.", albumColumns) + from + where + fmt.Sprintf(`
		ORDER BY al.release_date DESC, al.id ASC
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select albums: %w", err)
	}
	defer rows.Close()

	albums, err := scanAlbumRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return albums, total, nil
}

// UpdateAlbum applies a partial update and returns the stored album.
func (s *Store) UpdateAlbum(ctx context.Context, id int64, patch AlbumPatch) (Album, error) {
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
		if n := utf8.RuneCountInString(title); n < 3 || n > 100 {
			return Album{}, fmt.Errorf("%w: title must be between 3 and 100 characters", ErrInvalidInput)
		}
		set("title", title)
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		if n := utf8.RuneCountInString(desc); n < 10 || n > 500 {
			return Album{}, fmt.Errorf("%w: description must be between 10 and 500 characters", ErrInvalidInput)
		}
		set("description", desc)
	}
	if patch.Genre != nil {
		set("genre", strings.TrimSpace(*patch.Genre))
	}
	if patch.Explicit != nil {
		set("explicit", *patch.Explicit)
	}
	if patch.CoverImage != nil {
		set("cover_image", *patch.CoverImage)
	}

	if len(sets) == 0 {
		return s.AlbumByID(ctx, id)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		UPDATE albums
		SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), len(args), albumColumns), args...)

	album, err := scanAlbum(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Album{}, ErrAlbumNotFound
		}
		if isUniqueViolation(err) {
			return Album{}, ErrAlbumExists
		}
		return Album{}, fmt.Errorf("update album: %w", err)
	}
	return album, nil
}

// DeleteAlbum removes the album, detaches its songs and cleans up every list
// referencing it. The songs themselves survive as singles.
func (s *Store) DeleteAlbum(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var artistID int64
		if err := tx.QueryRowContext(ctx, `
			SELECT artist_id FROM albums WHERE id = $1 FOR UPDATE
		`, id).Scan(&artistID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAlbumNotFound
			}
			return fmt.Errorf("lock album: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE artists
			SET albums = array_remove(albums, $1), updated_at = NOW()
			WHERE id = $2
		`, id, artistID); err != nil {
			return fmt.Errorf("remove album from artist: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE songs SET album_id = NULL, updated_at = NOW() WHERE album_id = $1
		`, id); err != nil {
			return fmt.Errorf("detach album songs: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET liked_albums = array_remove(liked_albums, $1), updated_at = NOW()
			WHERE $1 = ANY(liked_albums)
		`, id); err != nil {
			return fmt.Errorf("clean liked albums: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM albums WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete album: %w", err)
		}
		return nil
	})
}

func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = prefix + p
	}
	return strings.Join(parts, ", ")
}

func scanAlbum(scanner rowScanner) (Album, error) {
	var (
		a     Album
		songs pq.Int64Array
	)
	if err := scanner.Scan(&a.ID, &a.Title, &a.ArtistID, &a.ReleaseDate, &a.CoverImage,
		&songs, &a.Genre, &a.Description, &a.Explicit, &a.Likes, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Album{}, err
	}
	a.Songs = songs
	return a, nil
}

func scanAlbumRows(rows *sql.Rows) ([]Album, error) {
	var albums []Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		albums = append(albums, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate albums: %w", err)
	}
	return albums, nil
}
