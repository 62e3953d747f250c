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

// Playlist models a user-curated song list. The creator is implicitly allowed
// everything a collaborator is, but is never stored in Collaborators.
type Playlist struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	CoverImage    string    `json:"coverImage"`
	CreatorID     int64     `json:"creatorId"`
	Collaborators []int64   `json:"collaborators"`
	Songs         []int64   `json:"songs"`
	IsPublic      bool      `json:"isPublic"`
	Followers     int       `json:"followers"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PlaylistPatch carries a partial playlist update. Nil fields are left unchanged.
type PlaylistPatch struct {
	Name        *string
	Description *string
	IsPublic    *bool
	CoverImage  *string
}

// PlaylistFilter constrains the results returned by ListPlaylists.
type PlaylistFilter struct {
	Search string
	Page   int
	Limit  int
}

const playlistColumns = `id, name, description, cover_image, creator_id, collaborators, songs, is_public, followers, created_at, updated_at`

func validatePlaylist(name, description string) error {
	if n := utf8.RuneCountInString(name); n < 3 || n > 50 {
		return fmt.Errorf("%w: name must be between 3 and 50 characters", ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(description); description != "" && (n < 3 || n > 100) {
		return fmt.Errorf("%w: description must be between 3 and 100 characters", ErrInvalidInput)
	}
	return nil
}

func (p Playlist) canEdit(userID int64) bool {
	return p.CreatorID == userID || containsID(p.Collaborators, userID)
}

// CreatePlaylist inserts a new playlist owned by creatorID.
func (s *Store) CreatePlaylist(ctx context.Context, playlist Playlist) (Playlist, error) {
	playlist.Name = strings.TrimSpace(playlist.Name)
	playlist.Description = strings.TrimSpace(playlist.Description)

	if err := validatePlaylist(playlist.Name, playlist.Description); err != nil {
		return Playlist{}, err
	}

	query := `
		INSERT INTO playlists (name, description, creator_id, is_public`
	args := []any{playlist.Name, playlist.Description, playlist.CreatorID, playlist.IsPublic}
	placeholders := "$1, $2, $3, $4"
	if playlist.CoverImage != "" {
		args = append(args, playlist.CoverImage)
		query += ", cover_image"
		placeholders += ", $5"
	}
	query += `)
		VALUES (` + placeholders + `)
		RETURNING ` + playlistColumns

	created, err := scanPlaylist(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return Playlist{}, ErrPlaylistExists
		}
		return Playlist{}, fmt.Errorf("insert playlist: %w", err)
	}
	return created, nil
}

// PlaylistByID returns a single playlist. Private playlists are only visible
// to their creator and collaborators.
func (s *Store) PlaylistByID(ctx context.Context, viewerID, id int64) (Playlist, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+playlistColumns+`
		FROM playlists
		WHERE id = $1
	`, id)

	playlist, err := scanPlaylist(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Playlist{}, ErrPlaylistNotFound
		}
		return Playlist{}, fmt.Errorf("select playlist: %w", err)
	}

	if !playlist.IsPublic && !playlist.canEdit(viewerID) {
		return Playlist{}, ErrForbidden
	}
	return playlist, nil
}

// ListPlaylists returns public playlists matching the filter plus the
// pre-pagination count, most-followed first.
func (s *Store) ListPlaylists(ctx context.Context, filter PlaylistFilter) ([]Playlist, int, error) {
	clauses := []string{"is_public = TRUE"}
	var args []any

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", n, n))
	}

	where := " WHERE " + strings.Join(clauses, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM playlists`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count playlists: %w", err)
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	args = append(args, limit, (page-1)*limit)
	query := `
		SELECT ` + playlistColumns + `
		FROM playlists` + where + fmt.Sprintf(`
		ORDER BY followers DESC, id ASC
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select playlists: %w", err)
	}
	defer rows.Close()

	playlists, err := scanPlaylistRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return playlists, total, nil
}

// PlaylistsByUser returns every playlist the user created or collaborates on.
func (s *Store) PlaylistsByUser(ctx context.Context, userID int64) ([]Playlist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+playlistColumns+`
		FROM playlists
		WHERE creator_id = $1 OR $1 = ANY(collaborators)
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select user playlists: %w", err)
	}
	defer rows.Close()

	return scanPlaylistRows(rows)
}

// UpdatePlaylist applies a partial update on behalf of actorID, who must be
// the creator or a collaborator.
func (s *Store) UpdatePlaylist(ctx context.Context, actorID, id int64, patch PlaylistPatch) (Playlist, error) {
	var updated Playlist
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		playlist, err := lockPlaylist(ctx, tx, id)
		if err != nil {
			return err
		}
		if !playlist.canEdit(actorID) {
			return ErrForbidden
		}

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
			if err := validatePlaylist(name, ""); err != nil {
				return err
			}
			set("name", name)
		}
		if patch.Description != nil {
			desc := strings.TrimSpace(*patch.Description)
			if n := utf8.RuneCountInString(desc); desc != "" && (n < 3 || n > 100) {
				return fmt.Errorf("%w: description must be between 3 and 100 characters", ErrInvalidInput)
			}
			set("description", desc)
		}
		if patch.IsPublic != nil {
			set("is_public", *patch.IsPublic)
		}
		if patch.CoverImage != nil {
			set("cover_image", *patch.CoverImage)
		}

		if len(sets) == 0 {
			updated = playlist
			return nil
		}
		sets = append(sets, "updated_at = NOW()")

		args = append(args, id)
		updated, err = scanPlaylist(tx.QueryRowContext(ctx, fmt.Sprintf(`
			UPDATE playlists
			SET %s
			WHERE id = $%d
			RETURNING %s`, strings.Join(sets, ", "), len(args), playlistColumns), args...))
		if err != nil {
			if isUniqueViolation(err) {
				return ErrPlaylistExists
			}
			return fmt.Errorf("update playlist: %w", err)
		}
		return nil
	})
	if err != nil {
		return Playlist{}, err
	}
	return updated, nil
}

// DeletePlaylist removes the playlist and drops it from every user's followed
// list. Creator only.
func (s *Store) DeletePlaylist(ctx context.Context, actorID, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		playlist, err := lockPlaylist(ctx, tx, id)
		if err != nil {
			return err
		}
		if playlist.CreatorID != actorID {
			return ErrForbidden
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET followed_playlists = array_remove(followed_playlists, $1), updated_at = NOW()
			WHERE $1 = ANY(followed_playlists)
		`, id); err != nil {
			return fmt.Errorf("clean followed playlists: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM playlists WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete playlist: %w", err)
		}
		return nil
	})
}

// AddSongsToPlaylist appends each resolvable song to the playlist on behalf of
// actorID. Missing songs and songs already present are skipped silently, so
// the call is idempotent with respect to membership.
func (s *Store) AddSongsToPlaylist(ctx context.Context, actorID, playlistID int64, songIDs []int64) (Playlist, error) {
	var updated Playlist
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		playlist, err := lockPlaylist(ctx, tx, playlistID)
		if err != nil {
			return err
		}
		if !playlist.canEdit(actorID) {
			return ErrForbidden
		}

		songs := playlist.Songs
		changed := false
		for _, songID := range songIDs {
			if containsID(songs, songID) {
				continue
			}
			var exists int64
			if err := tx.QueryRowContext(ctx, `
				SELECT id FROM songs WHERE id = $1
			`, songID).Scan(&exists); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					continue
				}
				return fmt.Errorf("lookup song: %w", err)
			}
			songs = append(songs, songID)
			changed = true
		}

		if !changed {
			updated = playlist
			return nil
		}

		updated, err = scanPlaylist(tx.QueryRowContext(ctx, `
			UPDATE playlists
			SET songs = $1, updated_at = NOW()
			WHERE id = $2
			RETURNING `+playlistColumns, pq.Array(songs), playlistID))
		if err != nil {
			return fmt.Errorf("update playlist songs: %w", err)
		}
		return nil
	})
	if err != nil {
		return Playlist{}, err
	}
	return updated, nil
}

// RemoveSongFromPlaylist drops the song from the playlist. Removing a song
// that is not present is a no-op.
func (s *Store) RemoveSongFromPlaylist(ctx context.Context, actorID, playlistID, songID int64) (Playlist, error) {
	var updated Playlist
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		playlist, err := lockPlaylist(ctx, tx, playlistID)
		if err != nil {
			return err
		}
		if !playlist.canEdit(actorID) {
			return ErrForbidden
		}

		updated, err = scanPlaylist(tx.QueryRowContext(ctx, `
			UPDATE playlists
			SET songs = array_remove(songs, $1), updated_at = NOW()
			WHERE id = $2
			RETURNING `+playlistColumns, songID, playlistID))
		if err != nil {
			return fmt.Errorf("remove playlist song: %w", err)
		}
		return nil
	})
	if err != nil {
		return Playlist{}, err
	}
	return updated, nil
}

// AddCollaborator adds userID as a collaborator. Creator only. Adding the
// creator or an existing collaborator is a conflict.
func (s *Store) AddCollaborator(ctx context.Context, actorID, playlistID, userID int64) (Playlist, error) {
	var updated Playlist
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		playlist, err := lockPlaylist(ctx, tx, playlistID)
		if err != nil {
			return err
		}
		if playlist.CreatorID != actorID {
			return ErrForbidden
		}
		if userID == playlist.CreatorID || containsID(playlist.Collaborators, userID) {
			return ErrAlreadyCollaborator
		}

		var exists int64
		if err := tx.QueryRowContext(ctx, `
			SELECT id FROM users WHERE id = $1
		`, userID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lookup user: %w", err)
		}

		updated, err = scanPlaylist(tx.QueryRowContext(ctx, `
			UPDATE playlists
			SET collaborators = array_append(collaborators, $1), updated_at = NOW()
			WHERE id = $2
			RETURNING `+playlistColumns, userID, playlistID))
		if err != nil {
			return fmt.Errorf("add collaborator: %w", err)
		}
		return nil
	})
	if err != nil {
		return Playlist{}, err
	}
	return updated, nil
}

// RemoveCollaborator removes userID from the collaborator set. Creator only.
func (s *Store) RemoveCollaborator(ctx context.Context, actorID, playlistID, userID int64) (Playlist, error) {
	var updated Playlist
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		playlist, err := lockPlaylist(ctx, tx, playlistID)
		if err != nil {
			return err
		}
		if playlist.CreatorID != actorID {
			return ErrForbidden
		}
		if !containsID(playlist.Collaborators, userID) {
			return ErrNotCollaborator
		}

		updated, err = scanPlaylist(tx.QueryRowContext(ctx, `
			UPDATE playlists
			SET collaborators = array_remove(collaborators, $1), updated_at = NOW()
			WHERE id = $2
			RETURNING `+playlistColumns, userID, playlistID))
		if err != nil {
			return fmt.Errorf("remove collaborator: %w", err)
		}
		return nil
	})
	if err != nil {
		return Playlist{}, err
	}
	return updated, nil
}

func lockPlaylist(ctx context.Context, tx *sql.Tx, id int64) (Playlist, error) {
	playlist, err := scanPlaylist(tx.QueryRowContext(ctx, `
		SELECT `+playlistColumns+`
		FROM playlists
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Playlist{}, ErrPlaylistNotFound
		}
		return Playlist{}, fmt.Errorf("lock playlist: %w", err)
	}
	return playlist, nil
}

func scanPlaylist(scanner rowScanner) (Playlist, error) {
	var (
		p             Playlist
		collaborators pq.Int64Array
		songs         pq.Int64Array
	)
	if err := scanner.Scan(&p.ID, &p.Name, &p.Description, &p.CoverImage, &p.CreatorID,
		&collaborators, &songs, &p.IsPublic, &p.Followers, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Playlist{}, err
	}
	p.Collaborators = collaborators
	p.Songs = songs
	return p, nil
}

func scanPlaylistRows(rows *sql.Rows) ([]Playlist, error) {
	var playlists []Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	return playlists, nil
}
