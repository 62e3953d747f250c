package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// User models an account. PasswordHash is never serialized.
type User struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	PasswordHash      []byte    `json:"-"`
	ProfilePicture    string    `json:"profilePicture"`
	IsAdmin           bool      `json:"isAdmin"`
	LikedSongs        []int64   `json:"likedSongs"`
	LikedAlbums       []int64   `json:"likedAlbums"`
	FollowedArtists   []int64   `json:"followedArtists"`
	FollowedPlaylists []int64   `json:"followedPlaylists"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// UserPatch carries a partial profile update. Nil fields are left unchanged.
type UserPatch struct {
	Name           *string
	Email          *string
	Password       *string
	ProfilePicture *string
}

var dummyPasswordHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")

const userColumns = `id, name, email, password_hash, profile_picture, is_admin, liked_songs, liked_albums, followed_artists, followed_playlists, created_at, updated_at`

// CreateUser registers a new account.
func (s *Store) CreateUser(ctx context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))

	switch {
	case name == "" || email == "" || password == "":
		return User{}, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	case len(password) < 6:
		return User{}, fmt.Errorf("%w: password must be at least 6 characters long", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := scanUser(s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns, name, email, hash))
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUserExists
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// Authenticate validates credentials and returns the matching user. A dummy
// bcrypt compare runs for unknown emails so lookup timing stays uniform.
func (s *Store) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// UserByID returns a single user by its identifier.
func (s *Store) UserByID(ctx context.Context, id int64) (User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

// UpdateUser applies a partial profile update and returns the stored user.
func (s *Store) UpdateUser(ctx context.Context, id int64, patch UserPatch) (User, error) {
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
			return User{}, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		set("name", name)
	}
	if patch.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*patch.Email))
		if email == "" {
			return User{}, fmt.Errorf("%w: email must not be empty", ErrInvalidInput)
		}
		set("email", email)
	}
	if patch.Password != nil {
		if len(*patch.Password) < 6 {
			return User{}, fmt.Errorf("%w: password must be at least 6 characters long", ErrInvalidInput)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		set("password_hash", hash)
	}
	if patch.ProfilePicture != nil {
		set("profile_picture", *patch.ProfilePicture)
	}

	if len(sets) == 0 {
		return s.UserByID(ctx, id)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	user, err := scanUser(s.db.QueryRowContext(ctx, fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), len(args), userColumns), args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return User{}, ErrUserExists
		}
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func scanUser(scanner rowScanner) (User, error) {
	var (
		u                 User
		likedSongs        pq.Int64Array
		likedAlbums       pq.Int64Array
		followedArtists   pq.Int64Array
		followedPlaylists pq.Int64Array
	)
	if err := scanner.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.ProfilePicture,
		&u.IsAdmin, &likedSongs, &likedAlbums, &followedArtists, &followedPlaylists,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, err
	}
	u.LikedSongs = likedSongs
	u.LikedAlbums = likedAlbums
	u.FollowedArtists = followedArtists
	u.FollowedPlaylists = followedPlaylists
	return u, nil
}
