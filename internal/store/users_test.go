package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "profile_picture", "is_admin",
		"liked_songs", "liked_albums", "followed_artists", "followed_playlists",
		"created_at", "updated_at",
	})
}

func TestCreateUserValidation(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{name: "missing name", email: "a@b.com", password: "secret1"},
		{name: "missing email", userName: "Ana", password: "secret1"},
		{name: "missing password", userName: "Ana", email: "a@b.com"},
		{name: "short password", userName: "Ana", email: "a@b.com", password: "12345"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateUser(context.Background(), tc.userName, tc.email, tc.password)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCreateUserLowercasesEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (name, email, password_hash)`)).
		WithArgs("Ana", "ana@example.com", sqlmock.AnyArg()).
		WillReturnRows(userRows().AddRow(
			int64(3), "Ana", "ana@example.com", []byte("hash"), "pic", false,
			"{}", "{}", "{}", "{}", now, now,
		))

	got, err := s.CreateUser(context.Background(), " Ana ", " Ana@Example.COM ", "secret1")
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if got.Email != "ana@example.com" {
		t.Fatalf("expected lowercased email, got %q", got.Email)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	if _, err := s.CreateUser(context.Background(), "Ana", "ana@example.com", "secret1"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	rows := func() *sqlmock.Rows {
		return userRows().AddRow(
			int64(3), "Ana", "ana@example.com", hash, "pic", false,
			"{55}", "{}", "{7}", "{}", now, now,
		)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE email = $1`)).
		WithArgs("ana@example.com").
		WillReturnRows(rows())
	got, err := s.Authenticate(context.Background(), "Ana@Example.com", "secret1")
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if got.ID != 3 {
		t.Fatalf("expected user ID 3, got %d", got.ID)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE email = $1`)).
		WithArgs("ana@example.com").
		WillReturnRows(rows())
	if _, err := s.Authenticate(context.Background(), "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE email = $1`)).
		WithArgs("ghost@example.com").
		WillReturnRows(userRows())
	if _, err := s.Authenticate(context.Background(), "ghost@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestUpdateUserPartial(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now()
	name := "Ana Maria"

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users`)).
		WithArgs("Ana Maria", int64(3)).
		WillReturnRows(userRows().AddRow(
			int64(3), "Ana Maria", "ana@example.com", []byte("hash"), "pic", false,
			"{}", "{}", "{}", "{}", now, now,
		))

	got, err := s.UpdateUser(context.Background(), 3, UserPatch{Name: &name})
	if err != nil {
		t.Fatalf("UpdateUser error: %v", err)
	}
	if got.Name != "Ana Maria" {
		t.Fatalf("expected updated name, got %q", got.Name)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateUserShortPassword(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	short := "12345"
	if _, err := s.UpdateUser(context.Background(), 3, UserPatch{Password: &short}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
