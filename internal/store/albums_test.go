package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func albumRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "artist_id", "release_date", "cover_image", "songs",
		"genre", "description", "explicit", "likes", "created_at", "updated_at",
	})
}

func TestValidateAlbum(t *testing.T) {
	future := time.Now().Add(48 * time.Hour)

	tests := []struct {
		name    string
		album   Album
		wantErr bool
	}{
		{
			name: "valid album",
			album: Album{
				Title:       "Selected Ambient Works",
				Description: "A landmark ambient techno record.",
				ReleaseDate: future,
			},
		},
		{
			name: "title too short",
			album: Album{
				Title:       "SA",
				Description: "A landmark ambient techno record.",
				ReleaseDate: future,
			},
			wantErr: true,
		},
		{
			name: "two rune multibyte title too short",
			album: Album{
				Title:       "夜明",
				Description: "A landmark ambient techno record.",
				ReleaseDate: future,
			},
			wantErr: true,
		},
		{
			name: "three rune multibyte title",
			album: Album{
				Title:       "夜明け",
				Description: "A landmark ambient techno record.",
				ReleaseDate: future,
			},
		},
		{
			name: "description too short",
			album: Album{
				Title:       "Selected Ambient Works",
				Description: "short",
				ReleaseDate: future,
			},
			wantErr: true,
		},
		{
			name: "release date in the past",
			album: Album{
				Title:       "Selected Ambient Works",
				Description: "A landmark ambient techno record.",
				ReleaseDate: time.Now().Add(-48 * time.Hour),
			},
			wantErr: true,
		},
		{
			name: "released today",
			album: Album{
				Title:       "Selected Ambient Works",
				Description: "A landmark ambient techno record.",
				ReleaseDate: time.Now().UTC().Truncate(24 * time.Hour),
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := validateAlbum(tc.album)
			if tc.wantErr && !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("expected nil error but got %v", err)
			}
		})
	}
}

func TestCreateAlbumSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	release := time.Now().Add(72 * time.Hour)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM artists WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO albums (title, artist_id, release_date, genre, description, explicit)`)).
		WithArgs("All Melody", int64(7), release, "Ambient", "Recorded over two years at Funkhaus Berlin.", false).
		WillReturnRows(albumRows().AddRow(
			int64(31), "All Melody", int64(7), release, "cover", "{}",
			"Ambient", "Recorded over two years at Funkhaus Berlin.", false, 0, now, now,
		))
	mock.ExpectExec(regexp.QuoteMeta(`SET albums = array_append(albums, $1)`)).
		WithArgs(int64(31), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := s.CreateAlbum(context.Background(), Album{
		Title:       "All Melody",
		ArtistID:    7,
		ReleaseDate: release,
		Genre:       "Ambient",
		Description: "Recorded over two years at Funkhaus Berlin.",
	})
	if err != nil {
		t.Fatalf("CreateAlbum error: %v", err)
	}
	if got.ID != 31 {
		t.Fatalf("expected album ID 31, got %d", got.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateAlbumArtistMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM artists WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err = s.CreateAlbum(context.Background(), Album{
		Title:       "All Melody",
		ArtistID:    404,
		ReleaseDate: time.Now().Add(72 * time.Hour),
		Description: "Recorded over two years at Funkhaus Berlin.",
	})
	if !errors.Is(err, ErrArtistNotFound) {
		t.Fatalf("expected ErrArtistNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateAlbumDuplicateTitle(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM artists WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO albums`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err = s.CreateAlbum(context.Background(), Album{
		Title:       "All Melody",
		ArtistID:    7,
		ReleaseDate: time.Now().Add(72 * time.Hour),
		Description: "Recorded over two years at Funkhaus Berlin.",
	})
	if !errors.Is(err, ErrAlbumExists) {
		t.Fatalf("expected ErrAlbumExists, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListAlbumsSearchSpansArtistName(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	release := time.Now().Add(-365 * 24 * time.Hour)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM albums al JOIN artists ar ON ar.id = al.artist_id WHERE (al.title ILIKE $1 OR al.description ILIKE $1 OR al.genre ILIKE $1 OR ar.name ILIKE $1)`)).
		WithArgs("%jazz%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY al.release_date DESC, al.id ASC`)).
		WithArgs("%jazz%", 10, 0).
		WillReturnRows(albumRows().AddRow(
			int64(31), "Blue Train", int64(7), release, "cover", "{}",
			"Hard Bop", "Coltrane's first session as leader for Blue Note.", false, 12, now, now,
		))

	albums, total, err := s.ListAlbums(context.Background(), AlbumFilter{Search: "jazz", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListAlbums error: %v", err)
	}
	if total != 1 || len(albums) != 1 {
		t.Fatalf("expected 1 match, got total %d and %d rows", total, len(albums))
	}
	if albums[0].Title != "Blue Train" {
		t.Fatalf("unexpected album %q", albums[0].Title)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteAlbumDetachesSongs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT artist_id FROM albums WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(31)).
		WillReturnRows(sqlmock.NewRows([]string{"artist_id"}).AddRow(int64(7)))
	mock.ExpectExec(regexp.QuoteMeta(`SET albums = array_remove(albums, $1)`)).
		WithArgs(int64(31), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE songs SET album_id = NULL`)).
		WithArgs(int64(31)).
		WillReturnResult(sqlmock.NewResult(0, 9))
	mock.ExpectExec(regexp.QuoteMeta(`SET liked_albums = array_remove(liked_albums, $1)`)).
		WithArgs(int64(31)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM albums WHERE id = $1`)).
		WithArgs(int64(31)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.DeleteAlbum(context.Background(), 31); err != nil {
		t.Fatalf("DeleteAlbum error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
