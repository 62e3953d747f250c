package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"songvault/internal/app/albums"
	"songvault/internal/app/artists"
	"songvault/internal/app/playlists"
	"songvault/internal/app/songs"
	"songvault/internal/app/users"
	"songvault/internal/middleware"
	"songvault/internal/store"
)

type stubTokens struct{}

func (stubTokens) Verify(token string) (int64, error) {
	switch token {
	case "admin-token":
		return 1, nil
	case "user-token":
		return 2, nil
	}
	return 0, errors.New("bad token")
}

type stubUserSource struct{}

func (stubUserSource) UserByID(_ context.Context, id int64) (store.User, error) {
	switch id {
	case 1:
		return store.User{ID: 1, IsAdmin: true}, nil
	case 2:
		return store.User{ID: 2}, nil
	}
	return store.User{}, store.ErrUserNotFound
}

type stubArtistService struct {
	createdInput artists.CreateInput
	created      store.Artist
	createErr    error

	listResponse []store.Artist
	listTotal    int
	listErr      error
	lastFilter   store.ArtistFilter

	single    store.Artist
	singleErr error

	deleteErr error
}

func (s *stubArtistService) Create(_ context.Context, input artists.CreateInput) (store.Artist, error) {
	s.createdInput = input
	return s.created, s.createErr
}

func (s *stubArtistService) List(_ context.Context, filter store.ArtistFilter) ([]store.Artist, int, error) {
	s.lastFilter = filter
	return s.listResponse, s.listTotal, s.listErr
}

func (s *stubArtistService) Get(_ context.Context, id int64) (store.Artist, error) {
	return s.single, s.singleErr
}

func (s *stubArtistService) Top(_ context.Context, limit int) ([]store.Artist, error) {
	return s.listResponse, s.listErr
}

func (s *stubArtistService) TopSongs(_ context.Context, id int64, limit int) ([]store.Song, error) {
	return nil, nil
}

func (s *stubArtistService) Update(_ context.Context, id int64, input artists.UpdateInput) (store.Artist, error) {
	return s.single, s.singleErr
}

func (s *stubArtistService) Delete(_ context.Context, id int64) error {
	return s.deleteErr
}

type stubAlbumService struct {
	single    store.Album
	singleErr error
}

func (s *stubAlbumService) Create(_ context.Context, input albums.CreateInput) (store.Album, error) {
	return s.single, s.singleErr
}

func (s *stubAlbumService) List(_ context.Context, filter store.AlbumFilter) ([]store.Album, int, error) {
	return nil, 0, nil
}

func (s *stubAlbumService) Get(_ context.Context, id int64) (store.Album, error) {
	return s.single, s.singleErr
}

func (s *stubAlbumService) Update(_ context.Context, id int64, input albums.UpdateInput) (store.Album, error) {
	return s.single, s.singleErr
}

func (s *stubAlbumService) Delete(_ context.Context, id int64) error {
	return s.singleErr
}

type stubSongService struct {
	createdInput songs.CreateInput
	single       store.Song
	singleErr    error
}

func (s *stubSongService) Create(_ context.Context, input songs.CreateInput) (store.Song, error) {
	s.createdInput = input
	return s.single, s.singleErr
}

func (s *stubSongService) List(_ context.Context, filter store.SongFilter) ([]store.Song, int, error) {
	return nil, 0, nil
}

func (s *stubSongService) Get(_ context.Context, id int64) (store.Song, error) {
	return s.single, s.singleErr
}

func (s *stubSongService) Update(_ context.Context, id int64, input songs.UpdateInput) (store.Song, error) {
	return s.single, s.singleErr
}

func (s *stubSongService) Delete(_ context.Context, id int64) error {
	return s.singleErr
}

type stubPlaylistService struct {
	single    store.Playlist
	singleErr error

	lastActorID int64
	lastSongIDs []int64
}

func (s *stubPlaylistService) Create(_ context.Context, creatorID int64, input playlists.CreateInput) (store.Playlist, error) {
	s.lastActorID = creatorID
	return s.single, s.singleErr
}

func (s *stubPlaylistService) List(_ context.Context, filter store.PlaylistFilter) ([]store.Playlist, int, error) {
	return nil, 0, nil
}

func (s *stubPlaylistService) ListMine(_ context.Context, userID int64) ([]store.Playlist, error) {
	s.lastActorID = userID
	return nil, nil
}

func (s *stubPlaylistService) Get(_ context.Context, viewerID, id int64) (store.Playlist, error) {
	s.lastActorID = viewerID
	return s.single, s.singleErr
}

func (s *stubPlaylistService) Update(_ context.Context, actorID, id int64, input playlists.UpdateInput) (store.Playlist, error) {
	s.lastActorID = actorID
	return s.single, s.singleErr
}

func (s *stubPlaylistService) Delete(_ context.Context, actorID, id int64) error {
	s.lastActorID = actorID
	return s.singleErr
}

func (s *stubPlaylistService) AddSongs(_ context.Context, actorID, playlistID int64, songIDs []int64) (store.Playlist, error) {
	s.lastActorID = actorID
	s.lastSongIDs = songIDs
	return s.single, s.singleErr
}

func (s *stubPlaylistService) RemoveSong(_ context.Context, actorID, playlistID, songID int64) (store.Playlist, error) {
	s.lastActorID = actorID
	return s.single, s.singleErr
}

func (s *stubPlaylistService) AddCollaborator(_ context.Context, actorID, playlistID, userID int64) (store.Playlist, error) {
	s.lastActorID = actorID
	return s.single, s.singleErr
}

func (s *stubPlaylistService) RemoveCollaborator(_ context.Context, actorID, playlistID, userID int64) (store.Playlist, error) {
	s.lastActorID = actorID
	return s.single, s.singleErr
}

type stubUserService struct {
	user      store.User
	token     string
	err       error
	lastEmail string
}

func (s *stubUserService) Register(_ context.Context, name, email, password string) (store.User, string, error) {
	s.lastEmail = email
	return s.user, s.token, s.err
}

func (s *stubUserService) Login(_ context.Context, email, password string) (store.User, string, error) {
	s.lastEmail = email
	return s.user, s.token, s.err
}

func (s *stubUserService) Profile(_ context.Context, userID int64) (store.User, error) {
	return s.user, s.err
}

func (s *stubUserService) UpdateProfile(_ context.Context, userID int64, input users.UpdateInput) (store.User, error) {
	return s.user, s.err
}

type stubSocialService struct {
	result store.ToggleResult
	err    error

	lastUserID   int64
	lastTargetID int64
}

func (s *stubSocialService) toggle(userID, targetID int64) (store.ToggleResult, error) {
	s.lastUserID = userID
	s.lastTargetID = targetID
	return s.result, s.err
}

func (s *stubSocialService) ToggleSongLike(_ context.Context, userID, songID int64) (store.ToggleResult, error) {
	return s.toggle(userID, songID)
}

func (s *stubSocialService) ToggleAlbumLike(_ context.Context, userID, albumID int64) (store.ToggleResult, error) {
	return s.toggle(userID, albumID)
}

func (s *stubSocialService) ToggleArtistFollow(_ context.Context, userID, artistID int64) (store.ToggleResult, error) {
	return s.toggle(userID, artistID)
}

func (s *stubSocialService) TogglePlaylistFollow(_ context.Context, userID, playlistID int64) (store.ToggleResult, error) {
	return s.toggle(userID, playlistID)
}

type testStubs struct {
	artists   *stubArtistService
	albums    *stubAlbumService
	songs     *stubSongService
	playlists *stubPlaylistService
	users     *stubUserService
	social    *stubSocialService
}

func newTestServer() (http.Handler, testStubs) {
	stubs := testStubs{
		artists:   &stubArtistService{},
		albums:    &stubAlbumService{},
		songs:     &stubSongService{},
		playlists: &stubPlaylistService{},
		users:     &stubUserService{},
		social:    &stubSocialService{},
	}
	server := New(stubs.artists, stubs.albums, stubs.songs, stubs.playlists, stubs.users, stubs.social)
	requireAuth := middleware.RequireAuth(stubTokens{}, stubUserSource{})
	optionalAuth := middleware.OptionalAuth(stubTokens{}, stubUserSource{})
	return server.Routes(requireAuth, optionalAuth), stubs
}

func decodeMessage(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		t.Fatalf("decode message envelope: %v", err)
	}
	return envelope.Message
}

func TestListArtistsPaginationRejected(t *testing.T) {
	handler, _ := newTestServer()

	tests := []string{
		"/api/v1/artists?page=0",
		"/api/v1/artists?page=abc",
		"/api/v1/artists?limit=0",
		"/api/v1/artists?limit=101",
	}

	for _, target := range tests {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestListArtistsEnvelope(t *testing.T) {
	handler, stubs := newTestServer()
	stubs.artists.listResponse = []store.Artist{{ID: 7, Name: "Nils Frahm"}}
	stubs.artists.listTotal = 42

	req := httptest.NewRequest(http.MethodGet, "/api/v1/artists?page=2&limit=5&genre=Ambient", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Status string `json:"status"`
		Data   struct {
			Items []store.Artist `json:"items"`
			Total int            `json:"total"`
			Page  int            `json:"page"`
			Limit int            `json:"limit"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Status != "success" {
		t.Fatalf("expected success status, got %q", envelope.Status)
	}
	if envelope.Data.Total != 42 || envelope.Data.Page != 2 || envelope.Data.Limit != 5 {
		t.Fatalf("unexpected pagination echo: %+v", envelope.Data)
	}
	if stubs.artists.lastFilter.Genre != "Ambient" || stubs.artists.lastFilter.Page != 2 {
		t.Fatalf("filter not forwarded: %+v", stubs.artists.lastFilter)
	}
}

func TestGetArtistNotFound(t *testing.T) {
	handler, stubs := newTestServer()
	stubs.artists.singleErr = store.ErrArtistNotFound

	req := httptest.NewRequest(http.MethodGet, "/api/v1/artists/404", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := decodeMessage(t, rec.Body); got != "Artist not found" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestGetArtistInvalidID(t *testing.T) {
	handler, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/artists/abc", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateArtistAuthorization(t *testing.T) {
	handler, _ := newTestServer()

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	_ = form.WriteField("name", "Nils Frahm")
	form.Close()

	// No token at all.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/artists", bytes.NewReader(body.Bytes()))
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// Valid token, but not an admin.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/artists", bytes.NewReader(body.Bytes()))
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer user-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
}

func TestCreateArtistUploadsImage(t *testing.T) {
	handler, stubs := newTestServer()
	stubs.artists.created = store.Artist{ID: 7, Name: "Nils Frahm"}

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	_ = form.WriteField("name", "Nils Frahm")
	_ = form.WriteField("bio", "German pianist")
	_ = form.WriteField("genres", "Ambient, Modern Classical")
	part, _ := form.CreateFormFile("image", "press.png")
	_, _ = part.Write(pngBytes())
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/artists", body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	input := stubs.artists.createdInput
	if input.Name != "Nils Frahm" || input.Bio != "German pianist" {
		t.Fatalf("form fields not forwarded: %+v", input)
	}
	if len(input.Genres) != 2 {
		t.Fatalf("expected 2 genres, got %v", input.Genres)
	}
	if input.ImagePath == "" {
		t.Fatal("expected a spooled image path")
	}
	defer os.Remove(input.ImagePath)
	if _, err := os.Stat(input.ImagePath); err != nil {
		t.Fatalf("spooled image missing: %v", err)
	}
}

func TestCreateArtistRejectsUnsupportedFile(t *testing.T) {
	handler, _ := newTestServer()

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	_ = form.WriteField("name", "Nils Frahm")
	part, _ := form.CreateFormFile("image", "notes.txt")
	_, _ = part.Write([]byte("plain text, not an image"))
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/artists", body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeMessage(t, rec.Body); !strings.Contains(got, "MP3, WAV, JPEG and PNG") {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestCreateSongRequiresAudioAndCover(t *testing.T) {
	handler, _ := newTestServer()

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	_ = form.WriteField("title", "Says")
	_ = form.WriteField("artistId", "7")
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/songs", body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeMessage(t, rec.Body); got != "Audio and cover image are required" {
		t.Fatalf("unexpected message %q", got)
	}
}

func countSpooledUploads(t *testing.T) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "upload-*"))
	if err != nil {
		t.Fatalf("glob temp dir: %v", err)
	}
	return len(matches)
}

func TestCreateSongMissingCoverDiscardsAudioSpool(t *testing.T) {
	handler, _ := newTestServer()
	before := countSpooledUploads(t)

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	_ = form.WriteField("title", "Says")
	_ = form.WriteField("artistId", "7")
	part, _ := form.CreateFormFile("audio", "says.mp3")
	_, _ = part.Write(mp3Bytes())
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/songs", body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeMessage(t, rec.Body); got != "Audio and cover image are required" {
		t.Fatalf("unexpected message %q", got)
	}
	if after := countSpooledUploads(t); after != before {
		t.Fatalf("expected no leftover spools, had %d before and %d after", before, after)
	}
}

func TestRegister(t *testing.T) {
	handler, stubs := newTestServer()
	stubs.users.user = store.User{ID: 3, Name: "Ana", Email: "ana@example.com"}
	stubs.users.token = "issued-token"

	payload := `{"name":"Ana","email":"ana@example.com","password":"secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			User  store.User `json:"user"`
			Token string     `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Token != "issued-token" || envelope.Data.User.ID != 3 {
		t.Fatalf("unexpected auth payload: %+v", envelope.Data)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	handler, stubs := newTestServer()
	stubs.users.err = store.ErrInvalidCredentials

	payload := `{"email":"ana@example.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := decodeMessage(t, rec.Body); got != "Invalid email or password" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestToggleSongLike(t *testing.T) {
	handler, stubs := newTestServer()
	stubs.social.result = store.ToggleResult{Active: true, Count: 5}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/songs/55/like", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stubs.social.lastUserID != 2 || stubs.social.lastTargetID != 55 {
		t.Fatalf("unexpected toggle args: user %d target %d", stubs.social.lastUserID, stubs.social.lastTargetID)
	}

	var envelope struct {
		Message string `json:"message"`
		Data    struct {
			Active bool `json:"active"`
			Count  int  `json:"count"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Message != "Song liked" || !envelope.Data.Active || envelope.Data.Count != 5 {
		t.Fatalf("unexpected toggle payload: %+v", envelope)
	}
}

func TestAddPlaylistSongs(t *testing.T) {
	handler, stubs := newTestServer()
	stubs.playlists.single = store.Playlist{ID: 12, Songs: []int64{55, 56}}

	payload := `{"songIds":[55,56]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/playlists/12/songs", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stubs.playlists.lastActorID != 2 {
		t.Fatalf("expected actor 2, got %d", stubs.playlists.lastActorID)
	}
	if fmt.Sprint(stubs.playlists.lastSongIDs) != "[55 56]" {
		t.Fatalf("unexpected song ids: %v", stubs.playlists.lastSongIDs)
	}
}

func TestGetPlaylistForbiddenForStranger(t *testing.T) {
	handler, stubs := newTestServer()
	stubs.playlists.singleErr = store.ErrForbidden

	req := httptest.NewRequest(http.MethodGet, "/api/v1/playlists/12", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if stubs.playlists.lastActorID != 0 {
		t.Fatalf("expected anonymous viewer, got %d", stubs.playlists.lastActorID)
	}
}

func TestGetPlaylistResolvesViewer(t *testing.T) {
	handler, stubs := newTestServer()
	stubs.playlists.single = store.Playlist{ID: 12, Name: "Late Night"}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/playlists/12", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stubs.playlists.lastActorID != 2 {
		t.Fatalf("expected viewer 2, got %d", stubs.playlists.lastActorID)
	}
}

func TestDeleteArtistEnvelope(t *testing.T) {
	handler, _ := newTestServer()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/artists/7", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var envelope struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Status != "success" || envelope.Message != "Artist deleted successfully" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}

// pngBytes returns a minimal payload http.DetectContentType reports as
// image/png.
func pngBytes() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 512)...)
}

func mp3Bytes() []byte {
	return append([]byte("ID3"), make([]byte, 512)...)
}
