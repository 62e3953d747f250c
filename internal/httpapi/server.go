// Package httpapi wires HTTP handlers to the catalog services and shapes the
// response envelopes.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"songvault/internal/app/albums"
	"songvault/internal/app/artists"
	"songvault/internal/app/playlists"
	"songvault/internal/app/songs"
	"songvault/internal/app/users"
	"songvault/internal/middleware"
	"songvault/internal/store"
)

// ArtistService describes artist catalog workflows.
type ArtistService interface {
	Create(ctx context.Context, input artists.CreateInput) (store.Artist, error)
	List(ctx context.Context, filter store.ArtistFilter) ([]store.Artist, int, error)
	Get(ctx context.Context, id int64) (store.Artist, error)
	Top(ctx context.Context, limit int) ([]store.Artist, error)
	TopSongs(ctx context.Context, id int64, limit int) ([]store.Song, error)
	Update(ctx context.Context, id int64, input artists.UpdateInput) (store.Artist, error)
	Delete(ctx context.Context, id int64) error
}

// AlbumService describes album catalog workflows.
type AlbumService interface {
	Create(ctx context.Context, input albums.CreateInput) (store.Album, error)
	List(ctx context.Context, filter store.AlbumFilter) ([]store.Album, int, error)
	Get(ctx context.Context, id int64) (store.Album, error)
	Update(ctx context.Context, id int64, input albums.UpdateInput) (store.Album, error)
	Delete(ctx context.Context, id int64) error
}

// SongService describes song catalog workflows.
type SongService interface {
	Create(ctx context.Context, input songs.CreateInput) (store.Song, error)
	List(ctx context.Context, filter store.SongFilter) ([]store.Song, int, error)
	Get(ctx context.Context, id int64) (store.Song, error)
	Update(ctx context.Context, id int64, input songs.UpdateInput) (store.Song, error)
	Delete(ctx context.Context, id int64) error
}

// PlaylistService describes playlist workflows.
type PlaylistService interface {
	Create(ctx context.Context, creatorID int64, input playlists.CreateInput) (store.Playlist, error)
	List(ctx context.Context, filter store.PlaylistFilter) ([]store.Playlist, int, error)
	ListMine(ctx context.Context, userID int64) ([]store.Playlist, error)
	Get(ctx context.Context, viewerID, id int64) (store.Playlist, error)
	Update(ctx context.Context, actorID, id int64, input playlists.UpdateInput) (store.Playlist, error)
	Delete(ctx context.Context, actorID, id int64) error
	AddSongs(ctx context.Context, actorID, playlistID int64, songIDs []int64) (store.Playlist, error)
	RemoveSong(ctx context.Context, actorID, playlistID, songID int64) (store.Playlist, error)
	AddCollaborator(ctx context.Context, actorID, playlistID, userID int64) (store.Playlist, error)
	RemoveCollaborator(ctx context.Context, actorID, playlistID, userID int64) (store.Playlist, error)
}

// UserService describes account workflows.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (store.User, string, error)
	Login(ctx context.Context, email, password string) (store.User, string, error)
	Profile(ctx context.Context, userID int64) (store.User, error)
	UpdateProfile(ctx context.Context, userID int64, input users.UpdateInput) (store.User, error)
}

// SocialService describes like/follow toggles.
type SocialService interface {
	ToggleSongLike(ctx context.Context, userID, songID int64) (store.ToggleResult, error)
	ToggleAlbumLike(ctx context.Context, userID, albumID int64) (store.ToggleResult, error)
	ToggleArtistFollow(ctx context.Context, userID, artistID int64) (store.ToggleResult, error)
	TogglePlaylistFollow(ctx context.Context, userID, playlistID int64) (store.ToggleResult, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	artists   ArtistService
	albums    AlbumService
	songs     SongService
	playlists PlaylistService
	users     UserService
	social    SocialService
}

// New configures a Server with the given services.
func New(
	artistSvc ArtistService,
	albumSvc AlbumService,
	songSvc SongService,
	playlistSvc PlaylistService,
	userSvc UserService,
	socialSvc SocialService,
) *Server {
	return &Server{
		artists:   artistSvc,
		albums:    albumSvc,
		songs:     songSvc,
		playlists: playlistSvc,
		users:     userSvc,
		social:    socialSvc,
	}
}

// Routes exposes the HTTP handlers. The auth middleware is passed in so the
// router stays free of token plumbing.
func (s *Server) Routes(requireAuth, optionalAuth func(http.Handler) http.Handler) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes. Optional auth lets private playlists resolve their
	// viewer without forcing a credential on public reads.
	public := api.NewRoute().Subrouter()
	public.Use(optionalAuth)
	public.HandleFunc("/users/register", s.handleRegister).Methods(http.MethodPost)
	public.HandleFunc("/users/login", s.handleLogin).Methods(http.MethodPost)
	public.HandleFunc("/artists", s.handleListArtists).Methods(http.MethodGet)
	public.HandleFunc("/artists/top", s.handleTopArtists).Methods(http.MethodGet)
	public.HandleFunc("/artists/{id}", s.handleGetArtist).Methods(http.MethodGet)
	public.HandleFunc("/artists/{id}/top-songs", s.handleArtistTopSongs).Methods(http.MethodGet)
	public.HandleFunc("/albums", s.handleListAlbums).Methods(http.MethodGet)
	public.HandleFunc("/albums/{id}", s.handleGetAlbum).Methods(http.MethodGet)
	public.HandleFunc("/songs", s.handleListSongs).Methods(http.MethodGet)
	public.HandleFunc("/songs/{id}", s.handleGetSong).Methods(http.MethodGet)
	public.HandleFunc("/playlists", s.handleListPlaylists).Methods(http.MethodGet)
	public.HandleFunc("/playlists/{id}", s.handleGetPlaylist).Methods(http.MethodGet)

	// Private routes.
	private := api.NewRoute().Subrouter()
	private.Use(requireAuth)
	private.HandleFunc("/users/profile", s.handleGetProfile).Methods(http.MethodGet)
	private.HandleFunc("/users/profile", s.handleUpdateProfile).Methods(http.MethodPut)
	private.HandleFunc("/me/playlists", s.handleMyPlaylists).Methods(http.MethodGet)
	private.HandleFunc("/playlists", s.handleCreatePlaylist).Methods(http.MethodPost)
	private.HandleFunc("/playlists/{id}", s.handleUpdatePlaylist).Methods(http.MethodPut)
	private.HandleFunc("/playlists/{id}", s.handleDeletePlaylist).Methods(http.MethodDelete)
	private.HandleFunc("/playlists/{id}/songs", s.handleAddPlaylistSongs).Methods(http.MethodPost)
	private.HandleFunc("/playlists/{id}/songs/{songId}", s.handleRemovePlaylistSong).Methods(http.MethodDelete)
	private.HandleFunc("/playlists/{id}/collaborators", s.handleAddCollaborator).Methods(http.MethodPost)
	private.HandleFunc("/playlists/{id}/collaborators/{userId}", s.handleRemoveCollaborator).Methods(http.MethodDelete)
	private.HandleFunc("/songs/{id}/like", s.handleToggleSongLike).Methods(http.MethodPost)
	private.HandleFunc("/albums/{id}/like", s.handleToggleAlbumLike).Methods(http.MethodPost)
	private.HandleFunc("/artists/{id}/follow", s.handleToggleArtistFollow).Methods(http.MethodPost)
	private.HandleFunc("/playlists/{id}/follow", s.handleTogglePlaylistFollow).Methods(http.MethodPost)

	// Admin routes.
	admin := api.NewRoute().Subrouter()
	admin.Use(requireAuth, middleware.RequireAdmin())
	admin.HandleFunc("/artists", s.handleCreateArtist).Methods(http.MethodPost)
	admin.HandleFunc("/artists/{id}", s.handleUpdateArtist).Methods(http.MethodPut)
	admin.HandleFunc("/artists/{id}", s.handleDeleteArtist).Methods(http.MethodDelete)
	admin.HandleFunc("/albums", s.handleCreateAlbum).Methods(http.MethodPost)
	admin.HandleFunc("/albums/{id}", s.handleUpdateAlbum).Methods(http.MethodPut)
	admin.HandleFunc("/albums/{id}", s.handleDeleteAlbum).Methods(http.MethodDelete)
	admin.HandleFunc("/songs", s.handleCreateSong).Methods(http.MethodPost)
	admin.HandleFunc("/songs/{id}", s.handleUpdateSong).Methods(http.MethodPut)
	admin.HandleFunc("/songs/{id}", s.handleDeleteSong).Methods(http.MethodDelete)

	return r
}
