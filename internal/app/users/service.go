package users

import (
	"context"

	"songvault/internal/media"
	"songvault/internal/store"
)

const pictureFolder = "catalog/users"

// Store captures the persistence needs for account workflows.
type Store interface {
	CreateUser(ctx context.Context, name, email, password string) (store.User, error)
	Authenticate(ctx context.Context, email, password string) (store.User, error)
	UserByID(ctx context.Context, id int64) (store.User, error)
	UpdateUser(ctx context.Context, id int64, patch store.UserPatch) (store.User, error)
}

// TokenIssuer mints bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// UpdateInput carries a partial profile update plus an optional new picture.
type UpdateInput struct {
	Patch       store.UserPatch
	PicturePath string
}

// Service exposes account workflows.
type Service interface {
	Register(ctx context.Context, name, email, password string) (store.User, string, error)
	Login(ctx context.Context, email, password string) (store.User, string, error)
	Profile(ctx context.Context, userID int64) (store.User, error)
	UpdateProfile(ctx context.Context, userID int64, input UpdateInput) (store.User, error)
}

type service struct {
	store    Store
	tokens   TokenIssuer
	uploader media.Uploader
}

// New wires a Service backed by the provided Store, token issuer and upload
// gateway.
func New(store Store, tokens TokenIssuer, uploader media.Uploader) Service {
	return &service{store: store, tokens: tokens, uploader: uploader}
}

func (s *service) Register(ctx context.Context, name, email, password string) (store.User, string, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, "", err
	}

	user, err := s.store.CreateUser(ctx, name, email, password)
	if err != nil {
		return store.User{}, "", err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return store.User{}, "", err
	}
	return user, token, nil
}

func (s *service) Login(ctx context.Context, email, password string) (store.User, string, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, "", err
	}

	user, err := s.store.Authenticate(ctx, email, password)
	if err != nil {
		return store.User{}, "", err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return store.User{}, "", err
	}
	return user, token, nil
}

func (s *service) Profile(ctx context.Context, userID int64) (store.User, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, err
	}
	return s.store.UserByID(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID int64, input UpdateInput) (store.User, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, err
	}

	patch := input.Patch
	if input.PicturePath != "" {
		url, err := s.uploader.Upload(ctx, input.PicturePath, pictureFolder)
		if err != nil {
			return store.User{}, err
		}
		patch.ProfilePicture = &url
	}

	return s.store.UpdateUser(ctx, userID, patch)
}
