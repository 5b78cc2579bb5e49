package users

import (
	"context"

	"github.com/mural-blog/mural/internal/api"
)

// Gateway defines the remote user operations this module needs.
type Gateway interface {
	ListUsers(ctx context.Context, token string, page int, filter string, limit int) (*api.UserPage, error)
	GetUser(ctx context.Context, token string, id int64) (*api.User, error)
	CreateUser(ctx context.Context, token string, input api.UserInput) error
	UpdateUser(ctx context.Context, token string, id int64, input api.UserInput) error
	DeleteUser(ctx context.Context, token string, id int64) error
	UpdatePassword(ctx context.Context, token string, id int64, password string, photo *api.FormFile) error
	DeleteUserPhoto(ctx context.Context, token string, id int64) error
}

// Service manages accounts through the remote API.
type Service struct {
	gateway Gateway
}

// NewService constructs a new Service.
func NewService(gateway Gateway) *Service {
	return &Service{gateway: gateway}
}

// List returns one page of accounts.
func (s *Service) List(ctx context.Context, token string, page int, filter string, limit int) (*api.UserPage, error) {
	return s.gateway.ListUsers(ctx, token, page, filter, limit)
}

// Get returns a single account.
func (s *Service) Get(ctx context.Context, token string, id int64) (*api.User, error) {
	return s.gateway.GetUser(ctx, token, id)
}

// Create registers a new account.
func (s *Service) Create(ctx context.Context, token string, input api.UserInput) error {
	return s.gateway.CreateUser(ctx, token, input)
}

// Update modifies an existing account.
func (s *Service) Update(ctx context.Context, token string, id int64, input api.UserInput) error {
	return s.gateway.UpdateUser(ctx, token, id, input)
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, token string, id int64) error {
	return s.gateway.DeleteUser(ctx, token, id)
}

// ChangePassword updates the password and, optionally, the profile photo.
func (s *Service) ChangePassword(ctx context.Context, token string, id int64, password string, photo *api.FormFile) error {
	return s.gateway.UpdatePassword(ctx, token, id, password, photo)
}

// DeletePhoto removes the profile photo of an account.
func (s *Service) DeletePhoto(ctx context.Context, token string, id int64) error {
	return s.gateway.DeleteUserPhoto(ctx, token, id)
}

var _ Gateway = (*api.Client)(nil)
