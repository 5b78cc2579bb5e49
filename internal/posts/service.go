package posts

import (
	"context"

	"github.com/mural-blog/mural/internal/api"
)

// Gateway defines the remote post operations this module needs.
type Gateway interface {
	ListPosts(ctx context.Context, page int, filter string, limit int) (*api.PostPage, error)
	ListPostsLogged(ctx context.Context, token string, page int, filter string, limit int) (*api.PostPage, error)
	GetPost(ctx context.Context, token string, id int64) (*api.Post, error)
	CreatePost(ctx context.Context, token string, input api.PostInput) error
	UpdatePost(ctx context.Context, token string, id int64, input api.PostInput) error
	DeletePost(ctx context.Context, token string, id int64) error
	DeletePostCover(ctx context.Context, token string, id int64) error
}

// Service fetches and mutates posts through the remote API. Every call is a
// live fetch; nothing is cached locally.
type Service struct {
	gateway Gateway
}

// NewService constructs a new Service.
func NewService(gateway Gateway) *Service {
	return &Service{gateway: gateway}
}

// PublicFeed returns the visible posts for anonymous browsing.
func (s *Service) PublicFeed(ctx context.Context, page int, filter string, limit int) (*api.PostPage, error) {
	return s.gateway.ListPosts(ctx, page, filter, limit)
}

// PrivateFeed returns all posts, hidden ones included, for the panel.
func (s *Service) PrivateFeed(ctx context.Context, token string, page int, filter string, limit int) (*api.PostPage, error) {
	return s.gateway.ListPostsLogged(ctx, token, page, filter, limit)
}

// Get returns a single post.
func (s *Service) Get(ctx context.Context, token string, id int64) (*api.Post, error) {
	return s.gateway.GetPost(ctx, token, id)
}

// Create publishes a new post.
func (s *Service) Create(ctx context.Context, token string, input api.PostInput) error {
	return s.gateway.CreatePost(ctx, token, input)
}

// Update modifies an existing post.
func (s *Service) Update(ctx context.Context, token string, id int64, input api.PostInput) error {
	return s.gateway.UpdatePost(ctx, token, id, input)
}

// Delete removes a post.
func (s *Service) Delete(ctx context.Context, token string, id int64) error {
	return s.gateway.DeletePost(ctx, token, id)
}

// DeleteCover removes a post's cover photo.
func (s *Service) DeleteCover(ctx context.Context, token string, id int64) error {
	return s.gateway.DeletePostCover(ctx, token, id)
}

var _ Gateway = (*api.Client)(nil)
