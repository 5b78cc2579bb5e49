package auth

import (
	"context"

	"github.com/mural-blog/mural/internal/api"
)

// Gateway defines the remote authentication operations this module needs.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*api.TokenData, error)
	RecoverPassword(ctx context.Context, email string) error
}

// Service wraps authentication flows against the remote Mural API. The API
// owns credentials entirely; this client only exchanges them for a token
// plus the role and permission arrays consumed by the evaluator.
type Service struct {
	gateway Gateway
}

// NewService constructs a new Service.
func NewService(gateway Gateway) *Service {
	return &Service{gateway: gateway}
}

// Authenticate exchanges credentials for a token and the held role and
// permission names.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*api.TokenData, error) {
	return s.gateway.Login(ctx, email, password)
}

// RecoverPassword triggers a recovery e-mail for the given address.
func (s *Service) RecoverPassword(ctx context.Context, email string) error {
	return s.gateway.RecoverPassword(ctx, email)
}

var _ Gateway = (*api.Client)(nil)
