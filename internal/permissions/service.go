package permissions

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mural-blog/mural/internal/rbac"
)

// Gateway defines the remote role assignment operations this module needs.
type Gateway interface {
	ListRoles(ctx context.Context, token, name string) ([]rbac.Role, error)
	RolesByUser(ctx context.Context, token string, userID int64) ([]rbac.Role, error)
	UpdateUserRoles(ctx context.Context, token string, userID int64, roleIDs, permissionIDs []int64) error
}

// Service loads and saves a user's role assignment against the remote API.
type Service struct {
	gateway Gateway
}

// NewService constructs a new Service.
func NewService(gateway Gateway) *Service {
	return &Service{gateway: gateway}
}

// Assignment is the result of loading the editor: the full catalog graph
// plus the user's currently granted role and permission ids. CatalogErr is
// set when the catalog fetch failed; the graph is then empty and degraded.
type Assignment struct {
	Graph         *rbac.Graph
	RoleIDs       []int64
	PermissionIDs []int64
	CatalogErr    error
}

// Load fetches the role catalog and the user's current assignment
// concurrently. A failed catalog fetch degrades the result instead of
// aborting it: the editor still renders, read-only, until a reload
// succeeds. A failed assignment fetch is a hard error.
func (s *Service) Load(ctx context.Context, token string, userID int64) (*Assignment, error) {
	var (
		catalog    []rbac.Role
		catalogErr error
		granted    []rbac.Role
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		catalog, catalogErr = s.gateway.ListRoles(gctx, token, "")
		return nil
	})
	g.Go(func() error {
		var err error
		granted, err = s.gateway.RolesByUser(gctx, token, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	roleIDs := make([]int64, 0, len(granted))
	var permissionIDs []int64
	for _, role := range granted {
		roleIDs = append(roleIDs, role.ID)
		for _, perm := range role.Permissions {
			permissionIDs = append(permissionIDs, perm.ID)
		}
	}
	return &Assignment{
		Graph:         rbac.NewGraph(catalog),
		RoleIDs:       roleIDs,
		PermissionIDs: permissionIDs,
		CatalogErr:    catalogErr,
	}, nil
}

// Catalog fetches only the role catalog, used to rebuild the graph between
// toggles.
func (s *Service) Catalog(ctx context.Context, token string) (*rbac.Graph, error) {
	catalog, err := s.gateway.ListRoles(ctx, token, "")
	if err != nil {
		return nil, err
	}
	return rbac.NewGraph(catalog), nil
}

// Save replaces the user's assignment wholesale with the given ids.
func (s *Service) Save(ctx context.Context, token string, userID int64, roleIDs, permissionIDs []int64) error {
	return s.gateway.UpdateUserRoles(ctx, token, userID, roleIDs, permissionIDs)
}
