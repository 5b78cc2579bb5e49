package api

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/mural-blog/mural/internal/rbac"
)

type permissionRecord struct {
	ID          int64     `json:"id"`
	Name        string    `json:"nome"`
	Description string    `json:"descricao"`
	CreatedAt   time.Time `json:"data_criacao"`
	UpdatedAt   time.Time `json:"data_atualizacao"`
}

type roleRecord struct {
	ID          int64              `json:"id"`
	Name        string             `json:"nome"`
	Description string             `json:"descricao"`
	CreatedAt   time.Time          `json:"data_criacao"`
	UpdatedAt   time.Time          `json:"data_atualizacao"`
	Permissions []permissionRecord `json:"permissao"`
}

type roleAssignmentRequest struct {
	RoleIDs       []int64 `json:"regras"`
	PermissionIDs []int64 `json:"permissoes"`
}

// ListRoles fetches the full role catalog from GET /regras, optionally
// filtered by name. Permission action/resource fields are parsed here, once.
func (c *Client) ListRoles(ctx context.Context, token, name string) ([]rbac.Role, error) {
	query := url.Values{}
	if name != "" {
		query.Set("nome", name)
	}
	var records []roleRecord
	if _, err := c.Get(ctx, "/regras", token, query, &records); err != nil {
		return nil, err
	}
	return toDomainRoles(records), nil
}

// RolesByUser fetches only the roles currently granted to the given user
// from GET /regras/usuario/{id}.
func (c *Client) RolesByUser(ctx context.Context, token string, userID int64) ([]rbac.Role, error) {
	var records []roleRecord
	if _, err := c.Get(ctx, fmt.Sprintf("/regras/usuario/%d", userID), token, nil, &records); err != nil {
		return nil, err
	}
	return toDomainRoles(records), nil
}

// UpdateUserRoles replaces the user's role and permission assignment
// wholesale via PUT /regras/usuario/{id}.
func (c *Client) UpdateUserRoles(ctx context.Context, token string, userID int64, roleIDs, permissionIDs []int64) error {
	body := roleAssignmentRequest{RoleIDs: roleIDs, PermissionIDs: permissionIDs}
	if body.RoleIDs == nil {
		body.RoleIDs = []int64{}
	}
	if body.PermissionIDs == nil {
		body.PermissionIDs = []int64{}
	}
	return c.PutJSON(ctx, fmt.Sprintf("/regras/usuario/%d", userID), token, body, nil)
}

func toDomainRoles(records []roleRecord) []rbac.Role {
	roles := make([]rbac.Role, 0, len(records))
	for _, rec := range records {
		role := rbac.Role{
			ID:          rec.ID,
			Name:        rec.Name,
			Description: rec.Description,
			CreatedAt:   rec.CreatedAt,
			UpdatedAt:   rec.UpdatedAt,
			Permissions: make([]rbac.Permission, 0, len(rec.Permissions)),
		}
		for _, p := range rec.Permissions {
			action, resource := rbac.ParsePermissionName(p.Name)
			role.Permissions = append(role.Permissions, rbac.Permission{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
				Action:      action,
				Resource:    resource,
				CreatedAt:   p.CreatedAt,
				UpdatedAt:   p.UpdatedAt,
			})
		}
		roles = append(roles, role)
	}
	return roles
}
