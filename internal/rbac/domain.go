package rbac

import (
	"strings"
	"time"
)

// Well-known role names returned by the Mural API. RoleAdmin is a sentinel:
// holding it grants every capability without consulting permissions.
const (
	RoleAdmin     = "REGRA_ADMIN"
	RoleUser      = "REGRA_USUARIO"
	RoleProfessor = "REGRA_PROFESSOR"
)

// Permission names follow the PERMISSAO_<ACTION>_<RESOURCE> convention.
const (
	PermCreateUser = "PERMISSAO_CRIAR_USUARIO"
	PermUpdateUser = "PERMISSAO_ATUALIZAR_USUARIO"
	PermDeleteUser = "PERMISSAO_DELETAR_USUARIO"

	PermCreatePost = "PERMISSAO_CRIAR_POSTAGEM"
	PermUpdatePost = "PERMISSAO_ATUALIZAR_POSTAGEM"
	PermDeletePost = "PERMISSAO_DELETAR_POSTAGEM"
)

// Role represents a named bundle of permissions from the catalog.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Permissions []Permission
}

// Permission represents an atomic capability owned by exactly one role.
// Action and Resource are parsed from the permission name once at catalog
// load so templates never re-split the raw string.
type Permission struct {
	ID          int64
	Name        string
	Description string
	Action      string
	Resource    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ParsePermissionName extracts the action and resource segments from a
// PERMISSAO_<ACTION>_<RESOURCE> name. Names outside the convention yield
// empty segments rather than an error.
func ParsePermissionName(name string) (action, resource string) {
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return "", ""
	}
	return strings.ToLower(parts[1]), strings.ToLower(strings.Join(parts[2:], " "))
}
