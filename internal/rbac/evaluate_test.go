package rbac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mural-blog/mural/internal/rbac"
	_ "github.com/mural-blog/mural/testing"
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name          string
		heldRoles     []string
		requiredRoles []string
		heldPerms     []string
		requiredPerms []string
		want          bool
	}{
		{
			name:          "no roles held while roles required",
			heldRoles:     []string{},
			requiredRoles: []string{rbac.RoleProfessor},
			want:          false,
		},
		{
			name:          "no roles held while permissions required",
			heldRoles:     nil,
			requiredPerms: []string{rbac.PermCreateUser},
			want:          false,
		},
		{
			name:      "degenerate allow when nothing required",
			heldRoles: nil,
			want:      true,
		},
		{
			name:          "admin bypasses role and permission checks",
			heldRoles:     []string{rbac.RoleAdmin},
			requiredRoles: []string{rbac.RoleUser},
			heldPerms:     []string{},
			requiredPerms: []string{rbac.PermCreateUser},
			want:          true,
		},
		{
			name:          "role satisfied but permission missing",
			heldRoles:     []string{rbac.RoleUser},
			requiredRoles: []string{rbac.RoleUser},
			heldPerms:     []string{},
			requiredPerms: []string{rbac.PermCreateUser},
			want:          false,
		},
		{
			name:          "role and permission satisfied",
			heldRoles:     []string{rbac.RoleUser},
			requiredRoles: []string{rbac.RoleUser},
			heldPerms:     []string{rbac.PermCreateUser},
			requiredPerms: []string{rbac.PermCreateUser},
			want:          true,
		},
		{
			name:          "no required permissions allows once roles match",
			heldRoles:     []string{rbac.RoleProfessor, rbac.RoleUser},
			requiredRoles: []string{rbac.RoleProfessor},
			want:          true,
		},
		{
			name:      "held roles with no requirements",
			heldRoles: []string{rbac.RoleUser},
			want:      true,
		},
		{
			name:          "subset of required roles denies",
			heldRoles:     []string{rbac.RoleUser},
			requiredRoles: []string{rbac.RoleUser, rbac.RoleProfessor},
			want:          false,
		},
		{
			name:          "permissions checked without required roles",
			heldRoles:     []string{rbac.RoleUser},
			heldPerms:     []string{rbac.PermDeletePost},
			requiredPerms: []string{rbac.PermDeletePost},
			want:          true,
		},
		{
			name:          "nil held permissions treated as empty",
			heldRoles:     []string{rbac.RoleUser},
			requiredRoles: []string{rbac.RoleUser},
			heldPerms:     nil,
			requiredPerms: []string{rbac.PermUpdatePost},
			want:          false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := rbac.Evaluate(tc.heldRoles, tc.requiredRoles, tc.heldPerms, tc.requiredPerms)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	held := []string{rbac.RoleUser, rbac.RoleProfessor}
	required := []string{rbac.RoleProfessor}
	first := rbac.Evaluate(held, required, nil, nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, rbac.Evaluate(held, required, nil, nil))
	}
}

func TestParsePermissionName(t *testing.T) {
	action, resource := rbac.ParsePermissionName(rbac.PermCreatePost)
	assert.Equal(t, "criar", action)
	assert.Equal(t, "postagem", resource)

	action, resource = rbac.ParsePermissionName("PERMISSAO")
	assert.Empty(t, action)
	assert.Empty(t, resource)
}
