package rbac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mural-blog/mural/internal/rbac"
)

func catalogFixture() []rbac.Role {
	return []rbac.Role{
		{
			ID:   1,
			Name: rbac.RoleProfessor,
			Permissions: []rbac.Permission{
				{ID: 10, Name: rbac.PermCreatePost},
				{ID: 11, Name: rbac.PermUpdatePost},
			},
		},
		{
			ID:   2,
			Name: rbac.RoleUser,
			Permissions: []rbac.Permission{
				{ID: 20, Name: rbac.PermCreateUser},
			},
		},
		{ID: 3, Name: rbac.RoleAdmin},
	}
}

func TestGraphLookups(t *testing.T) {
	g := rbac.NewGraph(catalogFixture())
	require.True(t, g.Ready())

	perms := g.PermissionsOf(1)
	require.Len(t, perms, 2)
	assert.Equal(t, int64(10), perms[0].ID)

	owner, ok := g.RoleOwning(20)
	require.True(t, ok)
	assert.Equal(t, int64(2), owner.ID)

	_, ok = g.RoleOwning(999)
	assert.False(t, ok)

	implied := g.RolesImpliedBy(map[int64]struct{}{10: {}, 11: {}, 20: {}})
	assert.Len(t, implied, 2)
	assert.Contains(t, implied, int64(1))
	assert.Contains(t, implied, int64(2))
}

func TestEmptyGraphIsDegraded(t *testing.T) {
	g := rbac.NewGraph(nil)
	assert.False(t, g.Ready())
	assert.Empty(t, g.RolesImpliedBy(map[int64]struct{}{10: {}}))
}

func TestTogglePermissionImpliesOwningRole(t *testing.T) {
	sel := rbac.NewSelection(rbac.NewGraph(catalogFixture()))

	sel.TogglePermission(10)

	assert.Equal(t, []int64{10}, sel.PermissionIDs())
	assert.Equal(t, []int64{1}, sel.RoleIDs())
}

func TestToggleRoleDoesNotCascadeToPermissions(t *testing.T) {
	sel := rbac.NewSelection(rbac.NewGraph(catalogFixture()))

	sel.TogglePermission(10)
	sel.ToggleRole(1)

	assert.Empty(t, sel.RoleIDs(), "unchecking the role must not be blocked")
	assert.Equal(t, []int64{10}, sel.PermissionIDs(), "permissions stay selected when the role is unchecked")
}

func TestTogglePermissionTwiceKeepsImpliedRole(t *testing.T) {
	sel := rbac.NewSelection(rbac.NewGraph(catalogFixture()))

	sel.TogglePermission(10)
	sel.TogglePermission(10)

	assert.Empty(t, sel.PermissionIDs(), "second toggle removes the permission")
	assert.Equal(t, []int64{1}, sel.RoleIDs(), "role added by the first toggle is not undone")
}

func TestTogglePermissionReimpliesFromRemainingSelection(t *testing.T) {
	sel := rbac.NewSelection(rbac.NewGraph(catalogFixture()))

	sel.TogglePermission(10)
	sel.ToggleRole(1)
	// Toggling another permission of the same role re-implies it because
	// permission 10 is still selected.
	sel.TogglePermission(11)

	assert.Equal(t, []int64{1}, sel.RoleIDs())
	assert.Equal(t, []int64{10, 11}, sel.PermissionIDs())
}

func TestZeroPermissionRoleIsNeverImplied(t *testing.T) {
	sel := rbac.NewSelection(rbac.NewGraph(catalogFixture()))

	sel.TogglePermission(10)
	sel.TogglePermission(20)

	assert.NotContains(t, sel.RoleIDs(), int64(3))

	sel.ToggleRole(3)
	assert.Contains(t, sel.RoleIDs(), int64(3))
}

func TestResetReplacesStateWholesale(t *testing.T) {
	sel := rbac.NewSelection(rbac.NewGraph(catalogFixture()))
	sel.TogglePermission(10)

	sel.Reset([]int64{2, 3}, []int64{20})

	assert.Equal(t, []int64{2, 3}, sel.RoleIDs())
	assert.Equal(t, []int64{20}, sel.PermissionIDs())
}

func TestResetThenSnapshotSendsExactIDs(t *testing.T) {
	sel := rbac.NewSelection(rbac.NewGraph(catalogFixture()))

	sel.Reset([]int64{1, 1, 2}, []int64{11, 10, 10})

	assert.Equal(t, []int64{1, 2}, sel.RoleIDs(), "duplicates collapse, order is irrelevant")
	assert.Equal(t, []int64{10, 11}, sel.PermissionIDs())
}

func TestDegradedGraphPropagationIsNoOp(t *testing.T) {
	sel := rbac.NewSelection(rbac.NewGraph(nil))

	sel.TogglePermission(10)

	assert.Equal(t, []int64{10}, sel.PermissionIDs())
	assert.Empty(t, sel.RoleIDs(), "no catalog means no implied roles")
}
