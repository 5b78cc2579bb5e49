package permissions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mural-blog/mural/internal/rbac"
)

type fakeGateway struct {
	catalog     []rbac.Role
	catalogErr  error
	granted     []rbac.Role
	grantedErr  error
	savedRoles  []int64
	savedPerms  []int64
	savedUserID int64
	saveErr     error
}

func (f *fakeGateway) ListRoles(ctx context.Context, token, name string) ([]rbac.Role, error) {
	return f.catalog, f.catalogErr
}

func (f *fakeGateway) RolesByUser(ctx context.Context, token string, userID int64) ([]rbac.Role, error) {
	return f.granted, f.grantedErr
}

func (f *fakeGateway) UpdateUserRoles(ctx context.Context, token string, userID int64, roleIDs, permissionIDs []int64) error {
	f.savedUserID = userID
	f.savedRoles = roleIDs
	f.savedPerms = permissionIDs
	return f.saveErr
}

func testCatalog() []rbac.Role {
	return []rbac.Role{
		{ID: 1, Name: rbac.RoleProfessor, Permissions: []rbac.Permission{
			{ID: 10, Name: rbac.PermCreatePost},
			{ID: 11, Name: rbac.PermUpdatePost},
		}},
		{ID: 2, Name: rbac.RoleUser, Permissions: []rbac.Permission{
			{ID: 20, Name: rbac.PermUpdateUser},
		}},
		{ID: 3, Name: rbac.RoleAdmin},
	}
}

func TestLoadFlattensGrantedAssignment(t *testing.T) {
	gw := &fakeGateway{
		catalog: testCatalog(),
		granted: []rbac.Role{
			{ID: 1, Name: rbac.RoleProfessor, Permissions: []rbac.Permission{
				{ID: 10, Name: rbac.PermCreatePost},
			}},
		},
	}
	svc := NewService(gw)

	assignment, err := svc.Load(context.Background(), "tok", 7)
	require.NoError(t, err)
	require.NoError(t, assignment.CatalogErr)

	assert.True(t, assignment.Graph.Ready())
	assert.Equal(t, []int64{1}, assignment.RoleIDs)
	assert.Equal(t, []int64{10}, assignment.PermissionIDs)
}

func TestLoadDegradesOnCatalogFailure(t *testing.T) {
	gw := &fakeGateway{
		catalogErr: errors.New("boom"),
		granted:    []rbac.Role{{ID: 2, Name: rbac.RoleUser}},
	}
	svc := NewService(gw)

	assignment, err := svc.Load(context.Background(), "tok", 7)
	require.NoError(t, err)

	assert.Error(t, assignment.CatalogErr)
	assert.False(t, assignment.Graph.Ready())
	assert.Equal(t, []int64{2}, assignment.RoleIDs)
}

func TestLoadFailsWhenAssignmentFetchFails(t *testing.T) {
	gw := &fakeGateway{catalog: testCatalog(), grantedErr: errors.New("boom")}
	svc := NewService(gw)

	_, err := svc.Load(context.Background(), "tok", 7)
	assert.Error(t, err)
}

func TestSavePassesSortedIDSets(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw)

	err := svc.Save(context.Background(), "tok", 7, []int64{1, 2}, []int64{10, 20})
	require.NoError(t, err)

	assert.Equal(t, int64(7), gw.savedUserID)
	assert.Equal(t, []int64{1, 2}, gw.savedRoles)
	assert.Equal(t, []int64{10, 20}, gw.savedPerms)
}
