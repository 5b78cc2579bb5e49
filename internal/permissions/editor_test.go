package permissions

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mural-blog/mural/internal/rbac"
	"github.com/mural-blog/mural/internal/shared"
)

func testSession(t *testing.T) *shared.Session {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sm := shared.NewSessionManager(client, "mural_session", "secret", time.Hour, false)
	sess, err := sm.Load(context.Background(), httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	return sess
}

func TestEditorStateRoundTrip(t *testing.T) {
	sess := testSession(t)

	state := newEditorState(7, []int64{1}, []int64{10})
	require.NotEmpty(t, state.LoadToken)
	saveEditorState(sess, state)

	loaded, ok := loadEditorState(sess, 7)
	require.True(t, ok)
	assert.Equal(t, state.LoadToken, loaded.LoadToken)
	assert.Equal(t, []int64{1}, loaded.RoleIDs)
	assert.Equal(t, []int64{10}, loaded.PermissionIDs)
}

func TestEditorStateIsPerTargetUser(t *testing.T) {
	sess := testSession(t)

	saveEditorState(sess, newEditorState(7, []int64{1}, nil))
	saveEditorState(sess, newEditorState(8, []int64{2}, nil))

	seven, ok := loadEditorState(sess, 7)
	require.True(t, ok)
	eight, ok := loadEditorState(sess, 8)
	require.True(t, ok)

	assert.Equal(t, []int64{1}, seven.RoleIDs)
	assert.Equal(t, []int64{2}, eight.RoleIDs)
	assert.NotEqual(t, seven.LoadToken, eight.LoadToken)
}

func TestStaleTokenIsRejected(t *testing.T) {
	state := newEditorState(7, nil, nil)

	assert.True(t, state.matches(7, state.LoadToken))
	assert.False(t, state.matches(7, "some-other-token"), "token from a previous load must not pass")
	assert.False(t, state.matches(8, state.LoadToken), "token bound to another user must not pass")
	assert.False(t, state.matches(7, ""), "missing token must not pass")
}

func TestResolveEditorState(t *testing.T) {
	sess := testSession(t)
	state := newEditorState(7, []int64{1}, nil)
	saveEditorState(sess, state)

	got, err := resolveEditorState(sess, 7, state.LoadToken)
	require.NoError(t, err)
	assert.Equal(t, state.LoadToken, got.LoadToken)

	_, err = resolveEditorState(sess, 7, "wrong-token")
	assert.ErrorIs(t, err, shared.ErrStaleEditor)

	_, err = resolveEditorState(sess, 8, state.LoadToken)
	assert.ErrorIs(t, err, shared.ErrStaleEditor, "no state saved for this user")
}

func TestFreshLoadMintsNewToken(t *testing.T) {
	first := newEditorState(7, nil, nil)
	second := newEditorState(7, nil, nil)

	assert.NotEqual(t, first.LoadToken, second.LoadToken)
	assert.False(t, second.matches(7, first.LoadToken))
}

func TestSelectionRoundTripThroughState(t *testing.T) {
	graph := rbac.NewGraph(testCatalog())
	state := newEditorState(7, []int64{2}, []int64{20})

	sel := state.selection(graph)
	sel.TogglePermission(10)
	state.capture(sel)

	assert.Equal(t, []int64{1, 2}, state.RoleIDs, "toggling a permission implies its owning role")
	assert.Equal(t, []int64{10, 20}, state.PermissionIDs)
}

func TestClearEditorState(t *testing.T) {
	sess := testSession(t)

	saveEditorState(sess, newEditorState(7, []int64{1}, nil))
	clearEditorState(sess, 7)

	_, ok := loadEditorState(sess, 7)
	assert.False(t, ok)
}
