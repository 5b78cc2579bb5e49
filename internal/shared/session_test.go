package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "mural_session", "secret", time.Hour, false)
}

func TestSessionAccountRoundTrip(t *testing.T) {
	sm := testManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	sess.SetAccount(Account{
		Token:       "bearer-token",
		UserID:      7,
		Roles:       []string{"REGRA_PROFESSOR"},
		Permissions: []string{"PERMISSAO_CRIAR_POSTAGEM"},
	})

	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, httptest.NewRequest("GET", "/", nil), sess))

	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)

	next := httptest.NewRequest("GET", "/", nil)
	next.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, next)
	require.NoError(t, err)

	assert.Equal(t, "bearer-token", loaded.Token())
	assert.Equal(t, int64(7), loaded.UserID())
	assert.Equal(t, "7", loaded.User())
	assert.Equal(t, []string{"REGRA_PROFESSOR"}, loaded.Roles())
	assert.Equal(t, []string{"PERMISSAO_CRIAR_POSTAGEM"}, loaded.Permissions())
}

func TestAnonymousSessionHasNoIdentity(t *testing.T) {
	sm := testManager(t)

	sess, err := sm.Load(context.Background(), httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	assert.Nil(t, sess.Account())
	assert.Empty(t, sess.Token())
	assert.Zero(t, sess.UserID())
	assert.Nil(t, sess.Roles())
	assert.Nil(t, sess.Permissions())
}

func TestClearAccountKeepsSessionValues(t *testing.T) {
	sm := testManager(t)

	sess, err := sm.Load(context.Background(), httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	sess.Set("theme", "dark")
	sess.SetAccount(Account{Token: "tok", UserID: 1})
	sess.ClearAccount()

	assert.Nil(t, sess.Account())
	assert.Equal(t, "dark", sess.Get("theme"))
}

func TestDestroyRemovesSession(t *testing.T) {
	sm := testManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	sess.SetAccount(Account{Token: "tok", UserID: 1})

	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, httptest.NewRequest("GET", "/", nil), sess))
	cookie := rr.Result().Cookies()[0]

	sm.Destroy(sess)
	destroyRR := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, destroyRR, httptest.NewRequest("GET", "/", nil), sess))

	next := httptest.NewRequest("GET", "/", nil)
	next.AddCookie(cookie)
	loaded, err := sm.Load(ctx, next)
	require.NoError(t, err)
	assert.Nil(t, loaded.Account())
}

func TestFlashMessagesAreOneShot(t *testing.T) {
	sm := testManager(t)

	sess, err := sm.Load(context.Background(), httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	sess.AddFlash(FlashMessage{Kind: "success", Message: "Bem-vindo de volta!"})

	first := sess.PopFlash()
	require.NotNil(t, first)
	assert.Equal(t, "Bem-vindo de volta!", first.Message)
	assert.Nil(t, sess.PopFlash())
}

func TestCSRFTokenLifecycle(t *testing.T) {
	sm := testManager(t)
	csrf := NewCSRFManager("csrf-secret")
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	again, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, token, again, "token is stable within a session")

	assert.NoError(t, csrf.VerifyToken(ctx, sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, "forged"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
}

func TestSessionCookieAttributes(t *testing.T) {
	sm := testManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, httptest.NewRequest("GET", "/", nil), sess))

	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	cookie := cookies[0]
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, "mural_session", cookie.Name)
}
