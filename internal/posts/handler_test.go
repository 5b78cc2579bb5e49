package posts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mural-blog/mural/internal/api"
	"github.com/mural-blog/mural/internal/rbac"
	"github.com/mural-blog/mural/internal/shared"
	"github.com/mural-blog/mural/internal/view"
)

type fakeGateway struct {
	page      *api.PostPage
	post      *api.Post
	err       error
	created   *api.PostInput
	deletedID int64
}

func (f *fakeGateway) ListPosts(ctx context.Context, page int, filter string, limit int) (*api.PostPage, error) {
	return f.page, f.err
}

func (f *fakeGateway) ListPostsLogged(ctx context.Context, token string, page int, filter string, limit int) (*api.PostPage, error) {
	return f.page, f.err
}

func (f *fakeGateway) GetPost(ctx context.Context, token string, id int64) (*api.Post, error) {
	return f.post, f.err
}

func (f *fakeGateway) CreatePost(ctx context.Context, token string, input api.PostInput) error {
	f.created = &input
	return f.err
}

func (f *fakeGateway) UpdatePost(ctx context.Context, token string, id int64, input api.PostInput) error {
	return f.err
}

func (f *fakeGateway) DeletePost(ctx context.Context, token string, id int64) error {
	f.deletedID = id
	return f.err
}

func (f *fakeGateway) DeletePostCover(ctx context.Context, token string, id int64) error {
	return f.err
}

func newTestHandler(t *testing.T, gw *fakeGateway) (*Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sm := shared.NewSessionManager(client, "mural_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")
	templates, err := view.NewEngine()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(discardWriter{}, nil))
	guard := rbac.Middleware{Logger: logger}
	return NewHandler(logger, NewService(gw), templates, csrf, guard, 10), sm
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func requestWithSession(t *testing.T, sm *shared.SessionManager, method, target string, form url.Values, params map[string]string) (*http.Request, *shared.Session) {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	sess, err := sm.Load(req.Context(), req)
	require.NoError(t, err)
	ctx := shared.ContextWithSession(req.Context(), sess)
	if len(params) > 0 {
		routeCtx := chi.NewRouteContext()
		for key, value := range params {
			routeCtx.URLParams.Add(key, value)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	}
	return req.WithContext(ctx), sess
}

func TestPublicFeedRendersPosts(t *testing.T) {
	gw := &fakeGateway{page: &api.PostPage{
		Posts: []api.Post{{ID: 1, Title: "Aviso de prova", Visible: true}},
		Total: 1,
	}}
	handler, sm := newTestHandler(t, gw)

	req, _ := requestWithSession(t, sm, http.MethodGet, "/", nil, nil)
	rr := httptest.NewRecorder()
	handler.publicFeed(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Aviso de prova")
}

func TestPublicFeedDegradesOnUpstreamFailure(t *testing.T) {
	gw := &fakeGateway{err: errors.New("boom")}
	handler, sm := newTestHandler(t, gw)

	req, _ := requestWithSession(t, sm, http.MethodGet, "/", nil, nil)
	rr := httptest.NewRecorder()
	handler.publicFeed(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), shared.GenericErrorMessage)
}

func TestPublicDetailNotFound(t *testing.T) {
	gw := &fakeGateway{err: &api.Error{Status: 404, Default: "Registro não encontrado"}}
	handler, sm := newTestHandler(t, gw)

	req, _ := requestWithSession(t, sm, http.MethodGet, "/posts/99", nil, map[string]string{"id": "99"})
	rr := httptest.NewRecorder()
	handler.publicDetail(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateValidatesForm(t *testing.T) {
	gw := &fakeGateway{}
	handler, sm := newTestHandler(t, gw)

	form := url.Values{"titulo": {""}, "conteudo": {""}}
	req, _ := requestWithSession(t, sm, http.MethodPost, "/painel/posts", form, nil)
	rr := httptest.NewRecorder()
	handler.create(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Nil(t, gw.created, "invalid form must not reach the gateway")
}

func TestCreateSubmitsAndRedirects(t *testing.T) {
	gw := &fakeGateway{}
	handler, sm := newTestHandler(t, gw)

	form := url.Values{
		"titulo":   {"Aviso de prova"},
		"conteudo": {"A prova será na sexta-feira."},
		"visivel":  {"true"},
	}
	req, _ := requestWithSession(t, sm, http.MethodPost, "/painel/posts", form, nil)
	rr := httptest.NewRecorder()
	handler.create(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/painel/posts", rr.Header().Get("Location"))
	require.NotNil(t, gw.created)
	assert.Equal(t, "Aviso de prova", gw.created.Title)
	assert.True(t, gw.created.Visible)
}

func TestDeleteRedirectsWithFlash(t *testing.T) {
	gw := &fakeGateway{}
	handler, sm := newTestHandler(t, gw)

	req, sess := requestWithSession(t, sm, http.MethodPost, "/painel/posts/3/delete", url.Values{}, map[string]string{"id": "3"})
	rr := httptest.NewRecorder()
	handler.delete(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, int64(3), gw.deletedID)
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "success", flash.Kind)
}

func TestPanelGateDeniesWithoutRole(t *testing.T) {
	handler, sm := newTestHandler(t, &fakeGateway{})

	router := chi.NewRouter()
	router.Route("/painel/posts", handler.MountPanelRoutes)

	req, sess := requestWithSession(t, sm, http.MethodGet, "/painel/posts", nil, nil)
	sess.SetAccount(shared.Account{Token: "tok", UserID: 7, Roles: []string{rbac.RoleUser}})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func TestPanelGateAllowsProfessor(t *testing.T) {
	gw := &fakeGateway{page: &api.PostPage{Posts: []api.Post{{ID: 1, Title: "Oculta"}}, Total: 1}}
	handler, sm := newTestHandler(t, gw)

	router := chi.NewRouter()
	router.Route("/painel/posts", handler.MountPanelRoutes)

	req, sess := requestWithSession(t, sm, http.MethodGet, "/painel/posts", nil, nil)
	sess.SetAccount(shared.Account{Token: "tok", UserID: 7, Roles: []string{rbac.RoleProfessor}})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Oculta")
}
