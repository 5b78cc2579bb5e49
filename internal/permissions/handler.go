package permissions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mural-blog/mural/internal/api"
	"github.com/mural-blog/mural/internal/rbac"
	"github.com/mural-blog/mural/internal/shared"
	"github.com/mural-blog/mural/internal/view"
)

// Handler serves the permission-editing screen for a target user.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	users     UserGateway
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
}

// UserGateway resolves the target user shown at the top of the editor.
type UserGateway interface {
	GetUser(ctx context.Context, token string, id int64) (*api.User, error)
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, users UserGateway, templates *view.Engine, csrf *shared.CSRFManager, guard rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		users:     users,
		templates: templates,
		csrf:      csrf,
		rbac:      guard,
	}
}

// MountRoutes registers the editor routes. All of them require the user
// management role plus the update permission; REGRA_ADMIN bypasses both.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require([]string{rbac.RoleUser}, []string{rbac.PermUpdateUser}))
		r.Get("/{id}/regras", h.show)
		r.Post("/{id}/regras/toggle", h.toggle)
		r.Post("/{id}/regras", h.submit)
	})
}

// roleCard is one catalog role with its checkbox state resolved against the
// current selection.
type roleCard struct {
	Role        rbac.Role
	Checked     bool
	Permissions []permissionRow
}

type permissionRow struct {
	Permission rbac.Permission
	Checked    bool
}

type editorPageData struct {
	User      *api.User
	LoadToken string
	Cards     []roleCard
	Degraded  bool
	Errors    map[string]string
}

// show renders the editor. A session without saved state for this user (or
// an explicit ?reload=1) starts a fresh editing session from the server's
// assignment and mints a new load token; otherwise the saved checkbox state
// survives the redirect-after-toggle cycle.
func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	token := sessionToken(sess)

	assignment, err := h.service.Load(r.Context(), token, userID)
	if err != nil {
		h.handleFetchError(w, r, err)
		return
	}

	state, found := loadEditorState(sess, userID)
	if !found || r.URL.Query().Get("reload") == "1" {
		state = newEditorState(userID, assignment.RoleIDs, assignment.PermissionIDs)
		if sess != nil {
			saveEditorState(sess, state)
		}
	}

	user, err := h.users.GetUser(r.Context(), token, userID)
	if err != nil {
		h.handleFetchError(w, r, err)
		return
	}

	data := editorPageData{
		User:      user,
		LoadToken: state.LoadToken,
		Cards:     buildCards(assignment.Graph, state.selection(assignment.Graph)),
		Degraded:  !assignment.Graph.Ready(),
	}
	if data.Degraded {
		data.Errors = map[string]string{"general": shared.GenericErrorMessage}
	}
	h.render(w, r, user, data, http.StatusOK)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	state, err := resolveEditorState(sess, userID, r.PostFormValue("load_token"))
	if err != nil {
		h.redirectStale(w, r, userID, err)
		return
	}

	graph, err := h.service.Catalog(r.Context(), sessionToken(sess))
	if err != nil {
		// Degraded: the toggle is dropped rather than applied blind.
		h.redirectWithFlash(w, r, editorPath(userID), "error", shared.GenericErrorMessage)
		return
	}

	targetID, err := strconv.ParseInt(r.PostFormValue("target"), 10, 64)
	if err != nil || targetID <= 0 {
		h.redirectWithFlash(w, r, editorPath(userID), "error", "Seleção inválida.")
		return
	}

	sel := state.selection(graph)
	switch r.PostFormValue("kind") {
	case "role":
		sel.ToggleRole(targetID)
	case "permission":
		sel.TogglePermission(targetID)
	default:
		h.redirectWithFlash(w, r, editorPath(userID), "error", "Seleção inválida.")
		return
	}
	state.capture(sel)
	saveEditorState(sess, state)

	http.Redirect(w, r, editorPath(userID), http.StatusSeeOther)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	state, err := resolveEditorState(sess, userID, r.PostFormValue("load_token"))
	if err != nil {
		h.redirectStale(w, r, userID, err)
		return
	}

	graph, err := h.service.Catalog(r.Context(), sessionToken(sess))
	if err != nil || !graph.Ready() {
		if err == nil {
			err = shared.ErrCatalogUnavailable
		}
		h.logger.Debug("submit blocked", slog.Any("error", err))
		h.redirectWithFlash(w, r, editorPath(userID), "error", shared.GenericErrorMessage)
		return
	}

	sel := state.selection(graph)
	if err := h.service.Save(r.Context(), sessionToken(sess), userID, sel.RoleIDs(), sel.PermissionIDs()); err != nil {
		// Editor state stays put so the user can fix and resubmit.
		var apiErr *api.Error
		if !errors.As(err, &apiErr) {
			h.redirectWithFlash(w, r, editorPath(userID), "error", shared.GenericErrorMessage)
			return
		}
		if fields := apiErr.FieldErrors(); len(fields) > 0 {
			h.renderSaveFailure(w, r, userID, state, graph, sel, apiErr)
			return
		}
		if apiErr.Default != "" {
			h.redirectWithFlash(w, r, editorPath(userID), "error", apiErr.Default)
			return
		}
		h.redirectWithFlash(w, r, editorPath(userID), "error", shared.GenericErrorMessage)
		return
	}

	// Discard the editor and reload from the server's authoritative state.
	clearEditorState(sess, userID)
	h.redirectWithFlash(w, r, editorPath(userID)+"?reload=1", "success", "Regras atualizadas com sucesso.")
}

// renderSaveFailure re-renders the editor with the API's per-field
// validation messages. The saved editor state is untouched so the same
// selection can be corrected and resubmitted.
func (h *Handler) renderSaveFailure(w http.ResponseWriter, r *http.Request, userID int64, state editorState, graph *rbac.Graph, sel *rbac.Selection, apiErr *api.Error) {
	sess := shared.SessionFromContext(r.Context())
	user, err := h.users.GetUser(r.Context(), sessionToken(sess), userID)
	if err != nil {
		h.handleFetchError(w, r, err)
		return
	}

	fields := apiErr.FieldErrors()
	errs := make(map[string]string, len(fields)+1)
	for field, message := range fields {
		errs[field] = message
	}
	if apiErr.Default != "" {
		errs["general"] = apiErr.Default
	}
	data := editorPageData{
		User:      user,
		LoadToken: state.LoadToken,
		Cards:     buildCards(graph, sel),
		Errors:    errs,
	}
	h.render(w, r, user, data, http.StatusBadRequest)
}

func buildCards(graph *rbac.Graph, sel *rbac.Selection) []roleCard {
	roles := graph.Roles()
	cards := make([]roleCard, 0, len(roles))
	for _, role := range roles {
		card := roleCard{
			Role:        role,
			Checked:     sel.HasRole(role.ID),
			Permissions: make([]permissionRow, 0, len(role.Permissions)),
		}
		for _, perm := range role.Permissions {
			card.Permissions = append(card.Permissions, permissionRow{
				Permission: perm,
				Checked:    sel.HasPermission(perm.ID),
			})
		}
		cards = append(cards, card)
	}
	return cards
}

func (h *Handler) redirectStale(w http.ResponseWriter, r *http.Request, userID int64, err error) {
	h.logger.Debug("stale editor form", slog.Int64("user_id", userID), slog.Any("error", err))
	h.redirectWithFlash(w, r, editorPath(userID)+"?reload=1", "error", "A tela de regras foi recarregada. Tente novamente.")
}

func (h *Handler) handleFetchError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.IsNotFound() {
			http.NotFound(w, r)
			return
		}
		h.redirectWithFlash(w, r, "/painel/usuarios", "error", apiErr.Default)
		return
	}
	h.redirectWithFlash(w, r, "/painel/usuarios", "error", shared.GenericErrorMessage)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, user *api.User, data editorPageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	var account *shared.Account
	if sess != nil {
		flash = sess.PopFlash()
		account = sess.Account()
	}
	viewData := view.TemplateData{
		Title:       "Regras de " + user.FirstName,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Account:     account,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/permissions/edit.html", viewData); err != nil {
		h.logger.Error("render template", slog.String("template", "pages/permissions/edit.html"), slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func editorPath(userID int64) string {
	return "/painel/usuarios/" + strconv.FormatInt(userID, 10) + "/regras"
}

func sessionToken(sess *shared.Session) string {
	if sess == nil {
		return ""
	}
	return sess.Token()
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
