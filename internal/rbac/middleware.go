package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mural-blog/mural/internal/shared"
)

// Middleware gates routes on the evaluator. A denial is an expected outcome,
// not a failure: browsers are redirected home with a flash message and
// nothing is logged at error level.
type Middleware struct {
	Logger *slog.Logger
}

// RequireRoles allows the request through only when the session holds every
// listed role (or REGRA_ADMIN).
func (m Middleware) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return m.Require(roles, nil)
}

// Require allows the request through only when Evaluate grants the combined
// role and permission requirements for the current session.
func (m Middleware) Require(roles, permissions []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			var held, heldPerms []string
			if sess != nil {
				held = sess.Roles()
				heldPerms = sess.Permissions()
			}
			if Evaluate(held, roles, heldPerms, permissions) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Debug("access denied", slog.String("path", r.URL.Path))
			}
			if !wantsHTML(r) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if sess == nil || sess.User() == "" {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Você não tem permissão para acessar esta página."})
			http.Redirect(w, r, "/", http.StatusSeeOther)
		})
	}
}

// wantsHTML reports whether the client negotiates an HTML response. An
// absent or wildcard Accept header is treated as a browser; only clients
// that explicitly ask for something else get a bare 403.
func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}
