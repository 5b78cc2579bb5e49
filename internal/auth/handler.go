package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mural-blog/mural/internal/api"
	"github.com/mural-blog/mural/internal/shared"
	"github.com/mural-blog/mural/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/recuperar", h.showRecover)
	r.Post("/recuperar", h.handleRecover)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, loginPageData{Form: loginForm{}}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("senha"),
	}
	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fieldErr := range fieldErrs {
				formErrors[fieldErr.Field()] = "Campo obrigatório ou inválido"
			}
		}
	}

	if len(formErrors) == 0 {
		data, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		if err != nil {
			var apiErr *api.Error
			if errors.As(err, &apiErr) {
				for field, msg := range apiErr.FieldErrors() {
					formErrors[field] = msg
				}
				if len(apiErr.FieldErrors()) == 0 {
					formErrors["general"] = apiErr.Default
				}
			} else {
				formErrors["general"] = shared.GenericErrorMessage
			}
		} else {
			if sess != nil {
				sess.SetAccount(shared.Account{
					Token:       data.AccessToken,
					UserID:      data.UserID,
					Roles:       data.Roles,
					Permissions: data.Permissions,
				})
				sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Bem-vindo de volta!"})
			} else {
				h.logger.Error("session missing during login")
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	form.Password = ""
	h.renderLogin(w, r, loginPageData{Form: form, Errors: formErrors}, http.StatusBadRequest)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type recoverForm struct {
	Email string `validate:"required,email"`
}

type recoverPageData struct {
	Form   recoverForm
	Errors map[string]string
	Sent   bool
}

func (h *Handler) showRecover(w http.ResponseWriter, r *http.Request) {
	h.renderRecover(w, r, recoverPageData{}, http.StatusOK)
}

func (h *Handler) handleRecover(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := recoverForm{Email: r.PostFormValue("email")}
	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		formErrors["email"] = "Informe um e-mail válido"
	}
	if len(formErrors) == 0 {
		if err := h.service.RecoverPassword(r.Context(), form.Email); err != nil {
			var apiErr *api.Error
			if errors.As(err, &apiErr) {
				formErrors["general"] = apiErr.Default
			} else {
				formErrors["general"] = shared.GenericErrorMessage
			}
		} else {
			h.renderRecover(w, r, recoverPageData{Sent: true}, http.StatusOK)
			return
		}
	}
	h.renderRecover(w, r, recoverPageData{Form: form, Errors: formErrors}, http.StatusBadRequest)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, data loginPageData, status int) {
	h.render(w, r, "pages/login.html", "Entrar", data, status)
}

func (h *Handler) renderRecover(w http.ResponseWriter, r *http.Request, data recoverPageData, status int) {
	h.render(w, r, "pages/recover.html", "Recuperar senha", data, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	var account *shared.Account
	if sess != nil {
		flash = sess.PopFlash()
		account = sess.Account()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Account:     account,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, name, viewData); err != nil {
		h.logger.Error("render template", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// ShowLoginForTest exposes the GET handler for tests.
func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r)
}

// HandleLoginForTest exposes the POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}
