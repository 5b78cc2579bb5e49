package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mural-blog/mural/internal/api"
	"github.com/mural-blog/mural/internal/rbac"
	"github.com/mural-blog/mural/internal/shared"
	"github.com/mural-blog/mural/internal/view"
)

// Handler wires the account management panel and the profile screen.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
	validator *validator.Validate
	perPage   int
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, guard rbac.Middleware, perPage int) *Handler {
	if perPage <= 0 {
		perPage = 10
	}
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		rbac:      guard,
		validator: validator.New(),
		perPage:   perPage,
	}
}

// MountPanelRoutes registers the account management routes.
func (h *Handler) MountPanelRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRoles(rbac.RoleUser))
		r.Get("/", h.list)
		r.Get("/{id}", h.detail)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require([]string{rbac.RoleUser}, []string{rbac.PermCreateUser}))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require([]string{rbac.RoleUser}, []string{rbac.PermUpdateUser}))
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require([]string{rbac.RoleUser}, []string{rbac.PermDeleteUser}))
		r.Post("/{id}/delete", h.delete)
	})
}

// MountProfileRoutes registers the self-service profile routes. They need
// only an authenticated session, no specific role.
func (h *Handler) MountProfileRoutes(r chi.Router) {
	r.Get("/", h.showProfile)
	r.Post("/password", h.changeOwnPassword)
	r.Post("/foto/delete", h.deleteOwnPhoto)
}

type userForm struct {
	FirstName string `validate:"required,min=2,max=60"`
	LastName  string `validate:"required,min=2,max=60"`
	Email     string `validate:"required,email"`
	Password  string
	Blocked   bool
}

type listPageData struct {
	Users      []api.User
	Filter     string
	Pagination shared.Pagination
	Errors     map[string]string
}

type detailPageData struct {
	User *api.User
}

type formPageData struct {
	Form   userForm
	User   *api.User
	Errors map[string]string
	IsEdit bool
}

type profilePageData struct {
	User   *api.User
	Errors map[string]string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, filter := listParams(r)
	result, err := h.service.List(r.Context(), h.token(r), page, filter, h.perPage)
	if err != nil {
		h.render(w, r, "pages/users/list.html", "Usuários", listPageData{Errors: errorMap(err)}, http.StatusOK)
		return
	}
	data := listPageData{
		Users:      result.Users,
		Filter:     filter,
		Pagination: shared.NewPagination(page, h.perPage, result.Total),
	}
	h.render(w, r, "pages/users/list.html", "Usuários", data, http.StatusOK)
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	user, err := h.service.Get(r.Context(), h.token(r), id)
	if err != nil {
		h.handleFetchError(w, r, err)
		return
	}
	h.render(w, r, "pages/users/detail.html", user.FirstName, detailPageData{User: user}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/users/form.html", "Novo usuário", formPageData{}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	form, photo, formErrors := h.parseUserForm(w, r)
	if formErrors == nil {
		return
	}
	if form.Password == "" {
		formErrors["Password"] = "Campo obrigatório ou inválido"
	} else if len(form.Password) < 6 {
		formErrors["Password"] = "A senha deve ter pelo menos 6 caracteres"
	}
	if len(formErrors) == 0 {
		input := api.UserInput{
			FirstName: form.FirstName,
			LastName:  form.LastName,
			Email:     form.Email,
			Blocked:   form.Blocked,
			Password:  form.Password,
			Photo:     photo,
		}
		if err := h.service.Create(r.Context(), h.token(r), input); err != nil {
			formErrors = errorMap(err)
		} else {
			h.redirectWithFlash(w, r, "/painel/usuarios", "success", "Usuário criado com sucesso.")
			return
		}
	}
	form.Password = ""
	h.render(w, r, "pages/users/form.html", "Novo usuário", formPageData{Form: form, Errors: formErrors}, http.StatusBadRequest)
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	user, err := h.service.Get(r.Context(), h.token(r), id)
	if err != nil {
		h.handleFetchError(w, r, err)
		return
	}
	data := formPageData{
		Form: userForm{
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			Blocked:   user.Blocked,
		},
		User:   user,
		IsEdit: true,
	}
	h.render(w, r, "pages/users/form.html", "Editar usuário", data, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	form, photo, formErrors := h.parseUserForm(w, r)
	if formErrors == nil {
		return
	}
	if len(formErrors) == 0 {
		input := api.UserInput{
			FirstName: form.FirstName,
			LastName:  form.LastName,
			Email:     form.Email,
			Blocked:   form.Blocked,
			Photo:     photo,
		}
		if err := h.service.Update(r.Context(), h.token(r), id, input); err != nil {
			formErrors = errorMap(err)
		} else {
			h.redirectWithFlash(w, r, "/painel/usuarios", "success", "Usuário atualizado com sucesso.")
			return
		}
	}
	h.render(w, r, "pages/users/form.html", "Editar usuário", formPageData{Form: form, User: &api.User{ID: id}, Errors: formErrors, IsEdit: true}, http.StatusBadRequest)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess != nil && sess.UserID() == id {
		h.redirectWithFlash(w, r, "/painel/usuarios", "error", "Não é possível remover a própria conta.")
		return
	}
	if err := h.service.Delete(r.Context(), h.token(r), id); err != nil {
		h.redirectWithFlash(w, r, "/painel/usuarios", "error", errorMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/painel/usuarios", "success", "Usuário removido.")
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.UserID() == 0 {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	user, err := h.service.Get(r.Context(), sess.Token(), sess.UserID())
	if err != nil {
		h.render(w, r, "pages/users/profile.html", "Perfil", profilePageData{Errors: errorMap(err)}, http.StatusOK)
		return
	}
	h.render(w, r, "pages/users/profile.html", "Perfil", profilePageData{User: user}, http.StatusOK)
}

func (h *Handler) changeOwnPassword(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.UserID() == 0 {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseMultipartForm(api.MaxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	password := r.PostFormValue("senha")
	photo, photoErr := api.FormFileFromRequest(r, "foto")

	formErrors := make(map[string]string)
	if photoErr != nil {
		if errors.Is(photoErr, api.ErrFileTooLarge) {
			formErrors["foto"] = "A imagem excede o limite de 4 MB"
		} else {
			formErrors["foto"] = "Falha ao processar a imagem enviada"
		}
	}
	if password == "" && photo == nil && len(formErrors) == 0 {
		formErrors["senha"] = "Informe uma nova senha ou uma nova foto"
	}
	if password != "" && len(password) < 6 {
		formErrors["senha"] = "A senha deve ter pelo menos 6 caracteres"
	}
	if len(formErrors) == 0 {
		if err := h.service.ChangePassword(r.Context(), sess.Token(), sess.UserID(), password, photo); err != nil {
			formErrors = errorMap(err)
		} else {
			h.redirectWithFlash(w, r, "/perfil", "success", "Perfil atualizado com sucesso.")
			return
		}
	}
	user, _ := h.service.Get(r.Context(), sess.Token(), sess.UserID())
	h.render(w, r, "pages/users/profile.html", "Perfil", profilePageData{User: user, Errors: formErrors}, http.StatusBadRequest)
}

func (h *Handler) deleteOwnPhoto(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.UserID() == 0 {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := h.service.DeletePhoto(r.Context(), sess.Token(), sess.UserID()); err != nil {
		h.redirectWithFlash(w, r, "/perfil", "error", errorMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/perfil", "success", "Foto removida.")
}

// parseUserForm returns a nil error map when the request was already
// answered (malformed body).
func (h *Handler) parseUserForm(w http.ResponseWriter, r *http.Request) (userForm, *api.FormFile, map[string]string) {
	if err := r.ParseMultipartForm(api.MaxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return userForm{}, nil, nil
	}
	form := userForm{
		FirstName: r.PostFormValue("nome"),
		LastName:  r.PostFormValue("sobrenome"),
		Email:     r.PostFormValue("email"),
		Password:  r.PostFormValue("senha"),
		Blocked:   r.PostFormValue("bloqueado") == "true",
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
	photo, err := api.FormFileFromRequest(r, "foto")
	if err != nil {
		if errors.Is(err, api.ErrFileTooLarge) {
			formErrors["foto"] = "A imagem excede o limite de 4 MB"
		} else {
			formErrors["foto"] = "Falha ao processar a imagem enviada"
		}
	}
	return form, photo, formErrors
}

func (h *Handler) handleFetchError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.IsNotFound() {
		http.NotFound(w, r)
		return
	}
	h.redirectWithFlash(w, r, "/painel/usuarios", "error", errorMessage(err))
}

func (h *Handler) token(r *http.Request) string {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		return sess.Token()
	}
	return ""
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
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
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func listParams(r *http.Request) (int, string) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	return page, r.URL.Query().Get("filter")
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func errorMap(err error) map[string]string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		out := make(map[string]string, len(apiErr.FieldErrors())+1)
		for field, msg := range apiErr.FieldErrors() {
			out[field] = msg
		}
		if len(out) == 0 {
			out["general"] = apiErr.Default
		}
		return out
	}
	return map[string]string{"general": shared.GenericErrorMessage}
}

func errorMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Default != "" {
		return apiErr.Default
	}
	return shared.GenericErrorMessage
}
