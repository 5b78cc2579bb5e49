package posts

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

// Handler wires the public feed and the post management panel.
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

// MountPublicRoutes registers the anonymous browsing routes.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/", h.publicFeed)
	r.Get("/posts/{id}", h.publicDetail)
}

// MountPanelRoutes registers the authenticated management routes.
func (h *Handler) MountPanelRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRoles(rbac.RoleProfessor))
		r.Get("/", h.panelFeed)
		r.Get("/{id}", h.panelDetail)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require([]string{rbac.RoleProfessor}, []string{rbac.PermCreatePost}))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require([]string{rbac.RoleProfessor}, []string{rbac.PermUpdatePost}))
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.update)
		r.Post("/{id}/capa/delete", h.deleteCover)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require([]string{rbac.RoleProfessor}, []string{rbac.PermDeletePost}))
		r.Post("/{id}/delete", h.delete)
	})
}

type postForm struct {
	Title   string `validate:"required,min=3,max=120"`
	Content string `validate:"required,min=3"`
	Visible bool
}

type feedPageData struct {
	Posts      []api.Post
	Filter     string
	Pagination shared.Pagination
	Panel      bool
	Errors     map[string]string
}

type detailPageData struct {
	Post  *api.Post
	Panel bool
}

type formPageData struct {
	Form   postForm
	Post   *api.Post
	Errors map[string]string
	IsEdit bool
}

func (h *Handler) publicFeed(w http.ResponseWriter, r *http.Request) {
	page, filter := listParams(r)
	result, err := h.service.PublicFeed(r.Context(), page, filter, h.perPage)
	if err != nil {
		h.render(w, r, "pages/home.html", "Mural", feedPageData{Errors: errorMap(err)}, http.StatusOK)
		return
	}
	data := feedPageData{
		Posts:      result.Posts,
		Filter:     filter,
		Pagination: shared.NewPagination(page, h.perPage, result.Total),
	}
	h.render(w, r, "pages/home.html", "Mural", data, http.StatusOK)
}

func (h *Handler) publicDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	post, err := h.service.Get(r.Context(), h.token(r), id)
	if err != nil {
		h.handleFetchError(w, r, err, "/")
		return
	}
	h.render(w, r, "pages/posts/detail.html", post.Title, detailPageData{Post: post}, http.StatusOK)
}

func (h *Handler) panelFeed(w http.ResponseWriter, r *http.Request) {
	page, filter := listParams(r)
	result, err := h.service.PrivateFeed(r.Context(), h.token(r), page, filter, h.perPage)
	if err != nil {
		h.render(w, r, "pages/posts/list.html", "Postagens", feedPageData{Panel: true, Errors: errorMap(err)}, http.StatusOK)
		return
	}
	data := feedPageData{
		Posts:      result.Posts,
		Filter:     filter,
		Pagination: shared.NewPagination(page, h.perPage, result.Total),
		Panel:      true,
	}
	h.render(w, r, "pages/posts/list.html", "Postagens", data, http.StatusOK)
}

func (h *Handler) panelDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	post, err := h.service.Get(r.Context(), h.token(r), id)
	if err != nil {
		h.handleFetchError(w, r, err, "/painel/posts")
		return
	}
	h.render(w, r, "pages/posts/detail.html", post.Title, detailPageData{Post: post, Panel: true}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/posts/form.html", "Nova postagem", formPageData{Form: postForm{Visible: true}}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	form, cover, formErrors := h.parsePostForm(w, r)
	if formErrors == nil {
		return
	}
	if len(formErrors) == 0 {
		input := api.PostInput{Title: form.Title, Content: form.Content, Visible: form.Visible, Cover: cover}
		if err := h.service.Create(r.Context(), h.token(r), input); err != nil {
			formErrors = errorMap(err)
		} else {
			h.redirectWithFlash(w, r, "/painel/posts", "success", "Postagem criada com sucesso.")
			return
		}
	}
	h.render(w, r, "pages/posts/form.html", "Nova postagem", formPageData{Form: form, Errors: formErrors}, http.StatusBadRequest)
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	post, err := h.service.Get(r.Context(), h.token(r), id)
	if err != nil {
		h.handleFetchError(w, r, err, "/painel/posts")
		return
	}
	data := formPageData{
		Form:   postForm{Title: post.Title, Content: post.Content, Visible: post.Visible},
		Post:   post,
		IsEdit: true,
	}
	h.render(w, r, "pages/posts/form.html", "Editar postagem", data, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	form, cover, formErrors := h.parsePostForm(w, r)
	if formErrors == nil {
		return
	}
	if len(formErrors) == 0 {
		input := api.PostInput{Title: form.Title, Content: form.Content, Visible: form.Visible, Cover: cover}
		if err := h.service.Update(r.Context(), h.token(r), id, input); err != nil {
			formErrors = errorMap(err)
		} else {
			h.redirectWithFlash(w, r, "/painel/posts", "success", "Postagem atualizada com sucesso.")
			return
		}
	}
	h.render(w, r, "pages/posts/form.html", "Editar postagem", formPageData{Form: form, Post: &api.Post{ID: id}, Errors: formErrors, IsEdit: true}, http.StatusBadRequest)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := h.service.Delete(r.Context(), h.token(r), id); err != nil {
		h.redirectWithFlash(w, r, "/painel/posts", "error", errorMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/painel/posts", "success", "Postagem removida.")
}

func (h *Handler) deleteCover(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := h.service.DeleteCover(r.Context(), h.token(r), id); err != nil {
		h.redirectWithFlash(w, r, "/painel/posts", "error", errorMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/painel/posts/"+strconv.FormatInt(id, 10)+"/edit", "success", "Capa removida.")
}

// parsePostForm returns a nil error map when the request was already
// answered (malformed body).
func (h *Handler) parsePostForm(w http.ResponseWriter, r *http.Request) (postForm, *api.FormFile, map[string]string) {
	if err := r.ParseMultipartForm(api.MaxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return postForm{}, nil, nil
	}
	form := postForm{
		Title:   r.PostFormValue("titulo"),
		Content: r.PostFormValue("conteudo"),
		Visible: r.PostFormValue("visivel") == "true",
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
	cover, err := api.FormFileFromRequest(r, "capa")
	if err != nil {
		if errors.Is(err, api.ErrFileTooLarge) {
			formErrors["capa"] = "A imagem excede o limite de 4 MB"
		} else {
			formErrors["capa"] = "Falha ao processar a imagem enviada"
		}
	}
	return form, cover, formErrors
}

func (h *Handler) handleFetchError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.IsNotFound() {
		http.NotFound(w, r)
		return
	}
	h.redirectWithFlash(w, r, fallback, "error", errorMessage(err))
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
