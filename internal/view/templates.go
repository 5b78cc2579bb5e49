package view

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mural-blog/mural/internal/rbac"
	"github.com/mural-blog/mural/internal/shared"
	"github.com/mural-blog/mural/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Account     *shared.Account
	Data        any
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	titleCaser := cases.Title(language.BrazilianPortuguese)
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006 15:04")
		},
		// permissionLabel renders "PERMISSAO_CRIAR_POSTAGEM" as
		// "Criar Postagem" using the pre-parsed action/resource fields.
		"permissionLabel": func(p rbac.Permission) string {
			if p.Action == "" {
				return titleCaser.String(p.Name)
			}
			return titleCaser.String(p.Action + " " + p.Resource)
		},
		"roleLabel": func(name string) string {
			switch name {
			case rbac.RoleAdmin:
				return "Administrador"
			case rbac.RoleUser:
				return "Usuário"
			case rbac.RoleProfessor:
				return "Professor"
			default:
				return titleCaser.String(name)
			}
		},
		// hasRoles and can gate navigation and buttons on the evaluator;
		// they are re-evaluated on every render, never cached.
		"hasRoles": func(acc *shared.Account, roles ...string) bool {
			if acc == nil {
				return rbac.Evaluate(nil, roles, nil, nil)
			}
			return rbac.Evaluate(acc.Roles, roles, acc.Permissions, nil)
		},
		"can": func(acc *shared.Account, role, permission string) bool {
			if acc == nil {
				return false
			}
			return rbac.Evaluate(acc.Roles, []string{role}, acc.Permissions, []string{permission})
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html", "templates/pages/*/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
