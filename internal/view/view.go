// Package view renders the account pages from embedded HTML templates.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/noisyneuron/noisyneuron/internal/model"
)

//go:embed templates/*.html
var files embed.FS

// Page names.
const (
	PageIndex       = "index"
	PageSignup      = "signup"
	PageLogin       = "login"
	PageDashboard   = "dashboard"
	PageProfile     = "profile"
	PageProfileEdit = "profile_edit"
)

var pageNames = []string{PageIndex, PageSignup, PageLogin, PageDashboard, PageProfile, PageProfileEdit}

// Page is the data every template receives.
type Page struct {
	Title   string
	User    *model.User
	Flashes []model.Flash

	// Form echoes submitted values back into a re-rendered form.
	Form   map[string]string
	Errors map[string][]string
	Next   string
	// CSRFToken is echoed in every POST form.
	CSRFToken string

	Profile     *model.Profile
	Stats       *model.ProjectStats
	SkillLevels []model.SkillLevel
}

// Renderer executes parsed page templates.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"date": func(t time.Time) string { return t.Format("Jan 2, 2006") },
	"fieldErrors": func(errs map[string][]string, field string) []string {
		return errs[field]
	},
	"value": func(form map[string]string, field string) string {
		return form[field]
	},
}

// New parses the layout together with every page template.
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}

	for _, name := range pageNames {
		tmpl, err := template.New("base.html").Funcs(funcs).ParseFS(files, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.pages[name] = tmpl
	}

	return r, nil
}

// Render writes the named page. Output is buffered so a template error never
// produces a half-written page.
func (r *Renderer) Render(w io.Writer, name string, page *Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", page); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	_, err := buf.WriteTo(w)
	return err
}
