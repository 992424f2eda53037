package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is everything the dashboard screen shows.
type Page struct {
	SearchText string
	List       ListView
	Dialog     DialogView
}

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Page renders the full HTML document.
func (r *Renderer) Page(w io.Writer, p Page) error {
	return r.tmpl.ExecuteTemplate(w, "layout", p)
}

// Fragment renders only the part that is swapped on every state change.
func (r *Renderer) Fragment(w io.Writer, p Page) error {
	return r.tmpl.ExecuteTemplate(w, "dashboard", p)
}
