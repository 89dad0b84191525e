package view

import (
	"bytes"
	"fmt"
	"go-news-portal/internal/data"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// View represents a collection of parsed HTML templates.
type View struct {
	templates map[string]*template.Template
}

// New creates a new View by parsing all templates from the given filesystem.
// Every page gets its own set made of the layouts, the partials and the page itself.
func New(templateFS fs.FS) (*View, error) {
	v := &View{
		templates: make(map[string]*template.Template),
	}

	layouts, err := fs.Glob(templateFS, "templates/layouts/*.html")
	if err != nil {
		return nil, err
	}
	partials, err := fs.Glob(templateFS, "templates/partials/*.html")
	if err != nil {
		return nil, err
	}
	pages, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		files := make([]string, 0, len(layouts)+len(partials)+1)
		files = append(files, layouts...)
		files = append(files, partials...)
		files = append(files, page)

		// The name of the template is the base name of the page file
		name := filepath.Base(page)

		var ts *template.Template
		funcs := baseFuncs()
		// section renders a homepage block with the partial of its layout.
		funcs["section"] = func(layout data.LayoutType, dot interface{}) (template.HTML, error) {
			var buf bytes.Buffer
			if err := ts.ExecuteTemplate(&buf, layout.Partial(), dot); err != nil {
				return "", err
			}
			return template.HTML(buf.String()), nil
		}

		ts, err = template.New(name).Funcs(funcs).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		v.templates[name] = ts
	}

	return v, nil
}

// Has reports whether a page template exists.
func (v *View) Has(name string) bool {
	_, ok := v.templates[name]
	return ok
}

// Render executes a specific template by name.
// The site settings found in the request context are exposed as .Site.
func (v *View) Render(w io.Writer, r *http.Request, name string, data map[string]interface{}) error {
	ts, ok := v.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	if data == nil {
		data = make(map[string]interface{})
	}
	if _, ok := data["Site"]; !ok {
		data["Site"] = SiteSettings(r.Context())
	}
	data["Year"] = time.Now().Year()

	// Execute the template into a buffer first to catch any errors
	// before writing to the response writer.
	buf := new(bytes.Buffer)
	err := ts.Execute(buf, data)
	if err != nil {
		return err
	}

	_, err = buf.WriteTo(w)
	return err
}

func baseFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("January 2, 2006")
		},
		"formatDateTime": func(t *time.Time) string {
			if t == nil || t.IsZero() {
				return "never"
			}
			return t.Format("2006-01-02 15:04")
		},
		"isoDate": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"truncate": func(s string, n int) string {
			if utf8.RuneCountInString(s) <= n {
				return s
			}
			return string([]rune(s)[:n]) + "..."
		},
		// raw marks admin-supplied snippets (analytics, header/footer code) as trusted.
		"raw": func(s string) template.HTML {
			return template.HTML(s)
		},
		"layouts": data.AllLayoutTypes,
		"humanize": func(s string) string {
			s = strings.ReplaceAll(s, "_", " ")
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"deref": func(p *int64) int64 {
			if p == nil {
				return 0
			}
			return *p
		},
		"add": func(a, b int) int { return a + b },
		"first": func(items []*data.Article, n int) []*data.Article {
			if n < len(items) {
				return items[:n]
			}
			return items
		},
		"card": func(a *data.Article, showImage, showExcerpt bool) map[string]interface{} {
			return map[string]interface{}{"Article": a, "ShowImage": showImage, "ShowExcerpt": showExcerpt}
		},
		"from": func(items []*data.Article, n int) []*data.Article {
			if n >= len(items) {
				return nil
			}
			return items[n:]
		},
	}
}
