// Package templates resolves and renders the site's HTML layouts. User
// overrides in .foliate/templates take precedence over the bundled
// defaults compiled into the binary.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

//go:embed defaults/templates/*.html
var defaultTemplates embed.FS

//go:embed defaults/static/*
var defaultStatic embed.FS

// Required lists the templates every site needs to build.
var Required = []string{"page.html", "index.html"}

// Template origins as reported by Source and List.
const (
	OriginUser    = "user"
	OriginBundled = "bundled"
)

// Engine renders named templates, preferring user overrides.
type Engine struct {
	userDir string

	mu     sync.Mutex
	parsed map[string]*template.Template
}

// NewEngine returns an Engine resolving user overrides from userDir (which
// may not exist).
func NewEngine(userDir string) *Engine {
	return &Engine{
		userDir: userDir,
		parsed:  map[string]*template.Template{},
	}
}

// Render executes the named template with data.
func (e *Engine) Render(name string, data any) (string, error) {
	tmpl, err := e.load(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// Source returns the template source and its origin ("user" or "bundled").
func (e *Engine) Source(name string) (string, string, error) {
	if e.userDir != "" {
		userPath := filepath.Join(e.userDir, name)
		if data, err := os.ReadFile(userPath); err == nil {
			return string(data), OriginUser, nil
		}
	}
	data, err := defaultTemplates.ReadFile("defaults/templates/" + name)
	if err != nil {
		return "", "", fmt.Errorf("template %s not found: %w", name, err)
	}
	return string(data), OriginBundled, nil
}

// List maps every available template name to its origin, user overrides
// shadowing bundled defaults.
func (e *Engine) List() map[string]string {
	out := map[string]string{}
	entries, err := defaultTemplates.ReadDir("defaults/templates")
	if err == nil {
		for _, entry := range entries {
			out[entry.Name()] = OriginBundled
		}
	}
	if e.userDir != "" {
		matches, _ := filepath.Glob(filepath.Join(e.userDir, "*.html"))
		for _, m := range matches {
			out[filepath.Base(m)] = OriginUser
		}
	}
	return out
}

func (e *Engine) load(name string) (*template.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.parsed[name]; ok {
		return tmpl, nil
	}
	src, _, err := e.Source(name)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(name).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	e.parsed[name] = tmpl
	return tmpl, nil
}

// DefaultStatic exposes the bundled static assets (css) rooted at the
// directory containing them.
func DefaultStatic() (fs.FS, error) {
	return fs.Sub(defaultStatic, "defaults/static")
}

// DefaultTemplateFS exposes the bundled templates rooted at the directory
// containing them. Used by init to scaffold user overrides.
func DefaultTemplateFS() (fs.FS, error) {
	return fs.Sub(defaultTemplates, "defaults/templates")
}
