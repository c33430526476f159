// Package web exposes the HTML and JSON surface of the tracker.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/* assets/*
var content embed.FS

// Renderer executes embedded page templates against the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page template under templates/ together with the
// layout.
func NewRenderer() (*Renderer, error) {
	entries, err := content.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}

	pages := make(map[string]*template.Template)
	for _, entry := range entries {
		name := entry.Name()
		if name == "layout.html" {
			continue
		}
		tmpl, err := template.ParseFS(content, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// Render writes the named page. Execution happens against a buffer so a
// template failure yields a clean 500 instead of a half-written body.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data interface{}) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// AssetsHandler serves the embedded static assets (timer script, styles).
func AssetsHandler() http.Handler {
	sub, err := fs.Sub(content, "assets")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/assets/", http.FileServer(http.FS(sub)))
}
