// Package web holds the server-rendered pages.
package web

import (
	"embed"         // Compiled-in templates
	"html/template" // Auto-escaping HTML templates
)

//go:embed templates/*.html
var files embed.FS

// Templates parses every page; each is addressed by its file name, e.g. "home.html"
func Templates() (*template.Template, error) {
	return template.ParseFS(files, "templates/*.html")
}
