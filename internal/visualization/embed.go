package visualization

import (
	"embed"
	"fmt"
	"html/template"
)

// templates contains the embedded HTML templates.
//
//go:embed templates/*
var templates embed.FS

// parsePage parses templates/<name>.html.tmpl.
func parsePage(name string) (*template.Template, error) {
	tmpl, err := template.ParseFS(templates, "templates/"+name+".html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse %s template: %w", name, err)
	}
	return tmpl, nil
}
