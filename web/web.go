// Package web embeds the HTML templates for the catalog pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates parses the embedded page templates with their helper functions
func Templates() (*template.Template, error) {
	funcs := template.FuncMap{
		"date": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"num": func(v *float64) string {
			if v == nil {
				return ""
			}
			return fmt.Sprintf("%.1f", *v)
		},
		"mins": func(v *int) string {
			if v == nil {
				return ""
			}
			return fmt.Sprintf("%d min", *v)
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
}
