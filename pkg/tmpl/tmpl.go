// Package tmpl provides template rendering for user-configured text such as
// status lines.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/mattn/go-runewidth"
)

// truncate shortens s to at most n terminal cells, ending with an ellipsis
// when anything was cut.
func truncate(n int, s string) string {
	return runewidth.Truncate(s, n, "…")
}

// percent formats part/total as a whole percentage. A zero total is 0%.
func percent(part, total int) string {
	if total <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%d%%", part*100/total)
}

var funcs = template.FuncMap{
	"join":     strings.Join,
	"upper":    strings.ToUpper,
	"lower":    strings.ToLower,
	"truncate": truncate,
	"percent":  percent,
}

// Template is a parsed template ready to render repeatedly.
type Template struct {
	t *template.Template
}

// Parse compiles tmpl. Executing it with data that lacks a referenced key is
// an error.
func Parse(tmpl string) (*Template, error) {
	t, err := template.New("").Funcs(funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &Template{t: t}, nil
}

// Execute renders the template with data.
func (t *Template) Execute(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

// Render parses and executes tmpl in one step.
//
// Available template functions:
//   - join: Join string slice with separator (e.g., join .Authors ", ")
//   - upper, lower: Change case
//   - truncate: Cut to a cell width (e.g., truncate 30 .Title)
//   - percent: Whole percentage of two ints (e.g., percent .Page .Pages)
func Render(tmpl string, data any) (string, error) {
	t, err := Parse(tmpl)
	if err != nil {
		return "", err
	}
	return t.Execute(data)
}
