// Package renderer formats simulation reports as markdown.
package renderer

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed *.md
var templates embed.FS

// RenderSummary writes the markdown report of a simulation to w.
func RenderSummary(w io.Writer, r *Report) error {
	partials := map[string]string{
		"report_title":     "report_title.md",
		"report_settings":  "report_settings.md",
		"report_portfolio": "report_portfolio.md",
		"report_goals":     "report_goals.md",
		"report_summary":   "report_summary.md",
		"report_bands":     "report_bands.md",
	}
	// An empty file name results in an empty section.
	if len(r.Bands) == 0 {
		partials["report_bands"] = ""
	}
	out, err := renderTemplate("report", "report.md", partials, r)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// renderTemplate renders a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) (string, error) {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return "", fmt.Errorf("error reading main template %q: %w", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return "", fmt.Errorf("error parsing main template %q: %w", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		if file != "" {
			content, err = fs.ReadFile(templates, file)
			if err != nil {
				return "", fmt.Errorf("error reading partial template %q: %w", file, err)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return "", fmt.Errorf("error parsing partial template %q for %q: %w", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return "", fmt.Errorf("error executing template %q: %w", templateName, err)
	}
	return b.String(), nil
}
