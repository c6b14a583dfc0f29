package display

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.md
var templatesFS embed.FS

var markdownTemplate = template.Must(
	template.New("portfolio.md").
		Funcs(template.FuncMap{"escape": escapeMarkdown}).
		ParseFS(templatesFS, "templates/portfolio.md"),
)

// Markdown renders the view as a markdown document: assets, currencies with their
// allocation, then transactions most recent first. Portfolio content is escaped
// so it always renders as literal text.
func Markdown(v View) (string, error) {
	var buf bytes.Buffer
	if err := markdownTemplate.ExecuteTemplate(&buf, "portfolio.md", v); err != nil {
		return "", fmt.Errorf("rendering %s: %w", v.Name, err)
	}
	return buf.String(), nil
}
