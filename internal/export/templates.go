package export

import (
	"bytes"
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var documentTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}

	content, err := templateFS.ReadFile("templates/proposal.html")
	if err != nil {
		documentTemplate = template.Must(template.New("proposal").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}
	documentTemplate = template.Must(template.New("proposal").Funcs(funcMap).Parse(string(content)))
}

// TemplateData is the page wrapped around the converted proposal body.
type TemplateData struct {
	Title       string
	ContentHTML template.HTML
	GeneratedAt time.Time
}

// RenderDocumentHTML renders the page template with the provided data.
func RenderDocumentHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.5; }
    table { border-collapse: collapse; width: 100%; }
    td, th { border: 1px solid #999; padding: 4px 8px; vertical-align: middle; }
  </style>
</head>
<body>
  <main>{{.ContentHTML}}</main>
</body>
</html>`
