package tasks

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/s1natex/tasks-web-GO/internal/flash"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = map[string]*template.Template{
	"index": mustPage("index.html"),
	"add":   mustPage("add.html"),
	"edit":  mustPage("edit.html"),
	"error": mustPage("error.html"),
}

func mustPage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

type page struct {
	Title   string
	Flashes []flash.Message
	Tasks   []Task
	Task    Task

	// error page only
	Status  int
	Message string
}

// executePage buffers the page so a template failure can still become a 500.
func executePage(name string, p page) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		return nil, err
	}
	return &buf, nil
}

func writePage(w http.ResponseWriter, status int, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
