package web

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/etnz/psw/docs"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
)

// Rulebook serves the embedded documentation topics as HTML pages.
type Rulebook struct{}

var rulebookPage = template.Must(template.New("rulebook").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<nav><a href="/rulebook">Rulebook</a>{{range .Index}} | <a href="/rulebook/{{.Name}}">{{.Name}}</a>{{end}}</nav>
<main>
{{.Body}}
</main>
</body>
</html>
`))

type rulebookData struct {
	Title string
	Index []docs.Topic
	Body  template.HTML
}

// Index renders the readme with links to every topic.
func (Rulebook) Index(w http.ResponseWriter, r *http.Request) {
	renderTopic(w, docs.Readme, "PSW rulebook")
}

// Topic renders one topic.
func (Rulebook) Topic(w http.ResponseWriter, r *http.Request) {
	topic := r.PathValue("topic")
	renderTopic(w, topic, topic)
}

func renderTopic(w http.ResponseWriter, topic, title string) {
	body, err := docs.HTML(topic)
	if errors.Is(err, fs.ErrNotExist) {
		writeProblem(w, http.StatusNotFound, "Not found", fmt.Sprintf("no rulebook topic %q", topic))
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}
	index, err := docs.Index()
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = rulebookPage.Execute(w, rulebookData{Title: title, Index: index, Body: template.HTML(body)})
}

// Routes registers the public /rulebook pages.
func (rb Rulebook) Routes(s *fuego.Server) {
	fuego.GetStd(s, "/rulebook", rb.Index, option.Summary("Rulebook index"))
	fuego.GetStd(s, "/rulebook/{topic}", rb.Topic, option.Summary("Rulebook topic"))
}
