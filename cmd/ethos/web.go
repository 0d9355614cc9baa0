package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/jllopis/ethos/pkg/config"
	"github.com/jllopis/ethos/pkg/persona"
	"github.com/jllopis/ethos/pkg/registry"
	"github.com/jllopis/ethos/pkg/serve"
)

const defaultWebAddr = ":8088"

//go:embed web/templates/*.html web/static/*
var webFS embed.FS

var (
	webPartials = template.Must(template.New("partials").Funcs(template.FuncMap{
		"lower": strings.ToLower,
	}).ParseFS(webFS,
		"web/templates/personas_list.html",
	))
	pageTemplates = map[string]*template.Template{}
)

type webServer struct {
	store *registry.Store
}

type webPersonaRow struct {
	Name    string
	Model   string
	Tools   string
	Source  string
	Summary string
}

type listPersonasData struct {
	Personas []webPersonaRow
	Query    string
	Empty    bool
}

type personaDetailData struct {
	Persona     persona.Persona
	Tools       string
	BodyHTML    template.HTML
	OutputHTML  template.HTML
	RenderError string
}

type pageData struct {
	Title string
	Data  any
}

func runWeb(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	cmd := flag.NewFlagSet("web", flag.ContinueOnError)
	addr := cmd.String("addr", getenv("ETHOS_WEB_ADDR", defaultWebAddr), "Listen address")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}

	server := &webServer{store: loadStore(ctx, cfg)}
	mux := http.NewServeMux()

	staticFS, err := fs.Sub(webFS, "web/static")
	if err != nil {
		fatal(err)
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	mux.HandleFunc("/", server.handleRoot)
	mux.HandleFunc("/personas", server.handlePersonasPage)
	mux.HandleFunc("/personas/", server.handlePersonaDetail)
	mux.HandleFunc("/ui/personas/list", server.handlePersonasList)

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	displayAddr := *addr
	if strings.HasPrefix(displayAddr, ":") {
		displayAddr = "localhost" + displayAddr
	}
	fmt.Printf("ethos UI listening on http://%s\n", displayAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fatal(err)
	}
}

func (s *webServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/personas", http.StatusFound)
}

func (s *webServer) handlePersonasPage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, "personas", "Personas", s.listData(r))
}

func (s *webServer) handlePersonasList(w http.ResponseWriter, r *http.Request) {
	renderPartial(w, "personas_list", s.listData(r))
}

func (s *webServer) listData(r *http.Request) listPersonasData {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	needle := strings.ToLower(query)
	data := listPersonasData{Query: query}
	for _, p := range s.store.Current().List() {
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			continue
		}
		data.Personas = append(data.Personas, webPersonaRow{
			Name:    p.Name,
			Model:   p.Model,
			Tools:   joinTools(p.Tools),
			Source:  p.SourceName,
			Summary: truncateMessage(p.Summary, 140),
		})
	}
	if len(data.Personas) == 0 {
		data.Empty = true
	}
	return data
}

func (s *webServer) handlePersonaDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/personas/"), "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	p, err := s.store.Current().Lookup(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	data := personaDetailData{Persona: p, Tools: joinTools(p.Tools)}
	if html, err := serve.RenderHTML(p.Body); err != nil {
		data.RenderError = err.Error()
	} else {
		data.BodyHTML = template.HTML(html)
	}
	if p.OutputTemplate != "" {
		if html, err := serve.RenderHTML(p.OutputTemplate); err == nil {
			data.OutputHTML = template.HTML(html)
		}
	}
	renderPage(w, "persona_detail", fmt.Sprintf("Persona %s", p.Name), data)
}

func renderPage(w http.ResponseWriter, pageName string, title string, data any) {
	tmpl, ok := pageTemplates[pageName]
	if !ok {
		http.Error(w, "page template not found", http.StatusInternalServerError)
		return
	}
	payload := pageData{Title: title, Data: data}
	if err := tmpl.ExecuteTemplate(w, "layout", payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func renderPartial(w http.ResponseWriter, name string, data any) {
	if err := webPartials.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func init() {
	pageTemplates["personas"] = mustPageTemplate("web/templates/layout.html", "web/templates/personas.html")
	pageTemplates["persona_detail"] = mustPageTemplate("web/templates/layout.html", "web/templates/persona_detail.html")
}

func mustPageTemplate(layout string, page string) *template.Template {
	tmpl, err := template.New("page").Funcs(template.FuncMap{
		"lower": strings.ToLower,
	}).ParseFS(webFS, layout, page, "web/templates/personas_list.html")
	if err != nil {
		panic(err)
	}
	return tmpl
}
