package api

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/mtlprog/folio/internal/display"
	"github.com/mtlprog/folio/internal/portfolio"
	"github.com/mtlprog/folio/internal/static"
	"github.com/mtlprog/folio/internal/store"
)

const chartSize = 320

var pageTemplates = template.Must(template.ParseFS(static.FS, "templates/*.html"))

type pageData struct {
	Title    string
	Subtitle string
	Flash    string
	Names    []string
	Body     template.HTML
	Chart    template.HTML
}

// Pages serves the browser UI. Form posts redirect back with a flash message on failure.
type Pages struct {
	store      *store.Store
	portfolios *portfolio.Service
}

// NewPages creates the web UI handlers.
func NewPages(st *store.Store, portfolios *portfolio.Service) *Pages {
	return &Pages{store: st, portfolios: portfolios}
}

// Index handles GET /.
func (p *Pages) Index(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, "index", pageData{
		Title: "Portfolios",
		Flash: r.URL.Query().Get("error"),
		Names: p.store.Names(),
	})
}

// Show handles GET /portfolios/{name}.
func (p *Pages) Show(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	v, err := display.Build(name, p.portfolios)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			redirectWithError(w, r, "/", err)
			return
		}
		slog.Error("failed to build view", "portfolio", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	body, err := display.HTML(v)
	if err != nil {
		slog.Error("failed to render portfolio", "portfolio", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	render(w, http.StatusOK, "portfolio", pageData{
		Title:    name,
		Subtitle: name,
		Flash:    r.URL.Query().Get("error"),
		Body:     template.HTML(body),
		// PieSVG escapes every label it embeds.
		Chart: template.HTML(display.PieSVG(v.Chart, chartSize)),
	})
}

// Create handles POST /portfolios.
func (p *Pages) Create(w http.ResponseWriter, r *http.Request) {
	name := r.PostFormValue("name")
	if err := p.store.CreateEmpty(name); err != nil {
		redirectWithError(w, r, "/", err)
		return
	}
	p.portfolios.Forget(name)
	http.Redirect(w, r, "/portfolios/"+url.PathEscape(name), http.StatusSeeOther)
}

// Upload handles POST /portfolios/upload. A missing file counts as empty input.
func (p *Pages) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		redirectWithError(w, r, "/", err)
		return
	}
	name := r.FormValue("name")

	var src io.Reader
	file, _, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		src = file
	case !errors.Is(err, http.ErrMissingFile):
		redirectWithError(w, r, "/", err)
		return
	}

	if err := p.store.Upload(name, src); err != nil {
		redirectWithError(w, r, "/", err)
		return
	}
	p.portfolios.Forget(name)
	http.Redirect(w, r, "/portfolios/"+url.PathEscape(name), http.StatusSeeOther)
}

// Delete handles POST /portfolios/{name}/delete.
func (p *Pages) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := p.store.Remove(name); err != nil {
		redirectWithError(w, r, "/", err)
		return
	}
	p.portfolios.Forget(name)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func redirectWithError(w http.ResponseWriter, r *http.Request, to string, err error) {
	if statusFor(err) >= http.StatusInternalServerError {
		slog.Error("web request failed", "path", r.URL.Path, "error", err)
	}
	http.Redirect(w, r, to+"?"+url.Values{"error": {err.Error()}}.Encode(), http.StatusSeeOther)
}

func render(w http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
	}
}
