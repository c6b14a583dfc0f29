package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mtlprog/folio/internal/export"
	"github.com/mtlprog/folio/internal/portfolio"
	"github.com/mtlprog/folio/internal/snapshot"
	"github.com/mtlprog/folio/internal/static"
	"github.com/mtlprog/folio/internal/store"
)

// Options holds the optional parts of the server.
type Options struct {
	// AdminAPIKey protects mutating JSON endpoints with a bearer token when set.
	AdminAPIKey string
	// Snapshots enables the snapshot endpoints when set.
	Snapshots *snapshot.Service
	// Sheets enables publishing to Google Sheets when set.
	Sheets export.TableWriter
	// SnapshotListLimit is the default page size for snapshot listings.
	SnapshotListLimit int
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, st *store.Store, portfolios *portfolio.Service, opts Options) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(st, portfolios, opts),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewRouter wires the web UI and the JSON API.
func NewRouter(st *store.Store, portfolios *portfolio.Service, opts Options) http.Handler {
	h := NewHandler(st, portfolios, opts)
	pages := NewPages(st, portfolios)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/static/style.css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Write(static.StyleCSS)
	})

	r.Get("/", pages.Index)
	r.Post("/portfolios", pages.Create)
	r.Post("/portfolios/upload", pages.Upload)
	r.Get("/portfolios/{name}", pages.Show)
	r.Post("/portfolios/{name}/delete", pages.Delete)

	r.Route("/api/v1/portfolios", func(r chi.Router) {
		r.Get("/", h.ListPortfolios)
		r.Get("/{name}", h.GetPortfolio)
		r.Get("/{name}/view", h.GetView)
		r.Get("/{name}/export.xlsx", h.ExportXLSX)
		if opts.Snapshots != nil {
			r.Get("/{name}/snapshots", h.ListSnapshots)
			r.Get("/{name}/snapshots/latest", h.GetLatestSnapshot)
			r.Get("/{name}/snapshots/{date}", h.GetSnapshotByDate)
		}

		r.Group(func(r chi.Router) {
			if opts.AdminAPIKey != "" {
				r.Use(func(next http.Handler) http.Handler {
					return requireAuth(opts.AdminAPIKey, next)
				})
			}
			r.Post("/", h.CreatePortfolio)
			r.Post("/reload", h.Reload)
			r.Put("/{name}", h.UploadPortfolio)
			r.Delete("/{name}", h.DeletePortfolio)
			if opts.Snapshots != nil {
				r.Post("/{name}/snapshots", h.CaptureSnapshot)
			}
			if opts.Sheets != nil {
				r.Post("/{name}/sheets", h.PublishSheets)
			}
		})
	})

	return r
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
