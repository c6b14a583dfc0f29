package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mtlprog/folio/internal/display"
	"github.com/mtlprog/folio/internal/export"
	"github.com/mtlprog/folio/internal/portfolio"
	"github.com/mtlprog/folio/internal/snapshot"
	"github.com/mtlprog/folio/internal/store"
)

const (
	maxUploadBytes = 10 << 20
	xlsxMediaType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler provides the JSON API over the portfolio store.
type Handler struct {
	store         *store.Store
	portfolios    *portfolio.Service
	exports       *export.Service
	snapshots     *snapshot.Service
	sheets        export.TableWriter
	snapshotLimit int
	now           func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(st *store.Store, portfolios *portfolio.Service, opts Options) *Handler {
	limit := opts.SnapshotListLimit
	if limit <= 0 {
		limit = 30
	}
	return &Handler{
		store:         st,
		portfolios:    portfolios,
		exports:       export.NewService(portfolios),
		snapshots:     opts.Snapshots,
		sheets:        opts.Sheets,
		snapshotLimit: limit,
		now:           time.Now,
	}
}

type createRequest struct {
	Name string `json:"name"`
}

type portfolioResponse struct {
	Name string `json:"name"`
}

// ListPortfolios handles GET /api/v1/portfolios.
func (h *Handler) ListPortfolios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Names())
}

// CreatePortfolio handles POST /api/v1/portfolios.
func (h *Handler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.store.CreateEmpty(req.Name); err != nil {
		h.fail(w, "failed to create portfolio", req.Name, err)
		return
	}
	h.portfolios.Forget(req.Name)
	writeJSON(w, http.StatusCreated, portfolioResponse{Name: req.Name})
}

// UploadPortfolio handles PUT /api/v1/portfolios/{name}. The body is the portfolio JSON.
func (h *Handler) UploadPortfolio(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	var src io.Reader
	if len(body) > 0 {
		src = bytes.NewReader(body)
	}

	if err := h.store.Upload(name, src); err != nil {
		h.fail(w, "failed to upload portfolio", name, err)
		return
	}
	h.portfolios.Forget(name)
	writeJSON(w, http.StatusCreated, portfolioResponse{Name: name})
}

// DeletePortfolio handles DELETE /api/v1/portfolios/{name}.
func (h *Handler) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.store.Remove(name); err != nil {
		h.fail(w, "failed to remove portfolio", name, err)
		return
	}
	h.portfolios.Forget(name)
	w.WriteHeader(http.StatusNoContent)
}

// Reload handles POST /api/v1/portfolios/reload.
func (h *Handler) Reload(w http.ResponseWriter, _ *http.Request) {
	if err := h.store.Reload(); err != nil {
		h.fail(w, "failed to reload portfolios", "", err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Names())
}

// GetPortfolio handles GET /api/v1/portfolios/{name}.
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	raw, err := h.portfolios.Raw(name)
	if err != nil {
		h.fail(w, "failed to load portfolio", name, err)
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

// GetView handles GET /api/v1/portfolios/{name}/view.
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	v, err := display.Build(name, h.portfolios)
	if err != nil {
		h.fail(w, "failed to build view", name, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ExportXLSX handles GET /api/v1/portfolios/{name}/export.xlsx.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var buf bytes.Buffer
	if err := h.exports.Export(r.Context(), name, export.NewXLSXWriter(&buf)); err != nil {
		h.fail(w, "failed to export portfolio", name, err)
		return
	}

	w.Header().Set("Content-Type", xlsxMediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
	}
}

// PublishSheets handles POST /api/v1/portfolios/{name}/sheets.
func (h *Handler) PublishSheets(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.exports.Export(r.Context(), name, h.sheets); err != nil {
		h.fail(w, "failed to publish portfolio", name, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolioResponse{Name: name})
}

// CaptureSnapshot handles POST /api/v1/portfolios/{name}/snapshots.
func (h *Handler) CaptureSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.snapshots.Capture(r.Context(), name, h.now().UTC()); err != nil {
		h.fail(w, "failed to capture snapshot", name, err)
		return
	}
	s, err := h.snapshots.GetLatest(r.Context(), name)
	if err != nil {
		h.fail(w, "failed to read captured snapshot", name, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// GetLatestSnapshot handles GET /api/v1/portfolios/{name}/snapshots/latest.
func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s, err := h.snapshots.GetLatest(r.Context(), name)
	if err != nil {
		h.fail(w, "failed to get latest snapshot", name, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetSnapshotByDate handles GET /api/v1/portfolios/{name}/snapshots/{date}.
func (h *Handler) GetSnapshotByDate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	dateStr := chi.URLParam(r, "date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	s, err := h.snapshots.GetByDate(r.Context(), name, date)
	if err != nil {
		h.fail(w, "failed to get snapshot by date", name, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ListSnapshots handles GET /api/v1/portfolios/{name}/snapshots.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	const maxLimit = 365
	name := chi.URLParam(r, "name")
	limit := h.snapshotLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}

	snapshots, err := h.snapshots.List(r.Context(), name, limit)
	if err != nil {
		h.fail(w, "failed to list snapshots", name, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// fail writes the error response matching err and logs server-side failures.
func (h *Handler) fail(w http.ResponseWriter, msg, name string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error(msg, "portfolio", name, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// statusFor maps store, portfolio and snapshot errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrInvalidName),
		errors.Is(err, store.ErrEmptyInput),
		errors.Is(err, store.ErrMalformedJSON):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, store.ErrNotFound), errors.Is(err, snapshot.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, portfolio.ErrDecode):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
