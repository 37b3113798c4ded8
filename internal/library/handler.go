// internal/library/handler.go
package library

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/naksh1414/Kata-library-Management-System/internal/errs"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxSnapshotBytes = 64 << 20

// BookRequest is the body of the create routes.
type BookRequest struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Year     int    `json:"year"`
	Category string `json:"category,omitempty"`
}

// LendRequest is the body of the borrow and return routes.
type LendRequest struct {
	Actor string `json:"actor"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Handler serves the library over HTTP.
type Handler struct {
	service  Service
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	limiter  *rate.Limiter
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the request logger.
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

// WithGatherer exposes g on /metrics/prometheus.
func WithGatherer(g prometheus.Gatherer) HandlerOption {
	return func(h *Handler) { h.gatherer = g }
}

// WithWriteLimit limits mutating requests to perSecond with the given burst.
// A non-positive rate disables limiting.
func WithWriteLimit(perSecond float64, burst int) HandlerOption {
	return func(h *Handler) {
		if perSecond > 0 {
			h.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
		}
	}
}

func NewHandler(service Service, opts ...HandlerOption) *Handler {
	h := &Handler{
		service: service,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.gatherer == nil {
		if lib, ok := service.(*Library); ok {
			h.gatherer = lib.Registry()
		}
	}
	return h
}

// Routes returns the router with every route registered.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", h.handleHealthz)

	r.Get("/books/available", h.handleAvailable)
	r.Get("/books/search", h.handleSearch)
	r.Get("/books/{key}", h.handleGetBook)
	r.Get("/categories", h.handleCategories)
	r.Get("/categories/{label}/books", h.handleByCategory)
	r.Get("/history/{actor}", h.handleHistory)
	r.Get("/analytics", h.handleAnalytics)
	r.Get("/metrics", h.handleMetrics)
	if h.gatherer != nil {
		r.Method(http.MethodGet, "/metrics/prometheus", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/snapshot", h.handleExport)

	r.Group(func(r chi.Router) {
		r.Use(h.limitWrites)
		r.Post("/books", h.handleAddBook)
		r.Post("/books/with-category", h.handleAddBookWithCategory)
		r.Delete("/books/{key}", h.handleDeleteBook)
		r.Post("/books/{key}/borrow", h.handleBorrow)
		r.Post("/books/{key}/return", h.handleReturn)
		r.Put("/snapshot", h.handleImport)
	})

	return r
}

// --- middleware ---

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (h *Handler) limitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "write rate exceeded", Kind: "rate_limited"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- handlers ---

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	book, err := h.service.AddBook(r.Context(), req.Key, req.Title, req.Author, req.Year)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

func (h *Handler) handleAddBookWithCategory(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	book, err := h.service.AddBookWithCategory(r.Context(), req.Key, req.Title, req.Author, req.Year, req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

func (h *Handler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	key, err := pathParam(r, "key")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	book, err := h.service.GetBook(r.Context(), key)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errs.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *Handler) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	key, err := pathParam(r, "key")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	deleted, err := h.service.DeleteBook(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *Handler) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req LendRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	key, err := pathParam(r, "key")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	book, err := h.service.Borrow(r.Context(), key, req.Actor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	var req LendRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	key, err := pathParam(r, "key")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	book, err := h.service.Return(r.Context(), key, req.Actor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *Handler) handleAvailable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Available(r.Context()))
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Search(r.Context(), r.URL.Query().Get("q")))
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Categories(r.Context()))
}

func (h *Handler) handleByCategory(w http.ResponseWriter, r *http.Request) {
	label, err := pathParam(r, "label")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.ByCategory(r.Context(), label))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	actor, err := pathParam(r, "actor")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.History(r.Context(), actor))
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Analytics(r.Context()))
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Metrics(r.Context()))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ExportSnapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSnapshotBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read snapshot: %v: %w", err, errs.ErrFormat))
		return
	}
	if err := h.service.ImportSnapshot(r.Context(), data); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"imported": true})
}

// --- helpers ---

// pathParam returns a decoded route parameter. chi matches on RawPath when
// the request carries escaped separators, leaving the parameter escaped.
func pathParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v, nil
	}
	decoded, err := url.PathUnescape(v)
	if err != nil {
		return "", fmt.Errorf("path parameter %s: %v: %w", name, err, errs.ErrFormat)
	}
	return decoded, nil
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %v: %w", err, errs.ErrFormat)
	}
	return nil
}

// decodeOptionalBody accepts an empty body and leaves v untouched.
func decodeOptionalBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("invalid request body: %v: %w", err, errs.ErrFormat)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: errs.KindOf(err)})
}
