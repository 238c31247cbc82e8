// Package httphandler is the HTTP driving adapter serving the REST API.
package httphandler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"agentlens/internal/application"
)

// defaultLimit bounds list endpoints when the caller gives no limit.
const defaultLimit = 50

// maxLimit is the hard ceiling on caller-supplied limits.
const maxLimit = 500

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	review *application.ReviewService
	logger *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(review *application.ReviewService, logger *slog.Logger) *Handler {
	return &Handler{
		review: review,
		logger: logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/runs", h.ListRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", h.GetRun)
	mux.HandleFunc("GET /api/v1/review", h.Review)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// ListRuns returns the most recently updated runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	runs, err := h.review.ListRecentRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toRunResponse(run))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetRun returns a single run by id.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	run, err := h.review.GetRun(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get run", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if run == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	writeJSON(w, http.StatusOK, toRunResponse(*run))
}

// Review returns the ranked review over recent pull requests, backfilling
// from run references when the store is empty.
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	report, err := h.review.ReviewTopPRs(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to build review", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponse(report))
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// parseLimit reads the optional limit query parameter. Writes a 400 and
// returns false on a malformed value.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return 0, false
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return limit, true
}
