// Package handler exposes the prompt, queue and history operations over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"prompt-matrix/internal/metrics"
	"prompt-matrix/internal/prompt"
	"prompt-matrix/internal/queue"
	"prompt-matrix/internal/service"

	"github.com/rs/zerolog"
)

// Handler serves the HTTP API
type Handler struct {
	jobService     *service.JobService
	historyService *service.HistoryService
	metrics        *metrics.Metrics
	pythonPath     string
	logger         zerolog.Logger
}

// NewHandler creates a new handler
func NewHandler(jobService *service.JobService, historyService *service.HistoryService, metrics *metrics.Metrics, pythonPath string, logger zerolog.Logger) *Handler {
	return &Handler{
		jobService:     jobService,
		historyService: historyService,
		metrics:        metrics,
		pythonPath:     pythonPath,
		logger:         logger,
	}
}

// GetMetrics handles GET /metrics
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.metrics.GetSnapshot())
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("error encoding response")
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps service errors onto status codes
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var code int
	switch {
	case errors.Is(err, service.ErrJobNotFound), errors.Is(err, service.ErrRunNotFound):
		code = http.StatusNotFound
	case errors.Is(err, queue.ErrAlreadyRunning):
		code = http.StatusConflict
	case errors.Is(err, service.ErrExpansionTooLarge):
		code = http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrNotReady), errors.Is(err, service.ErrEmptyExpansion):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrEmptyPrompt),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, prompt.ErrEmptyVariableName):
		code = http.StatusBadRequest
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Error(w, err.Error(), code)
}
