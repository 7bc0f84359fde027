package handler

import (
	"net/http"

	"prompt-matrix/internal/models"

	"github.com/go-chi/chi/v5"
)

// ListRuns handles GET /runs?filter=&order=
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.writeJSON(w, http.StatusOK, h.historyService.List(q.Get("filter"), q.Get("order")))
}

// GetRun handles GET /runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.historyService.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

// RemoveRun handles DELETE /runs/{id}
func (h *Handler) RemoveRun(w http.ResponseWriter, r *http.Request) {
	if err := h.historyService.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearRuns handles DELETE /runs
func (h *Handler) ClearRuns(w http.ResponseWriter, r *http.Request) {
	if err := h.historyService.Clear(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RateRun handles PUT /runs/{id}/rating
func (h *Handler) RateRun(w http.ResponseWriter, r *http.Request) {
	var req models.RateRequest
	if !h.decode(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.historyService.Rate(r.Context(), id, req.Rating); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.GetRun(w, r)
}
