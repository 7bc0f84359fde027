package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"prompt-matrix/internal/models"

	"github.com/go-chi/chi/v5"
)

// ListJobs handles GET /queue?view=
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("view") {
	case "", "all":
		h.writeJSON(w, http.StatusOK, h.jobService.Jobs())
	case "incomplete":
		h.writeJSON(w, http.StatusOK, h.jobService.Incomplete())
	default:
		http.Error(w, "view must be all or incomplete", http.StatusBadRequest)
	}
}

// GetCurrent handles GET /queue/current
func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	job, ok := h.jobService.Current()
	if !ok {
		http.Error(w, "no job is running", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

// GetJob handles GET /queue/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobService.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

// EnqueueJob handles POST /queue
func (h *Handler) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	var req models.EnqueueRequest
	if !h.decode(w, r, &req) {
		return
	}

	job, err := h.jobService.Enqueue(req.Params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, job)
}

// EnqueueMatrix handles POST /queue/matrix. An empty body queues the matrix
// with default parameters.
func (h *Handler) EnqueueMatrix(w http.ResponseWriter, r *http.Request) {
	var req models.EnqueueMatrixRequest
	if err := decodeOptional(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	jobs, err := h.jobService.EnqueueMatrix(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, jobs)
}

// RemoveJob handles DELETE /queue/{id}
func (h *Handler) RemoveJob(w http.ResponseWriter, r *http.Request) {
	h.jobService.Remove(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// ToggleSkip handles POST /queue/{id}/skip
func (h *Handler) ToggleSkip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.jobService.ToggleSkip(id)

	job, err := h.jobService.Get(id)
	if err != nil {
		// unknown ids are a no-op
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

// UpdateStatus handles PUT /queue/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.jobService.UpdateStatus(chi.URLParam(r, "id"), req.Status); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearQueue handles DELETE /queue
func (h *Handler) ClearQueue(w http.ResponseWriter, r *http.Request) {
	h.jobService.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// ClearCompleted handles POST /queue/clear-completed
func (h *Handler) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	h.jobService.ClearCompleted()
	h.writeJSON(w, http.StatusOK, h.jobService.Jobs())
}

// StartQueue handles POST /queue/start
func (h *Handler) StartQueue(w http.ResponseWriter, r *http.Request) {
	h.jobService.Controller().RequestStart()
	h.writeJSON(w, http.StatusAccepted, h.jobService.Controller().State())
}

// StopQueue handles POST /queue/stop
func (h *Handler) StopQueue(w http.ResponseWriter, r *http.Request) {
	h.jobService.Controller().RequestStop()
	h.writeJSON(w, http.StatusAccepted, h.jobService.Controller().State())
}

// GetQueueState handles GET /queue/state
func (h *Handler) GetQueueState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.jobService.Controller().State())
}

func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
