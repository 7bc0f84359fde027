package handler

import (
	"net/http"
	"strconv"

	"prompt-matrix/internal/models"
	"prompt-matrix/internal/txt2img"

	"github.com/go-chi/chi/v5"
)

// GetPrompt handles GET /prompt
func (h *Handler) GetPrompt(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, models.PromptRequest{Prompt: h.jobService.Prompt()})
}

// SetPrompt handles PUT /prompt
func (h *Handler) SetPrompt(w http.ResponseWriter, r *http.Request) {
	var req models.PromptRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.jobService.SetPrompt(req.Prompt)
	h.GetTokens(w, r)
}

// GetTokens handles GET /prompt/tokens
func (h *Handler) GetTokens(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, models.TokensResponse{
		Tokens: h.jobService.Tokens(),
		Names:  h.jobService.TokenNames(),
		Ready:  h.jobService.Ready(),
	})
}

// GetMatrix handles GET /prompt/matrix
func (h *Handler) GetMatrix(w http.ResponseWriter, r *http.Request) {
	prompts := h.jobService.Expand()
	h.writeJSON(w, http.StatusOK, models.MatrixResponse{Prompts: prompts, Size: len(prompts)})
}

// ListVariables handles GET /variables
func (h *Handler) ListVariables(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.jobService.Variables())
}

// UpsertVariable handles PUT /variables/{name}
func (h *Handler) UpsertVariable(w http.ResponseWriter, r *http.Request) {
	var req models.VariableRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.jobService.UpsertVariable(chi.URLParam(r, "name"), req.Values); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.jobService.Variables())
}

// RemoveVariable handles DELETE /variables/{name}
func (h *Handler) RemoveVariable(w http.ResponseWriter, r *http.Request) {
	h.jobService.RemoveVariable(chi.URLParam(r, "name"))
	w.WriteHeader(http.StatusNoContent)
}

// ClearVariables handles DELETE /variables
func (h *Handler) ClearVariables(w http.ResponseWriter, r *http.Request) {
	h.jobService.ClearVariables()
	w.WriteHeader(http.StatusNoContent)
}

// GetCommand handles GET /command?html=
func (h *Handler) GetCommand(w http.ResponseWriter, r *http.Request) {
	html, _ := strconv.ParseBool(r.URL.Query().Get("html"))
	params := txt2img.DefaultParameters(h.jobService.Prompt())
	h.writeJSON(w, http.StatusOK, map[string]string{
		"command": txt2img.Command(h.pythonPath, params, html),
	})
}
