package handlers

import (
	"errors"
	"net/http"

	"formprobe/runner"
)

// RunStatusHandler handles requests for a single run, including its
// generated data, per-field results, and summary once finished.
type RunStatusHandler struct {
	provider RunProvider
}

// NewRunStatusHandler creates a new RunStatusHandler.
func NewRunStatusHandler(provider RunProvider) *RunStatusHandler {
	return &RunStatusHandler{
		provider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *RunStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	run, err := h.provider.Run(id)
	if err != nil {
		if errors.Is(err, runner.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found: "+id)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load run: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, run)
}
