package handlers

import (
	"errors"
	"net/http"

	"formprobe/runner"
)

// DeleteRunHandler handles requests to delete a finished run. Deletion
// removes the stored record, the captured log entries, and the screenshot
// files on disk.
type DeleteRunHandler struct {
	deleter RunDeleter
}

// NewDeleteRunHandler creates a new DeleteRunHandler.
func NewDeleteRunHandler(deleter RunDeleter) *DeleteRunHandler {
	return &DeleteRunHandler{
		deleter: deleter,
	}
}

// ServeHTTP implements http.Handler.
func (h *DeleteRunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.deleter.DeleteRun(id); err != nil {
		switch {
		case errors.Is(err, runner.ErrRunNotFound):
			writeError(w, http.StatusNotFound, "run not found: "+id)
		case errors.Is(err, runner.ErrRunActive):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete run: "+err.Error())
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
