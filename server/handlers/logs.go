package handlers

import (
	"errors"
	"net/http"

	"formprobe/logging"
	"formprobe/runner"
)

// RunLogsHandler handles requests for the log entries captured during a run.
type RunLogsHandler struct {
	runs RunProvider
	logs LogSource
}

// NewRunLogsHandler creates a new RunLogsHandler.
func NewRunLogsHandler(runs RunProvider, logs LogSource) *RunLogsHandler {
	return &RunLogsHandler{
		runs: runs,
		logs: logs,
	}
}

// ServeHTTP implements http.Handler.
func (h *RunLogsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := h.runs.Run(id); err != nil {
		if errors.Is(err, runner.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found: "+id)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load run: "+err.Error())
		return
	}

	entries := h.logs.Logs(id)
	if entries == nil {
		entries = []logging.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
