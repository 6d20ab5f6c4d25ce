package handlers

import (
	"log/slog"
	"net/http"
)

// ReloadHandler re-reads the configuration file on demand. The file watcher
// covers edits on disk; this endpoint covers configs pushed by deploy tooling
// that writes and reloads in one step.
type ReloadHandler struct {
	logger   *slog.Logger
	reloader Reloader
}

// NewReloadHandler creates a new ReloadHandler.
func NewReloadHandler(logger *slog.Logger, reloader Reloader) *ReloadHandler {
	return &ReloadHandler{
		logger:   logger,
		reloader: reloader,
	}
}

// ServeHTTP implements http.Handler.
func (h *ReloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.reloader.Reload(); err != nil {
		h.logger.Error("configuration reload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reload configuration: "+err.Error())
		return
	}

	h.logger.Info("configuration reloaded on request")
	w.WriteHeader(http.StatusNoContent)
}
