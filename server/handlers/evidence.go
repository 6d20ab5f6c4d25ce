package handlers

import (
	"errors"
	"net/http"

	"formprobe/evidence"
	"formprobe/runner"
)

// EvidenceHandler handles requests for the screenshots captured during a run.
type EvidenceHandler struct {
	runs     RunProvider
	evidence EvidenceLister
}

// NewEvidenceHandler creates a new EvidenceHandler.
func NewEvidenceHandler(runs RunProvider, ev EvidenceLister) *EvidenceHandler {
	return &EvidenceHandler{
		runs:     runs,
		evidence: ev,
	}
}

// ServeHTTP implements http.Handler.
func (h *EvidenceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := h.runs.Run(id); err != nil {
		if errors.Is(err, runner.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found: "+id)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load run: "+err.Error())
		return
	}

	records, err := h.evidence.EvidenceByRun(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list evidence: "+err.Error())
		return
	}
	if records == nil {
		records = []evidence.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}
