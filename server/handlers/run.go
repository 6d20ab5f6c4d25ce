package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"formprobe/datagen"
	"formprobe/runner"
)

// StartRunRequest defines the request body for POST /api/forms/{id}/runs.
// Every field is optional; omitted fields fall back to the form descriptor
// and the configured generator defaults.
type StartRunRequest struct {
	TargetURL        string   `json:"target_url,omitempty"`
	Scenarios        []string `json:"scenarios,omitempty"`
	CountPerScenario int      `json:"count_per_scenario,omitempty"`
}

// StartRunResponse is the JSON response for an accepted run.
type StartRunResponse struct {
	RunID  string        `json:"run_id"`
	Status runner.Status `json:"status"`
}

// StartRunHandler handles requests to queue a test run for a form.
type StartRunHandler struct {
	submitter RunSubmitter
}

// NewStartRunHandler creates a new StartRunHandler.
func NewStartRunHandler(s RunSubmitter) *StartRunHandler {
	return &StartRunHandler{
		submitter: s,
	}
}

// ServeHTTP implements http.Handler.
func (h *StartRunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	formID := r.PathValue("id")

	var req StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	if req.CountPerScenario < 0 {
		writeError(w, http.StatusBadRequest, "count_per_scenario cannot be negative")
		return
	}

	scenarios, err := datagen.ParseScenarios(req.Scenarios)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.submitter.SubmitRun(formID, req.TargetURL, scenarios, req.CountPerScenario)
	if err != nil {
		switch {
		case errors.Is(err, runner.ErrFormNotFound):
			writeError(w, http.StatusNotFound, "form not found: "+formID)
		case errors.Is(err, runner.ErrQueueFull), errors.Is(err, runner.ErrPoolStopped):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusAccepted, StartRunResponse{
		RunID:  run.ID,
		Status: run.Status,
	})
}
