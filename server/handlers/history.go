package handlers

import (
	"errors"
	"net/http"
	"time"

	"formprobe/runner"
)

// runListItem is the JSON-serializable list view of a run. It carries the
// lifecycle fields and the summary but drops the generated data and the
// per-field results, which stay on the single-run endpoint.
type runListItem struct {
	ID          string          `json:"id"`
	FormID      string          `json:"form_id"`
	TargetURL   string          `json:"target_url"`
	Status      runner.Status   `json:"status"`
	Summary     *runner.Summary `json:"summary,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

func toListItems(runs []*runner.Run) []runListItem {
	items := make([]runListItem, 0, len(runs))
	for _, run := range runs {
		items = append(items, runListItem{
			ID:          run.ID,
			FormID:      run.FormID,
			TargetURL:   run.TargetURL,
			Status:      run.Status,
			Summary:     run.Summary,
			Error:       run.Error,
			CreatedAt:   run.CreatedAt,
			StartedAt:   run.StartedAt,
			CompletedAt: run.CompletedAt,
		})
	}
	return items
}

// HistoryHandler handles requests for the run history across all forms.
type HistoryHandler struct {
	runs RunLister
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(runs RunLister) *HistoryHandler {
	return &HistoryHandler{
		runs: runs,
	}
}

// ServeHTTP implements http.Handler.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runs.Runs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toListItems(runs))
}

// FormHistoryHandler handles requests for the run history of a single form.
type FormHistoryHandler struct {
	forms FormRegistry
	runs  RunLister
}

// NewFormHistoryHandler creates a new FormHistoryHandler.
func NewFormHistoryHandler(forms FormRegistry, runs RunLister) *FormHistoryHandler {
	return &FormHistoryHandler{
		forms: forms,
		runs:  runs,
	}
}

// ServeHTTP implements http.Handler.
func (h *FormHistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := h.forms.Form(id); err != nil {
		if errors.Is(err, runner.ErrFormNotFound) {
			writeError(w, http.StatusNotFound, "form not found: "+id)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load form: "+err.Error())
		return
	}

	runs, err := h.runs.RunsByForm(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toListItems(runs))
}
