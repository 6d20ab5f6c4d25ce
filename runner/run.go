// Package runner owns the run lifecycle: the Run model and its state
// machine, the persistence boundary, the executor that drives a browser
// session through every scenario of a generated batch, and the worker pool
// behind fire-and-forget submission.
package runner

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"formprobe/datagen"
	"formprobe/metadata"
)

// Status is the lifecycle state of a run.
type Status string

const (
	// StatusPending means the run is created but not yet picked up.
	StatusPending Status = "pending"
	// StatusRunning means a worker is executing the run.
	StatusRunning Status = "running"
	// StatusCompleted means every scenario finished without a fatal error.
	StatusCompleted Status = "completed"
	// StatusFailed means an error escaped the per-field boundary.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ErrTerminalState is returned when a transition is attempted on a run that
// has already completed or failed.
var ErrTerminalState = errors.New("run is in a terminal state")

// ErrFieldRunError is the field id carried by the synthetic failed result
// appended when a run fails outside the per-field boundary.
const ErrFieldRunError = "run_error"

// Result is the outcome of one field fill attempt.
type Result struct {
	FieldID   string             `json:"field_id"`
	FieldType metadata.FieldType `json:"field_type"`
	Scenario  datagen.Scenario   `json:"scenario"`
	Value     string             `json:"test_value"`
	Success   bool               `json:"success"`
	Error     string             `json:"error_message,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// ScenarioTally counts outcomes for one scenario.
type ScenarioTally struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Summary aggregates the results of a finished run.
type Summary struct {
	Total     int                                `json:"total_tests"`
	Passed    int                                `json:"passed"`
	Failed    int                                `json:"failed"`
	Scenarios map[datagen.Scenario]ScenarioTally `json:"scenarios"`
}

// Summarize computes a Summary over a result set.
func Summarize(results []Result) Summary {
	sum := Summary{Scenarios: make(map[datagen.Scenario]ScenarioTally)}
	for _, res := range results {
		sum.Total++
		tally := sum.Scenarios[res.Scenario]
		tally.Total++
		if res.Success {
			sum.Passed++
			tally.Passed++
		} else {
			sum.Failed++
			tally.Failed++
		}
		sum.Scenarios[res.Scenario] = tally
	}
	return sum
}

// Run is one execution of a form's test plan. Transitions are
// one-directional: pending → running → completed or failed. A failed run is
// superseded by a new run, never resumed.
type Run struct {
	ID          string        `json:"id"`
	FormID      string        `json:"form_id"`
	TargetURL   string        `json:"target_url"`
	Status      Status        `json:"status"`
	Data        datagen.Batch `json:"data,omitempty"`
	Results     []Result      `json:"results,omitempty"`
	Summary     *Summary      `json:"summary,omitempty"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// NewRun creates a pending run for a form. The data batch may be attached
// later or left empty for the executor to generate.
func NewRun(formID, targetURL string) *Run {
	return &Run{
		ID:        uuid.New().String(),
		FormID:    formID,
		TargetURL: targetURL,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Start transitions the run from pending to running.
func (r *Run) Start() error {
	if r.Status.Terminal() {
		return fmt.Errorf("%w: cannot start a %s run", ErrTerminalState, r.Status)
	}
	if r.Status != StatusPending {
		return fmt.Errorf("cannot start a %s run", r.Status)
	}
	now := time.Now().UTC()
	r.Status = StatusRunning
	r.StartedAt = &now
	return nil
}

// Complete transitions the run from running to completed and records the
// summary.
func (r *Run) Complete(sum Summary) error {
	if r.Status.Terminal() {
		return fmt.Errorf("%w: cannot complete a %s run", ErrTerminalState, r.Status)
	}
	if r.Status != StatusRunning {
		return fmt.Errorf("cannot complete a %s run", r.Status)
	}
	now := time.Now().UTC()
	r.Status = StatusCompleted
	r.Summary = &sum
	r.CompletedAt = &now
	return nil
}

// Fail transitions the run from running to failed, recording the error,
// appending the synthetic failed result, and computing a summary over
// whatever was collected. Partial results are preserved, never rolled back.
func (r *Run) Fail(cause error) error {
	if r.Status.Terminal() {
		return fmt.Errorf("%w: cannot fail a %s run", ErrTerminalState, r.Status)
	}
	if r.Status != StatusRunning {
		return fmt.Errorf("cannot fail a %s run", r.Status)
	}
	now := time.Now().UTC()
	r.Status = StatusFailed
	r.Error = cause.Error()
	r.Results = append(r.Results, Result{
		FieldID:   ErrFieldRunError,
		Success:   false,
		Error:     cause.Error(),
		Timestamp: now,
	})
	sum := Summarize(r.Results)
	r.Summary = &sum
	r.CompletedAt = &now
	return nil
}

// Duration returns how long the run executed, or zero if it never started
// or is still running.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(*r.StartedAt)
}

// Clone returns a deep copy so stored runs cannot be mutated by callers.
func (r *Run) Clone() *Run {
	out := *r
	if r.Results != nil {
		out.Results = make([]Result, len(r.Results))
		copy(out.Results, r.Results)
	}
	if r.Summary != nil {
		sum := *r.Summary
		sum.Scenarios = make(map[datagen.Scenario]ScenarioTally, len(r.Summary.Scenarios))
		for k, v := range r.Summary.Scenarios {
			sum.Scenarios[k] = v
		}
		out.Summary = &sum
	}
	if r.Data != nil {
		out.Data = make(datagen.Batch, len(r.Data))
		for sc, items := range r.Data {
			cp := make([]datagen.Datum, len(items))
			copy(cp, items)
			out.Data[sc] = cp
		}
	}
	if r.StartedAt != nil {
		t := *r.StartedAt
		out.StartedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}
