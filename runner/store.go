package runner

import (
	"errors"
	"time"

	"formprobe/evidence"
	"formprobe/metadata"
)

// ErrRunNotFound is returned when a run id has no stored record.
var ErrRunNotFound = errors.New("run not found")

// ErrFormNotFound is returned when a form id has no stored descriptors.
var ErrFormNotFound = errors.New("form not found")

// ErrRunActive is returned when deleting a run that has not reached a
// terminal state.
var ErrRunActive = errors.New("run has not reached a terminal state")

// Store persists runs and their evidence metadata. Implementations must be
// safe for concurrent use; each run owns disjoint rows, so updates are
// scoped read-modify-write on a single run's record.
type Store interface {
	// CreateRun persists a new run.
	CreateRun(run *Run) error
	// Run returns the run with the given id, or ErrRunNotFound.
	Run(id string) (*Run, error)
	// Runs returns all runs, newest first.
	Runs() ([]*Run, error)
	// RunsByForm returns the runs for one form, newest first.
	RunsByForm(formID string) ([]*Run, error)
	// UpdateRun replaces the stored record for run.ID.
	UpdateRun(run *Run) error
	// DeleteRun removes a terminal run and its evidence rows. A pending or
	// running run is refused with ErrRunActive.
	DeleteRun(id string) error
	// AddEvidence records captured evidence metadata.
	AddEvidence(rec evidence.Record) error
	// EvidenceByRun returns the evidence records for a run, oldest first.
	EvidenceByRun(runID string) ([]evidence.Record, error)
	// PruneEvidence removes evidence rows captured before the cutoff that
	// belong to terminal runs, returning the removed records so the caller
	// can delete the files behind them.
	PruneEvidence(cutoff time.Time) ([]evidence.Record, error)
}

// FormSource provides field descriptors for registered forms.
type FormSource interface {
	// CreateForm registers or replaces a form's descriptor document.
	CreateForm(doc *metadata.Document) error
	// Form returns the descriptor document for a form id, or ErrFormNotFound.
	Form(id string) (*metadata.Document, error)
	// Forms returns all registered forms.
	Forms() ([]*metadata.Document, error)
}
