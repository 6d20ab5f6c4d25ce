// Package handlers provides HTTP handlers for the formprobe server.
//
// Each handler is in its own file and implements http.Handler.
// Handlers use interfaces to access server dependencies, avoiding
// circular imports.
package handlers

import (
	"formprobe/config"
	"formprobe/datagen"
	"formprobe/evidence"
	"formprobe/logging"
	"formprobe/metadata"
	"formprobe/runner"
)

// ConfigProvider provides access to the current configuration.
type ConfigProvider interface {
	Config() config.Config
}

// Reloader can reload its configuration.
type Reloader interface {
	Reload() error
}

// FormRegistry provides access to stored form definitions.
type FormRegistry interface {
	CreateForm(doc *metadata.Document) error
	Form(id string) (*metadata.Document, error)
	Forms() ([]*metadata.Document, error)
}

// RunSubmitter can create a run for a form and queue it for execution.
type RunSubmitter interface {
	SubmitRun(formID, targetURL string, scenarios []datagen.Scenario, count int) (*runner.Run, error)
}

// RunProvider provides access to a single run.
type RunProvider interface {
	Run(id string) (*runner.Run, error)
}

// RunLister provides access to run history.
type RunLister interface {
	Runs() ([]*runner.Run, error)
	RunsByForm(formID string) ([]*runner.Run, error)
}

// RunDeleter can delete a finished run together with its evidence and logs.
type RunDeleter interface {
	DeleteRun(id string) error
}

// BatchGenerator produces test data without touching a browser.
type BatchGenerator interface {
	Generate(fields []metadata.Field, scenarios []datagen.Scenario, countPerScenario int) datagen.Batch
}

// EvidenceLister provides access to the screenshots captured for a run.
type EvidenceLister interface {
	EvidenceByRun(runID string) ([]evidence.Record, error)
}

// LogSource provides access to the captured log entries of a run.
type LogSource interface {
	Logs(runID string) []logging.Entry
}
