package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"formprobe/browser"
	"formprobe/datagen"
	"formprobe/evidence"
	"formprobe/metadata"
)

// defaultFieldPause separates consecutive field fills so page scripts can
// settle between interactions.
const defaultFieldPause = 500 * time.Millisecond

// Page is the browser surface the executor drives. *browser.Session
// implements it; tests substitute a fake.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Resolve(ctx context.Context, field metadata.Field) (browser.Element, bool)
	Fill(ctx context.Context, el browser.Element, field metadata.Field, value string) error
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// SessionFactory opens an isolated browser session for one run.
type SessionFactory func(ctx context.Context) (Page, error)

// LoggerFactory builds the logger used for one run. The server installs a
// factory that tees entries into the per-run log collector.
type LoggerFactory func(runID string) *slog.Logger

// ProgressFunc is invoked after every field attempt.
type ProgressFunc func(scenario datagen.Scenario, field metadata.Field, result Result)

// RunObserver receives execution milestones for instrumentation.
type RunObserver interface {
	RunFinished(status Status, duration time.Duration)
	FieldTested(success bool)
	EvidenceCaptured(bytes int64)
}

// Executor drives a run to a terminal state: it loads the run and its form,
// opens a browser session, walks every non-empty scenario of the data batch,
// and persists results, summary, and evidence through the store.
type Executor struct {
	logger   *slog.Logger
	store    Store
	forms    FormSource
	sessions SessionFactory

	gen        *datagen.Generator
	evid       *evidence.Manager
	runLogger  LoggerFactory
	fieldPause time.Duration
	scenarios  []datagen.Scenario
	count      int
	progress   ProgressFunc
	observer   RunObserver
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithEvidenceManager enables screenshot capture. Without it evidence points
// are skipped.
func WithEvidenceManager(m *evidence.Manager) ExecutorOption {
	return func(e *Executor) { e.evid = m }
}

// WithGenerator replaces the generator used when a run carries no batch.
func WithGenerator(g *datagen.Generator) ExecutorOption {
	return func(e *Executor) { e.gen = g }
}

// WithFieldPause overrides the pause between consecutive field fills.
func WithFieldPause(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.fieldPause = d }
}

// WithDefaultScenarios sets the scenarios generated for runs submitted
// without a batch.
func WithDefaultScenarios(scenarios []datagen.Scenario, countPerScenario int) ExecutorOption {
	return func(e *Executor) {
		e.scenarios = scenarios
		e.count = countPerScenario
	}
}

// WithLoggerFactory installs a per-run logger factory.
func WithLoggerFactory(f LoggerFactory) ExecutorOption {
	return func(e *Executor) { e.runLogger = f }
}

// WithProgress installs a progress callback.
func WithProgress(f ProgressFunc) ExecutorOption {
	return func(e *Executor) { e.progress = f }
}

// WithObserver installs an instrumentation sink.
func WithObserver(obs RunObserver) ExecutorOption {
	return func(e *Executor) { e.observer = obs }
}

// NewExecutor creates an executor over the given persistence boundary and
// session factory.
func NewExecutor(logger *slog.Logger, store Store, forms FormSource, sessions SessionFactory, opts ...ExecutorOption) *Executor {
	e := &Executor{
		logger:     logger,
		store:      store,
		forms:      forms,
		sessions:   sessions,
		gen:        datagen.New(logger),
		fieldPause: defaultFieldPause,
		scenarios:  datagen.AllScenarios(),
		count:      1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.runLogger == nil {
		e.runLogger = func(runID string) *slog.Logger {
			return logger.With("run_id", runID)
		}
	}
	return e
}

// Execute drives the run with the given id to a terminal state. The terminal
// state is persisted before Execute returns; a returned error either wraps
// the run-level failure or reports that the outcome could not be persisted.
func (e *Executor) Execute(ctx context.Context, runID string) error {
	run, err := e.store.Run(runID)
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	log := e.runLogger(run.ID)

	if err := run.Start(); err != nil {
		return err
	}
	if err := e.store.UpdateRun(run); err != nil {
		return fmt.Errorf("failed to persist run start: %w", err)
	}
	log.Info("run started", "form_id", run.FormID, "target_url", run.TargetURL)

	start := time.Now()
	execErr := e.execute(ctx, run, log)
	duration := time.Since(start)

	if execErr != nil {
		log.Error("run failed", "error", execErr, "duration", duration)
		if err := run.Fail(execErr); err != nil {
			return err
		}
	} else {
		sum := Summarize(run.Results)
		if err := run.Complete(sum); err != nil {
			return err
		}
		log.Info("run completed",
			"total", sum.Total,
			"passed", sum.Passed,
			"failed", sum.Failed,
			"duration", duration)
	}

	if err := e.store.UpdateRun(run); err != nil {
		return fmt.Errorf("failed to persist run outcome: %w", err)
	}
	if e.observer != nil {
		e.observer.RunFinished(run.Status, duration)
	}
	if execErr != nil {
		return fmt.Errorf("run %s failed: %w", runID, execErr)
	}
	return nil
}

// execute runs every scenario. Errors escaping a scenario are fatal to the
// run; the caller records them.
func (e *Executor) execute(ctx context.Context, run *Run, log *slog.Logger) error {
	doc, err := e.forms.Form(run.FormID)
	if err != nil {
		return fmt.Errorf("failed to load form %s: %w", run.FormID, err)
	}
	if run.TargetURL == "" {
		run.TargetURL = doc.PageURL
	}
	if run.Data.Total() == 0 {
		run.Data = e.gen.Generate(doc.Fields, e.scenarios, e.count)
		log.Info("generated data batch",
			"scenarios", len(run.Data.Scenarios()),
			"items", run.Data.Total())
	}

	page, err := e.sessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to open browser session: %w", err)
	}
	defer page.Close()

	for _, scenario := range run.Data.Scenarios() {
		if err := e.runScenario(ctx, run, page, doc.Fields, scenario, log); err != nil {
			e.captureEvidence(ctx, run, page, evidence.KindError, log)
			return fmt.Errorf("scenario %s: %w", scenario, err)
		}
	}
	return nil
}

func (e *Executor) runScenario(ctx context.Context, run *Run, page Page, fields []metadata.Field, scenario datagen.Scenario, log *slog.Logger) error {
	log.Info("starting scenario", "scenario", scenario)

	if err := page.Navigate(ctx, run.TargetURL); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", run.TargetURL, err)
	}
	e.captureEvidence(ctx, run, page, evidence.KindBefore, log)

	tested := 0
	for _, field := range fields {
		datum, ok := run.Data.FirstForField(scenario, field.ID)
		if !ok {
			continue
		}
		res := e.testField(ctx, page, field, scenario, datum.Value)
		run.Results = append(run.Results, res)
		tested++
		if !res.Success {
			log.Debug("field attempt failed", "field_id", field.ID, "error", res.Error)
		}
		if e.observer != nil {
			e.observer.FieldTested(res.Success)
		}
		if e.progress != nil {
			e.progress(scenario, field, res)
		}
		if err := e.pause(ctx); err != nil {
			return err
		}
	}

	e.captureEvidence(ctx, run, page, evidence.KindAfter, log)
	log.Info("scenario completed", "scenario", scenario, "fields_tested", tested)
	return nil
}

// testField resolves and fills one field. Failures are absorbed into the
// result and never propagate.
func (e *Executor) testField(ctx context.Context, page Page, field metadata.Field, scenario datagen.Scenario, value string) Result {
	res := Result{
		FieldID:   field.ID,
		FieldType: field.Type,
		Scenario:  scenario,
		Value:     value,
		Timestamp: time.Now().UTC(),
	}

	el, found := page.Resolve(ctx, field)
	if !found {
		res.Error = "element not found"
		return res
	}
	if err := page.Fill(ctx, el, field, value); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

// captureEvidence takes and records a screenshot. Failures are logged and
// never block the run.
func (e *Executor) captureEvidence(ctx context.Context, run *Run, page Page, kind evidence.Kind, log *slog.Logger) {
	if e.evid == nil {
		return
	}
	rec, err := e.evid.Capture(ctx, page, run.ID, kind)
	if err != nil {
		log.Warn("evidence capture failed", "kind", kind, "error", err)
		return
	}
	if err := e.store.AddEvidence(rec); err != nil {
		log.Warn("failed to record evidence", "kind", kind, "error", err)
		return
	}
	if e.observer != nil {
		e.observer.EvidenceCaptured(rec.Size)
	}
}

func (e *Executor) pause(ctx context.Context) error {
	if e.fieldPause <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(e.fieldPause):
		return nil
	}
}
