// Package server provides the HTTP server for the formprobe service.
//
// The server exposes a REST API to register form descriptors, queue test
// runs against live pages, and inspect results, evidence, and captured logs.
//
// # Endpoints
//
//   - GET /health - Simple health check, returns "ok"
//   - GET /metrics - Prometheus metrics
//   - GET /api/status - Consolidated status (queue, run counts, next sweep)
//   - GET /api/capabilities - Scenario tags and supported field types
//   - GET /config - Returns current configuration as YAML, credentials redacted
//   - POST /reload - Reloads configuration from disk
//   - POST /api/forms - Registers a form descriptor document
//   - GET /api/forms - Lists registered forms
//   - GET /api/forms/{id} - Returns one form descriptor
//   - POST /api/forms/{id}/runs - Queues a test run for a form
//   - GET /api/forms/{id}/runs - Lists runs for one form
//   - GET /api/runs - Lists all runs
//   - GET /api/runs/{id} - Returns one run with data, results, and summary
//   - DELETE /api/runs/{id} - Deletes a finished run and its evidence
//   - GET /api/runs/{id}/evidence - Lists screenshots captured for a run
//   - GET /api/runs/{id}/logs - Returns log entries captured for a run
//   - POST /api/generate - Generates test data without a browser
//
// # Architecture
//
// Config-derived state is swapped atomically on reload. Settings read at
// request or run time (browser session options, generator defaults,
// evidence retention) pick up new values immediately; the listener address,
// storage driver, queue size, and logging settings require a restart.
//
// Run execution is asynchronous: POST /api/forms/{id}/runs stores a pending
// run and hands its id to the worker pool, which drives a fresh browser
// session per run.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"formprobe/browser"
	"formprobe/buildinfo"
	"formprobe/config"
	"formprobe/datagen"
	"formprobe/evidence"
	"formprobe/logging"
	"formprobe/metadata"
	"formprobe/metrics"
	"formprobe/runner"
	"formprobe/server/handlers"
	"formprobe/server/types"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// serverDeps holds config-derived state that is swapped atomically on reload.
type serverDeps struct {
	config config.Config
}

// Server is the HTTP server for the formprobe API.
type Server struct {
	addr       string
	configPath string
	logger     *slog.Logger
	deps       atomic.Pointer[serverDeps]

	store     runner.Store
	forms     runner.FormSource
	generator *datagen.Generator
	rules     *datagen.Registry
	executor  *runner.Executor
	pool      *runner.Pool
	collector *logging.Collector
	evidence  *evidence.Manager
	registry  *metrics.ScrapeRegistry
	janitor   *Janitor
	watcher   *ConfigWatcher

	httpServer *http.Server
	hostname   string
	started    time.Time
}

// Option configures a Server.
type Option func(*Server) error

// WithListenAddr overrides the listen address from the config file.
func WithListenAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// WithLogger replaces the logger built from the config file. Used by tests.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// New creates a Server from the given config path and options. It loads the
// configuration and initializes every dependency; only Run remains.
func New(configPath string, opts ...Option) (*Server, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Output:    cfg.Logging.Output,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}

	hostname, _ := os.Hostname()

	s := &Server{
		addr:       cfg.Server.ListenAddr,
		configPath: configPath,
		logger:     logger,
		hostname:   hostname,
		started:    time.Now().UTC(),
	}
	s.deps.Store(&serverDeps{config: cfg})

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if err := s.build(cfg); err != nil {
		return nil, err
	}

	return s, nil
}

// build wires the restart-scoped dependencies from the initial config.
func (s *Server) build(cfg config.Config) error {
	switch cfg.Storage.Driver {
	case config.DriverMySQL:
		store, err := runner.NewMySQLStore(cfg.Storage.ResolveDSN(), s.logger)
		if err != nil {
			return fmt.Errorf("opening mysql store: %w", err)
		}
		s.store = store
		s.forms = store
	default:
		store := runner.NewMemoryStore()
		s.store = store
		s.forms = store
	}

	mgr, err := evidence.NewManager(cfg.Evidence.Dir, s.logger)
	if err != nil {
		return fmt.Errorf("preparing evidence directory: %w", err)
	}
	s.evidence = mgr

	s.collector = logging.NewCollector()

	registry, err := metrics.NewScrapeRegistry()
	if err != nil {
		return fmt.Errorf("creating metrics registry: %w", err)
	}
	s.registry = registry

	runMetrics, err := metrics.NewRunMetrics(s.registry, cfg.Monitoring.MetricsPrefix)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	s.rules = datagen.DefaultRegistry()
	genOpts := []datagen.Option{datagen.WithRegistry(s.rules)}
	if cfg.Generator.Seed != 0 {
		genOpts = append(genOpts, datagen.WithSeed(cfg.Generator.Seed))
	}
	s.generator = datagen.New(s.logger, genOpts...)

	scenarios, err := cfg.Generator.ScenarioList()
	if err != nil {
		return err
	}

	sessions := func(ctx context.Context) (runner.Page, error) {
		return browser.NewSession(ctx, s.Config().Browser.SessionConfig(), s.logger)
	}

	s.executor = runner.NewExecutor(s.logger, s.store, s.forms, sessions,
		runner.WithEvidenceManager(s.evidence),
		runner.WithGenerator(s.generator),
		runner.WithFieldPause(cfg.Browser.FieldPause),
		runner.WithDefaultScenarios(scenarios, cfg.Generator.CountPerScenario),
		runner.WithLoggerFactory(func(runID string) *slog.Logger {
			return s.collector.Logger(s.logger, runID)
		}),
		runner.WithObserver(runMetrics),
	)

	s.pool = runner.NewPool(s.logger, s.executor, cfg.Queue.Workers, cfg.Queue.Capacity)

	janitor, err := NewJanitor(cfg.Evidence.SweepSchedule, s.store, s.evidence,
		func() time.Duration { return s.Config().Evidence.Retention }, s.logger)
	if err != nil {
		return err
	}
	s.janitor = janitor

	s.watcher = NewConfigWatcher(s.configPath, s, s.logger)

	return nil
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Reload reads the config from disk and swaps the live configuration.
// Browser session settings, generator defaults for new runs, and the
// evidence retention window take effect immediately.
func (s *Server) Reload() error {
	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		return err
	}

	s.deps.Store(&serverDeps{config: cfg})
	s.logger.Info("configuration loaded", "config_path", s.configPath)

	return nil
}

// Config returns the current configuration.
func (s *Server) Config() config.Config {
	return s.deps.Load().config
}

// SubmitRun creates a pending run for a form, attaches a generated data
// batch, and hands the run to the worker pool. Empty scenarios or a zero
// count fall back to the configured generator defaults; an empty targetURL
// falls back to the form's page_url.
func (s *Server) SubmitRun(formID, targetURL string, scenarios []datagen.Scenario, count int) (*runner.Run, error) {
	doc, err := s.forms.Form(formID)
	if err != nil {
		return nil, err
	}

	cfg := s.Config()
	if targetURL == "" {
		targetURL = doc.PageURL
	}
	if targetURL == "" {
		return nil, fmt.Errorf("form %s has no page_url and no target_url was given", formID)
	}
	if len(scenarios) == 0 {
		scenarios, err = cfg.Generator.ScenarioList()
		if err != nil {
			return nil, err
		}
	}
	if count <= 0 {
		count = cfg.Generator.CountPerScenario
	}

	run := runner.NewRun(formID, targetURL)
	run.Data = s.generator.Generate(doc.Fields, scenarios, count)

	if err := s.store.CreateRun(run); err != nil {
		return nil, err
	}

	if err := s.pool.Submit(run.ID); err != nil {
		// Mark the stored run failed so the rejection stays visible in history.
		if startErr := run.Start(); startErr == nil {
			_ = run.Fail(err)
			_ = s.store.UpdateRun(run)
		}
		return nil, err
	}

	s.logger.Info("run queued",
		"run_id", run.ID,
		"form_id", formID,
		"target_url", targetURL,
		"scenarios", len(scenarios),
		"count_per_scenario", count,
	)

	return run, nil
}

// DeleteRun removes a finished run together with its evidence files and
// captured log entries. Active runs are refused by the store.
func (s *Server) DeleteRun(id string) error {
	records, err := s.store.EvidenceByRun(id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteRun(id); err != nil {
		return err
	}

	s.evidence.RemoveAll(records)
	s.collector.Remove(id)

	s.logger.Info("run deleted", "run_id", id, "evidence_files", len(records))
	return nil
}

// Properties returns metadata about this server instance.
func (s *Server) Properties() types.ServerProperties {
	return types.ServerProperties{
		Build:     buildinfo.Get(),
		GoVersion: runtime.Version(),
		StartedAt: s.started,
		Hostname:  s.hostname,
	}
}

// QueueDepth returns the number of queued runs not yet picked up.
func (s *Server) QueueDepth() int {
	return s.pool.Pending()
}

// Workers returns the worker pool size.
func (s *Server) Workers() int {
	return s.pool.Workers()
}

// RunCounts returns the number of stored runs per lifecycle status.
func (s *Server) RunCounts() (map[runner.Status]int, error) {
	runs, err := s.store.Runs()
	if err != nil {
		return nil, err
	}

	counts := map[runner.Status]int{
		runner.StatusPending:   0,
		runner.StatusRunning:   0,
		runner.StatusCompleted: 0,
		runner.StatusFailed:    0,
	}
	for _, run := range runs {
		counts[run.Status]++
	}
	return counts, nil
}

// NextSweep returns the next scheduled evidence sweep time.
func (s *Server) NextSweep() *time.Time {
	if s.janitor == nil {
		return nil
	}
	next := s.janitor.NextSweep()
	return &next
}

// FieldTypes returns the field types the generator has rules for.
func (s *Server) FieldTypes() []metadata.FieldType {
	return s.rules.Types()
}

// Logs returns the captured log entries for a run.
func (s *Server) Logs(runID string) []logging.Entry {
	return s.collector.Logs(runID)
}

// Run starts the worker pool, the evidence janitor, the config watcher, and
// the HTTP listener. It blocks until the context is cancelled, then shuts
// down gracefully and waits for in-flight runs to settle.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	s.pool.Start(ctx)
	s.janitor.Start(ctx)
	if err := s.watcher.Start(ctx); err != nil {
		s.logger.Error("config watcher disabled", "error", err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"addr", s.addr,
			"config_path", s.configPath,
			"workers", s.pool.Workers(),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		err := s.httpServer.Shutdown(shutdownCtx)
		s.pool.Wait()
		return err
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	configHandler := handlers.NewConfigHandler(s)
	reloadHandler := handlers.NewReloadHandler(s.logger, s)
	apiStatusHandler := handlers.NewAPIStatusHandler(s.logger, s)
	capabilitiesHandler := handlers.NewCapabilitiesHandler(s)
	createFormHandler := handlers.NewCreateFormHandler(s.forms)
	listFormsHandler := handlers.NewListFormsHandler(s.forms)
	getFormHandler := handlers.NewGetFormHandler(s.forms)
	startRunHandler := handlers.NewStartRunHandler(s)
	formHistoryHandler := handlers.NewFormHistoryHandler(s.forms, s.store)
	historyHandler := handlers.NewHistoryHandler(s.store)
	runStatusHandler := handlers.NewRunStatusHandler(s.store)
	deleteRunHandler := handlers.NewDeleteRunHandler(s)
	evidenceHandler := handlers.NewEvidenceHandler(s.store, s.store)
	logsHandler := handlers.NewRunLogsHandler(s.store, s)
	generateHandler := handlers.NewGenerateHandler(s.generator, s)

	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.Handle("GET /metrics", s.registry.Handler())
	mux.Handle("GET /api/status", apiStatusHandler)
	mux.Handle("GET /api/capabilities", capabilitiesHandler)
	mux.Handle("GET /config", configHandler)
	mux.Handle("POST /reload", reloadHandler)
	mux.Handle("POST /api/forms", createFormHandler)
	mux.Handle("GET /api/forms", listFormsHandler)
	mux.Handle("GET /api/forms/{id}", getFormHandler)
	mux.Handle("POST /api/forms/{id}/runs", startRunHandler)
	mux.Handle("GET /api/forms/{id}/runs", formHistoryHandler)
	mux.Handle("GET /api/runs", historyHandler)
	mux.Handle("GET /api/runs/{id}", runStatusHandler)
	mux.Handle("DELETE /api/runs/{id}", deleteRunHandler)
	mux.Handle("GET /api/runs/{id}/evidence", evidenceHandler)
	mux.Handle("GET /api/runs/{id}/logs", logsHandler)
	mux.Handle("POST /api/generate", generateHandler)
}
