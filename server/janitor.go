package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"formprobe/evidence"
	"formprobe/runner"
)

// ErrInvalidSweepSchedule indicates the sweep schedule expression could not be parsed.
var ErrInvalidSweepSchedule = errors.New("invalid sweep schedule")

// RetentionFunc reports the current evidence retention window. Reading it
// through a function keeps reloaded configuration values live.
type RetentionFunc func() time.Duration

// Janitor deletes evidence that has outlived the retention window. It wakes
// on a cron schedule, prunes expired rows from the store, and removes the
// screenshot files behind them.
type Janitor struct {
	schedule  cron.Schedule
	store     runner.Store
	files     *evidence.Manager
	retention RetentionFunc
	logger    *slog.Logger
}

// NewJanitor creates a janitor from a standard 5-field cron expression.
func NewJanitor(spec string, store runner.Store, files *evidence.Manager, retention RetentionFunc, logger *slog.Logger) (*Janitor, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, errors.Join(ErrInvalidSweepSchedule, err)
	}

	return &Janitor{
		schedule:  schedule,
		store:     store,
		files:     files,
		retention: retention,
		logger:    logger,
	}, nil
}

// Start launches the sweep loop in a goroutine. Returns immediately.
// The goroutine exits when ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	go j.run(ctx)
}

// NextSweep returns the next scheduled sweep time.
func (j *Janitor) NextSweep() time.Time {
	return j.schedule.Next(time.Now())
}

func (j *Janitor) run(ctx context.Context) {
	for {
		now := time.Now()
		next := j.schedule.Next(now)
		wait := next.Sub(now)

		j.logger.Debug("waiting for next evidence sweep",
			"next_sweep", next,
			"wait_duration", wait,
		)

		select {
		case <-ctx.Done():
			j.logger.Info("evidence janitor shutting down")
			return
		case <-time.After(wait):
			j.Sweep()
		}
	}
}

// Sweep removes evidence captured before the retention cutoff. It is safe to
// call directly, outside the schedule.
func (j *Janitor) Sweep() {
	cutoff := time.Now().Add(-j.retention())

	removed, err := j.store.PruneEvidence(cutoff)
	if err != nil {
		j.logger.Error("evidence sweep failed", "error", err)
		return
	}
	if len(removed) == 0 {
		j.logger.Debug("evidence sweep found nothing to prune")
		return
	}

	deleted := j.files.RemoveAll(removed)
	j.logger.Info("evidence sweep completed",
		"pruned", len(removed),
		"files_deleted", deleted,
		"cutoff", cutoff,
	)
}
