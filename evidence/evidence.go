// Package evidence captures and stores full-page screenshots taken at fixed
// points of a form test run. Files are written under a single evidence
// directory with collision-free names; metadata about each capture travels
// with the run as a Record.
package evidence

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Kind tags the moment a screenshot was captured.
type Kind string

const (
	// KindBefore is captured right after navigation, before any fill.
	KindBefore Kind = "before"
	// KindAfter is captured once every field in a scenario has been attempted.
	KindAfter Kind = "after"
	// KindError is captured when an error escapes the scenario loop.
	KindError Kind = "error"
)

// Record is the stored metadata for one captured screenshot.
type Record struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	Kind       Kind      `json:"kind"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	CapturedAt time.Time `json:"captured_at"`
}

// Screenshotter produces a full-page PNG of the current page.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// Manager writes screenshots to the evidence directory and removes them when
// runs are deleted or swept.
type Manager struct {
	dir    string
	logger *slog.Logger
}

// NewManager creates the evidence directory if needed.
func NewManager(dir string, logger *slog.Logger) (*Manager, error) {
	if dir == "" {
		return nil, fmt.Errorf("evidence directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create evidence directory: %w", err)
	}
	return &Manager{dir: dir, logger: logger}, nil
}

// Dir returns the directory captures are written to.
func (m *Manager) Dir() string {
	return m.dir
}

// Capture takes a screenshot and writes it to the evidence directory. The
// returned Record carries the file path, size, and capture time.
func (m *Manager) Capture(ctx context.Context, shooter Screenshotter, runID string, kind Kind) (Record, error) {
	buf, err := shooter.Screenshot(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("failed to capture screenshot: %w", err)
	}

	now := time.Now().UTC()
	name := fileName(runID, kind, now, uuid.New().String())
	path := filepath.Join(m.dir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return Record{}, fmt.Errorf("failed to write screenshot: %w", err)
	}

	rec := Record{
		ID:         uuid.New().String(),
		RunID:      runID,
		Kind:       kind,
		Path:       path,
		Size:       int64(len(buf)),
		CapturedAt: now,
	}
	m.logger.Debug("captured evidence",
		"run_id", runID,
		"kind", kind,
		"path", path,
		"bytes", rec.Size)
	return rec, nil
}

// Remove deletes the screenshot file behind a record. A file that is already
// gone is not an error.
func (m *Manager) Remove(rec Record) error {
	if err := os.Remove(rec.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove evidence file: %w", err)
	}
	return nil
}

// RemoveAll deletes the files behind a set of records and returns how many
// were removed. Individual failures are logged and skipped.
func (m *Manager) RemoveAll(recs []Record) int {
	removed := 0
	for _, rec := range recs {
		if err := m.Remove(rec); err != nil {
			m.logger.Warn("failed to remove evidence file", "path", rec.Path, "error", err)
			continue
		}
		removed++
	}
	return removed
}

// fileName builds the on-disk name for a capture:
// run_<runID[:8]>_<kind>_<timestamp>_<uuid[:8]>.png.
func fileName(runID string, kind Kind, ts time.Time, uid string) string {
	return fmt.Sprintf("run_%s_%s_%s_%s.png",
		shortID(runID), kind, ts.Format("20060102_150405"), shortID(uid))
}

// shortID returns the first eight characters of an identifier.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
