package logging

import (
	"log/slog"
	"sync"
	"time"
)

// Entry is a single captured log record.
type Entry struct {
	Time       time.Time      `json:"time"`
	Level      string         `json:"level"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes"`
}

// Collector stores captured log entries keyed by run id. It is safe for
// concurrent use; several runs log into one collector at the same time.
type Collector struct {
	mu   sync.RWMutex
	logs map[string][]Entry
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		logs: make(map[string][]Entry),
	}
}

// Logger wraps the base logger so every record is captured under the given
// run id while still reaching the base handler.
func (c *Collector) Logger(base *slog.Logger, runID string) *slog.Logger {
	return slog.New(NewCaptureHandler(base.Handler(), c, runID))
}

// Append stores an entry for a run.
func (c *Collector) Append(runID string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logs[runID] = append(c.logs[runID], entry)
}

// Logs returns a copy of the entries captured for a run, oldest first.
func (c *Collector) Logs(runID string) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries, exists := c.logs[runID]
	if !exists {
		return nil
	}
	result := make([]Entry, len(entries))
	copy(result, entries)
	return result
}

// Remove drops the entries of a run, typically when the run is deleted.
func (c *Collector) Remove(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.logs, runID)
}

// Clear removes all stored entries.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logs = make(map[string][]Entry)
}
