package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"formprobe/runner"
	"formprobe/server/types"
)

// QueueStatus describes the state of the run queue.
type QueueStatus struct {
	Pending int `json:"pending"`
	Workers int `json:"workers"`
}

// SweepStatus is the JSON response for the next evidence sweep.
type SweepStatus struct {
	Scheduled bool       `json:"scheduled"`
	NextSweep *time.Time `json:"next_sweep,omitempty"`
}

// APIStatusResponse is the consolidated response for /api/status.
type APIStatusResponse struct {
	Server types.ServerProperties `json:"server"`
	Queue  QueueStatus            `json:"queue"`
	Runs   map[runner.Status]int  `json:"runs"`
	Sweep  SweepStatus            `json:"sweep"`
}

// APIStatusProvider aggregates all the providers needed for the status endpoint.
type APIStatusProvider interface {
	Properties() types.ServerProperties
	QueueDepth() int
	Workers() int
	RunCounts() (map[runner.Status]int, error)
	NextSweep() *time.Time
}

// APIStatusHandler handles requests for the consolidated status endpoint.
type APIStatusHandler struct {
	logger   *slog.Logger
	provider APIStatusProvider
}

// NewAPIStatusHandler creates a new APIStatusHandler.
func NewAPIStatusHandler(logger *slog.Logger, provider APIStatusProvider) *APIStatusHandler {
	return &APIStatusHandler{
		logger:   logger,
		provider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *APIStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	counts, err := h.provider.RunCounts()
	if err != nil {
		h.logger.Error("failed to count runs", "error", err)
		counts = map[runner.Status]int{}
	}

	nextSweep := h.provider.NextSweep()

	resp := APIStatusResponse{
		Server: h.provider.Properties(),
		Queue: QueueStatus{
			Pending: h.provider.QueueDepth(),
			Workers: h.provider.Workers(),
		},
		Runs: counts,
		Sweep: SweepStatus{
			Scheduled: nextSweep != nil,
			NextSweep: nextSweep,
		},
	}

	writeJSON(w, http.StatusOK, resp)
}
