package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"formprobe/datagen"
	"formprobe/metadata"
)

// GenerateRequest defines the request body for POST /api/generate.
type GenerateRequest struct {
	Fields           []metadata.Field `json:"fields"`
	Scenarios        []string         `json:"scenarios,omitempty"`
	CountPerScenario int              `json:"count_per_scenario,omitempty"`
}

// GenerateResponse carries a generated batch without running a browser.
type GenerateResponse struct {
	Total int           `json:"total"`
	Data  datagen.Batch `json:"data"`
}

// GenerateHandler handles requests to preview generated test data for a set
// of field descriptors. Nothing is stored and no browser is started.
type GenerateHandler struct {
	generator BatchGenerator
	config    ConfigProvider
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(g BatchGenerator, cfg ConfigProvider) *GenerateHandler {
	return &GenerateHandler{
		generator: g,
		config:    cfg,
	}
}

// ServeHTTP implements http.Handler.
func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	doc := metadata.Document{Fields: req.Fields}
	if err := doc.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.CountPerScenario < 0 {
		writeError(w, http.StatusBadRequest, "count_per_scenario cannot be negative")
		return
	}

	var scenarios []datagen.Scenario
	var err error
	if len(req.Scenarios) > 0 {
		scenarios, err = datagen.ParseScenarios(req.Scenarios)
	} else {
		scenarios, err = h.config.Config().Generator.ScenarioList()
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	count := req.CountPerScenario
	if count == 0 {
		count = h.config.Config().Generator.CountPerScenario
	}

	batch := h.generator.Generate(doc.Fields, scenarios, count)
	writeJSON(w, http.StatusOK, GenerateResponse{
		Total: batch.Total(),
		Data:  batch,
	})
}
