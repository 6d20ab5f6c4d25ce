package handlers

import (
	"net/http"

	"formprobe/datagen"
	"formprobe/metadata"
)

// CapabilitiesResponse is the JSON response for /api/capabilities.
type CapabilitiesResponse struct {
	Scenarios  []datagen.Scenario   `json:"scenarios"`
	FieldTypes []metadata.FieldType `json:"field_types"`
}

// RuleSource reports the field types the generator has rules for.
type RuleSource interface {
	FieldTypes() []metadata.FieldType
}

// CapabilitiesHandler handles requests for the scenario tags and field types
// this instance can generate data for.
type CapabilitiesHandler struct {
	rules RuleSource
}

// NewCapabilitiesHandler creates a new CapabilitiesHandler.
func NewCapabilitiesHandler(rules RuleSource) *CapabilitiesHandler {
	return &CapabilitiesHandler{
		rules: rules,
	}
}

// ServeHTTP implements http.Handler.
func (h *CapabilitiesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := CapabilitiesResponse{
		Scenarios:  datagen.AllScenarios(),
		FieldTypes: h.rules.FieldTypes(),
	}

	writeJSON(w, http.StatusOK, resp)
}
