package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"formprobe/metadata"
	"formprobe/runner"
)

// CreateFormHandler handles requests to register a form descriptor.
type CreateFormHandler struct {
	forms FormRegistry
}

// NewCreateFormHandler creates a new CreateFormHandler.
func NewCreateFormHandler(forms FormRegistry) *CreateFormHandler {
	return &CreateFormHandler{
		forms: forms,
	}
}

// ServeHTTP implements http.Handler.
func (h *CreateFormHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var doc metadata.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form descriptor: "+err.Error())
		return
	}

	// Descriptors exported without an id get one assigned on registration.
	if doc.FormID == "" {
		doc.FormID = uuid.New().String()
	}

	if err := doc.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.forms.CreateForm(&doc); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store form: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// ListFormsHandler handles requests for all registered forms.
type ListFormsHandler struct {
	forms FormRegistry
}

// NewListFormsHandler creates a new ListFormsHandler.
func NewListFormsHandler(forms FormRegistry) *ListFormsHandler {
	return &ListFormsHandler{
		forms: forms,
	}
}

// ServeHTTP implements http.Handler.
func (h *ListFormsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	docs, err := h.forms.Forms()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list forms: "+err.Error())
		return
	}
	if docs == nil {
		docs = []*metadata.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// GetFormHandler handles requests for a single form descriptor.
type GetFormHandler struct {
	forms FormRegistry
}

// NewGetFormHandler creates a new GetFormHandler.
func NewGetFormHandler(forms FormRegistry) *GetFormHandler {
	return &GetFormHandler{
		forms: forms,
	}
}

// ServeHTTP implements http.Handler.
func (h *GetFormHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	doc, err := h.forms.Form(id)
	if err != nil {
		if errors.Is(err, runner.ErrFormNotFound) {
			writeError(w, http.StatusNotFound, "form not found: "+id)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load form: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, doc)
}
