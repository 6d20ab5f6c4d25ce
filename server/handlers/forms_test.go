package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formprobe/metadata"
	"formprobe/runner"
)

type mockFormRegistry struct {
	docs      map[string]*metadata.Document
	createErr error
}

func newMockFormRegistry(docs ...*metadata.Document) *mockFormRegistry {
	m := &mockFormRegistry{docs: make(map[string]*metadata.Document)}
	for _, doc := range docs {
		m.docs[doc.FormID] = doc
	}
	return m
}

func (m *mockFormRegistry) CreateForm(doc *metadata.Document) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.docs[doc.FormID] = doc
	return nil
}

func (m *mockFormRegistry) Form(id string) (*metadata.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, runner.ErrFormNotFound
	}
	return doc, nil
}

func (m *mockFormRegistry) Forms() ([]*metadata.Document, error) {
	docs := make([]*metadata.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, doc)
	}
	return docs, nil
}

func signupForm() *metadata.Document {
	return &metadata.Document{
		FormID:  "signup",
		PageURL: "https://example.com/signup",
		Fields: []metadata.Field{
			{ID: "email", Label: "Email", Type: metadata.FieldEmail, CSSSelector: "#email", Visible: true},
			{ID: "name", Label: "Name", Type: metadata.FieldText, CSSSelector: "#name", Visible: true},
		},
	}
}

func TestCreateFormHandler(t *testing.T) {
	registry := newMockFormRegistry()
	handler := NewCreateFormHandler(registry)

	body := `{
		"form_id": "signup",
		"page_url": "https://example.com/signup",
		"fields": [
			{"field_id": "email", "label": "Email", "type": "email", "css_selector": "#email", "is_visible": true}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/forms", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, registry.docs, "signup")
	assert.Equal(t, "https://example.com/signup", registry.docs["signup"].PageURL)
}

func TestCreateFormHandler_AssignsID(t *testing.T) {
	registry := newMockFormRegistry()
	handler := NewCreateFormHandler(registry)

	body := `{"fields": [{"field_id": "email", "type": "email", "css_selector": "#email", "is_visible": true}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/forms", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, registry.docs, 1)
	for id := range registry.docs {
		assert.NotEmpty(t, id)
	}
	assert.Contains(t, w.Body.String(), `"form_id"`)
}

func TestCreateFormHandler_InvalidJSON(t *testing.T) {
	handler := NewCreateFormHandler(newMockFormRegistry())

	req := httptest.NewRequest(http.MethodPost, "/api/forms", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid form descriptor")
}

func TestCreateFormHandler_NoFields(t *testing.T) {
	handler := NewCreateFormHandler(newMockFormRegistry())

	req := httptest.NewRequest(http.MethodPost, "/api/forms", strings.NewReader(`{"form_id": "empty"}`))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no fields")
}

func TestGetFormHandler(t *testing.T) {
	registry := newMockFormRegistry(signupForm())
	handler := NewGetFormHandler(registry)

	req := httptest.NewRequest(http.MethodGet, "/api/forms/signup", nil)
	req.SetPathValue("id", "signup")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"form_id":"signup"`)
}

func TestGetFormHandler_NotFound(t *testing.T) {
	handler := NewGetFormHandler(newMockFormRegistry())

	req := httptest.NewRequest(http.MethodGet, "/api/forms/ghost", nil)
	req.SetPathValue("id", "ghost")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListFormsHandler_Empty(t *testing.T) {
	handler := NewListFormsHandler(newMockFormRegistry())

	req := httptest.NewRequest(http.MethodGet, "/api/forms", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestListFormsHandler(t *testing.T) {
	handler := NewListFormsHandler(newMockFormRegistry(signupForm()))

	req := httptest.NewRequest(http.MethodGet, "/api/forms", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"form_id":"signup"`)
}
