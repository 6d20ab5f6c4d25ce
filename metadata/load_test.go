package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_JSONDocument(t *testing.T) {
	data := []byte(`{
		"form_id": "signup",
		"page_url": "https://example.com/signup",
		"fields": [
			{"field_id": "email", "label": "Email", "type": "email", "xpath": "//input[@id='email']"},
			{"field_id": "country", "label": "Country", "type": "select", "options": ["USA", "Canada"]}
		]
	}`)

	doc, err := Parse(data, false)
	require.NoError(t, err)
	assert.Equal(t, "signup", doc.FormID)
	assert.Equal(t, "https://example.com/signup", doc.PageURL)
	require.Len(t, doc.Fields, 2)
	assert.Equal(t, FieldSelect, doc.Fields[1].Type)
	assert.Equal(t, []string{"USA", "Canada"}, doc.Fields[1].Options)
}

func TestParse_JSONBareList(t *testing.T) {
	data := []byte(`[{"field_id": "email", "type": "email"}]`)

	doc, err := Parse(data, false)
	require.NoError(t, err)
	require.Len(t, doc.Fields, 1)
	assert.Empty(t, doc.FormID)
}

func TestParse_YAMLDocument(t *testing.T) {
	data := []byte(`
page_url: https://example.com/login
fields:
  - field_id: username
    label: Username
    type: text
  - field_id: password
    label: Password
    type: password
    validation:
      min_length: 8
`)

	doc, err := Parse(data, true)
	require.NoError(t, err)
	require.Len(t, doc.Fields, 2)
	require.NotNil(t, doc.Fields[1].Validation)
	require.NotNil(t, doc.Fields[1].Validation.MinLength)
	assert.Equal(t, 8, *doc.Fields[1].Validation.MinLength)
	assert.True(t, doc.Fields[0].Visible)
}

func TestParse_DuplicateFieldID(t *testing.T) {
	data := []byte(`[{"field_id": "email", "type": "email"}, {"field_id": "email", "type": "text"}]`)

	_, err := Parse(data, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate field_id")
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse([]byte(`{"fields": []}`), false)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "form.yaml")
	content := "fields:\n  - field_id: email\n    type: email\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, doc.Fields, 1)
	assert.Equal(t, FieldEmail, doc.Fields[0].Type)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
