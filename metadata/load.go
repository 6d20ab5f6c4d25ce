package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a registered field-descriptor set for one page.
type Document struct {
	FormID  string  `json:"form_id,omitempty" yaml:"form_id,omitempty"`
	PageURL string  `json:"page_url,omitempty" yaml:"page_url,omitempty"`
	Fields  []Field `json:"fields" yaml:"fields"`
}

// Validate checks every field and rejects duplicate identifiers.
func (d *Document) Validate() error {
	if len(d.Fields) == 0 {
		return fmt.Errorf("document contains no fields")
	}
	seen := make(map[string]bool, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		if err := f.Validate(); err != nil {
			return err
		}
		if seen[f.ID] {
			return fmt.Errorf("duplicate field_id %q", f.ID)
		}
		seen[f.ID] = true
	}
	return nil
}

// LoadFile reads a descriptor document from a JSON or YAML file. The format
// is chosen by extension (.yaml/.yml vs anything else). A bare top-level
// field list is accepted and wrapped into a Document.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	doc, err := Parse(data, ext == ".yaml" || ext == ".yml")
	if err != nil {
		return nil, fmt.Errorf("parsing descriptor file %q: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a descriptor document from raw bytes.
func Parse(data []byte, isYAML bool) (*Document, error) {
	unmarshal := json.Unmarshal
	if isYAML {
		unmarshal = yaml.Unmarshal
	}

	var doc Document
	docErr := unmarshal(data, &doc)
	if docErr != nil || len(doc.Fields) == 0 {
		// Bare top-level field list fallback.
		var fields []Field
		if listErr := unmarshal(data, &fields); listErr != nil || len(fields) == 0 {
			if docErr != nil {
				return nil, docErr
			}
			return nil, fmt.Errorf("document contains no fields")
		}
		doc = Document{Fields: fields}
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}
