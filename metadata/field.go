// Package metadata defines the field descriptor model consumed by the data
// generator and the fill engine.
//
// Descriptors are produced by an upstream extractor and arrive as plain
// structured data (JSON or YAML). The tag values used for field types are
// fixed wire vocabulary shared with that extractor and must not change.
package metadata

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FieldType is the semantic type of a form control.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldPassword FieldType = "password"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldCheckbox FieldType = "checkbox"
	FieldRadio    FieldType = "radio"
	FieldSelect   FieldType = "select"
	FieldTextarea FieldType = "textarea"
	FieldDate     FieldType = "date"
	FieldTime     FieldType = "time"
	FieldDatetime FieldType = "datetime"
	FieldURL      FieldType = "url"
	FieldPhone    FieldType = "phone"
	FieldFile     FieldType = "file"
	FieldHidden   FieldType = "hidden"
)

// Types returns all known field types in declaration order.
func Types() []FieldType {
	return []FieldType{
		FieldText, FieldPassword, FieldEmail, FieldNumber, FieldCheckbox,
		FieldRadio, FieldSelect, FieldTextarea, FieldDate, FieldTime,
		FieldDatetime, FieldURL, FieldPhone, FieldFile, FieldHidden,
	}
}

// Known reports whether t is one of the recognized field types.
func (t FieldType) Known() bool {
	switch t {
	case FieldText, FieldPassword, FieldEmail, FieldNumber, FieldCheckbox,
		FieldRadio, FieldSelect, FieldTextarea, FieldDate, FieldTime,
		FieldDatetime, FieldURL, FieldPhone, FieldFile, FieldHidden:
		return true
	}
	return false
}

// ParseFieldType converts a wire tag to a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(s)
	if !t.Known() {
		return "", fmt.Errorf("unknown field type %q", s)
	}
	return t, nil
}

// Validation is the optional constraint set attached to a field.
// A nil pointer means the constraint is absent ("unconstrained").
type Validation struct {
	MinLength *int     `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Pattern   string   `json:"regex,omitempty" yaml:"regex,omitempty"`
	MinValue  *float64 `json:"min_value,omitempty" yaml:"min_value,omitempty"`
	MaxValue  *float64 `json:"max_value,omitempty" yaml:"max_value,omitempty"`
}

// Field describes one form control. Fields are immutable once produced by the
// extractor; the pipeline only reads them.
type Field struct {
	// ID is the stable identifier of the control, typically its name or id
	// attribute. Also used for the [name=...] locator fallback.
	ID    string    `json:"field_id" yaml:"field_id"`
	Label string    `json:"label" yaml:"label"`
	Type  FieldType `json:"type" yaml:"type"`
	// InputType is the underlying markup type string (e.g. "text" for an
	// <input type="text">), carried verbatim from the page.
	InputType string `json:"input_type" yaml:"input_type"`
	// XPath is the primary structural locator.
	XPath string `json:"xpath" yaml:"xpath"`
	// CSSSelector is the secondary attribute-based locator.
	CSSSelector  string      `json:"css_selector" yaml:"css_selector"`
	Required     bool        `json:"required" yaml:"required"`
	Placeholder  string      `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	DefaultValue string      `json:"default_value,omitempty" yaml:"default_value,omitempty"`
	// Options holds the declared option values for radio and select fields,
	// in page order.
	Options    []string    `json:"options,omitempty" yaml:"options,omitempty"`
	Validation *Validation `json:"validation,omitempty" yaml:"validation,omitempty"`
	// Visible defaults to true when absent from the wire representation.
	Visible    bool   `json:"is_visible" yaml:"is_visible"`
	SourceFile string `json:"source_file,omitempty" yaml:"source_file,omitempty"`
}

// fieldAlias avoids recursion in the custom unmarshalers.
type fieldAlias Field

// UnmarshalJSON decodes a field, defaulting the visibility flag to true when
// it is absent.
func (f *Field) UnmarshalJSON(data []byte) error {
	var a fieldAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var probe struct {
		Visible *bool `json:"is_visible"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	*f = Field(a)
	f.Visible = probe.Visible == nil || *probe.Visible
	return nil
}

// UnmarshalYAML decodes a field, defaulting the visibility flag to true when
// it is absent.
func (f *Field) UnmarshalYAML(value *yaml.Node) error {
	var a fieldAlias
	if err := value.Decode(&a); err != nil {
		return err
	}
	var probe struct {
		Visible *bool `yaml:"is_visible"`
	}
	if err := value.Decode(&probe); err != nil {
		return err
	}
	*f = Field(a)
	f.Visible = probe.Visible == nil || *probe.Visible
	return nil
}

// Validate checks that the field is usable by the pipeline.
func (f *Field) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("field is missing field_id")
	}
	if !f.Type.Known() {
		return fmt.Errorf("field %q has unknown type %q", f.ID, f.Type)
	}
	return nil
}
