// Package schema defines the form, field and response structures shared across FormX.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FieldType identifies how a field is rendered and which validation rules apply to it.
type FieldType string

const (
	FieldText          FieldType = "text"
	FieldTextarea      FieldType = "textarea"
	FieldNumber        FieldType = "number"
	FieldCheckboxGroup FieldType = "checkbox-group"
	FieldRadioGroup    FieldType = "radio-group"
	FieldSelect        FieldType = "select"
	FieldDate          FieldType = "date"
	FieldFile          FieldType = "file"
	FieldHeader        FieldType = "header"
	FieldParagraph     FieldType = "paragraph"
	FieldAutocomplete  FieldType = "autocomplete"
	FieldHidden        FieldType = "hidden"
	FieldStarRating    FieldType = "starRating"
	FieldButton        FieldType = "button"
	FieldURL           FieldType = "url"
)

// FieldTypes lists every supported field type.
var FieldTypes = []FieldType{
	FieldText, FieldTextarea, FieldNumber, FieldCheckboxGroup, FieldRadioGroup,
	FieldSelect, FieldDate, FieldFile, FieldHeader, FieldParagraph,
	FieldAutocomplete, FieldHidden, FieldStarRating, FieldButton, FieldURL,
}

// Older form-builder payloads use these names.
var fieldTypeAliases = map[string]FieldType{
	"dropdown": FieldSelect,
	"radio":    FieldRadioGroup,
	"checkbox": FieldCheckboxGroup,
}

// ParseFieldType resolves a raw type name, including legacy aliases.
func ParseFieldType(raw string) (FieldType, bool) {
	raw = strings.TrimSpace(raw)
	if alias, ok := fieldTypeAliases[raw]; ok {
		return alias, true
	}
	for _, t := range FieldTypes {
		if string(t) == raw {
			return t, true
		}
	}
	return FieldType(raw), false
}

// Known reports whether t is one of FieldTypes.
func (t FieldType) Known() bool {
	for _, known := range FieldTypes {
		if t == known {
			return true
		}
	}
	return false
}

// UnmarshalJSON resolves legacy aliases. Unknown names are kept verbatim so that the
// validation engine can report them.
func (t *FieldType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("field type: %w", err)
	}
	*t, _ = ParseFieldType(raw)
	return nil
}

// IsChoice reports whether values of t are constrained to the field's options.
func (t FieldType) IsChoice() bool {
	switch t {
	case FieldCheckboxGroup, FieldRadioGroup, FieldSelect, FieldAutocomplete:
		return true
	}
	return false
}

// IsDisplayOnly reports whether t never carries a user value.
func (t FieldType) IsDisplayOnly() bool {
	switch t {
	case FieldHeader, FieldParagraph, FieldButton:
		return true
	}
	return false
}

// Option is one entry of a choice field.
type Option struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// UnmarshalJSON accepts either a bare string or an object. Label and value fall back to
// each other when only one of them is given.
func (o *Option) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*o = Option{Label: s, Value: s}
		return nil
	}
	var raw struct {
		Label    any   `json:"label"`
		Value    any   `json:"value"`
		Selected *bool `json:"selected"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("option: %w", err)
	}
	out := Option{Label: scalarString(raw.Label), Value: scalarString(raw.Value)}
	if out.Label == "" {
		out.Label = out.Value
	}
	if out.Value == "" {
		out.Value = out.Label
	}
	if raw.Selected != nil {
		out.Selected = *raw.Selected
	}
	*o = out
	return nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprint(t)
	case bool:
		return fmt.Sprint(t)
	}
	return ""
}

// ValidationRules holds the optional constraints of a field. A nil pointer means the rule
// is not set; zero is a legitimate bound.
type ValidationRules struct {
	Regex            *string  `json:"regex,omitempty"`
	RegexDescription *string  `json:"regex_description,omitempty"`
	MinLength        *int     `json:"min_length,omitempty"`
	MaxLength        *int     `json:"max_length,omitempty"`
	MinValue         *float64 `json:"min_value,omitempty"`
	MaxValue         *float64 `json:"max_value,omitempty"`
	MinDate          *string  `json:"min_date,omitempty"`
	MaxDate          *string  `json:"max_date,omitempty"`
	AllowedTypes     []string `json:"allowed_types,omitempty"`
	MaxSize          *float64 `json:"max_size,omitempty"` // megabytes
	MinSelected      *int     `json:"min_selected,omitempty"`
	MaxSelected      *int     `json:"max_selected,omitempty"`
}

// Field is one entry of a form definition.
type Field struct {
	ID              string           `json:"id"`
	Type            FieldType        `json:"type"`
	Subtype         string           `json:"subtype,omitempty"`
	Label           string           `json:"label"`
	Name            string           `json:"name"`
	Placeholder     string           `json:"placeholder,omitempty"`
	Description     string           `json:"description,omitempty"`
	Tooltip         string           `json:"tooltip,omitempty"`
	ClassName       string           `json:"class_name,omitempty"`
	Required        bool             `json:"required"`
	Multiple        bool             `json:"multiple,omitempty"`
	Inline          bool             `json:"inline,omitempty"`
	Access          []string         `json:"access,omitempty"`
	Values          any              `json:"values,omitempty"`
	Options         []Option         `json:"options,omitempty"`
	ValidationRules *ValidationRules `json:"validation_rules,omitempty"`
	Order           int              `json:"order"`
}

// Rules returns the field's rules, never nil.
func (f Field) Rules() ValidationRules {
	if f.ValidationRules == nil {
		return ValidationRules{}
	}
	return *f.ValidationRules
}

// HasOption reports whether value is one of the declared option values.
func (f Field) HasOption(value string) bool {
	for _, o := range f.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

var (
	ErrFieldTypeMissing  = errors.New("field type is required")
	ErrFieldLabelMissing = errors.New("field label is required")
)

// FieldSpec carries the optional parts accepted by DefineField.
type FieldSpec struct {
	Options []Option
	Rules   *ValidationRules
}

// DefineField builds a field. Only the type and label are checked; rule combinations are
// accepted as given and ignored at validation time when they do not apply.
func DefineField(fieldType, label, name string, required bool, order int, spec FieldSpec) (Field, error) {
	if strings.TrimSpace(fieldType) == "" {
		return Field{}, ErrFieldTypeMissing
	}
	if strings.TrimSpace(label) == "" {
		return Field{}, ErrFieldLabelMissing
	}
	t, _ := ParseFieldType(fieldType)
	f := Field{
		Type:            t,
		Label:           label,
		Name:            name,
		Required:        required,
		Options:         spec.Options,
		ValidationRules: spec.Rules,
		Order:           order,
	}
	return f, nil
}
