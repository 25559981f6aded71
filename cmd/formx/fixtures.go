package main

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/formx360/formx/pkg/schema"
)

// decodeFile reads YAML or JSON into v. The document is re-encoded as JSON so the schema
// types' JSON decoding (type aliases, string options) applies to both formats.
func decodeFile(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func loadForm(path string) (schema.Form, error) {
	var form schema.Form
	if err := decodeFile(path, &form); err != nil {
		return schema.Form{}, err
	}
	schema.SortFields(form.Fields)
	return form, nil
}

// loadResponses accepts a bare list of answers or a submission body with a responses key.
func loadResponses(path string) ([]schema.FieldValue, error) {
	var doc any
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	if m, ok := doc.(map[string]any); ok {
		doc = m["responses"]
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var answers []schema.FieldValue
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return answers, nil
}
