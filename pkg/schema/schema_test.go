package schema

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOptionUnmarshalNormalises(t *testing.T) {
	var got []Option
	payload := `["Red", {"value": "green"}, {"label": "Blue"}, {"label": "Yellow", "value": "y", "selected": true}]`
	if err := json.Unmarshal([]byte(payload), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := []Option{
		{Label: "Red", Value: "Red"},
		{Label: "green", Value: "green"},
		{Label: "Blue", Value: "Blue"},
		{Label: "Yellow", Value: "y", Selected: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldTypeAliases(t *testing.T) {
	var f Field
	if err := json.Unmarshal([]byte(`{"type":"dropdown","label":"Colour"}`), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.Type != FieldSelect {
		t.Errorf("Expected select, got %q", f.Type)
	}

	if err := json.Unmarshal([]byte(`{"type":"hologram","label":"X"}`), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.Type.Known() {
		t.Errorf("Expected unknown type to stay unknown, got %q", f.Type)
	}
	if f.Type != "hologram" {
		t.Errorf("Expected unknown type kept verbatim, got %q", f.Type)
	}
}

func TestFieldTypeClassification(t *testing.T) {
	for _, ft := range FieldTypes {
		if !ft.Known() {
			t.Errorf("%q should be known", ft)
		}
	}
	if !FieldAutocomplete.IsChoice() || FieldText.IsChoice() {
		t.Error("choice classification is wrong")
	}
	if !FieldHeader.IsDisplayOnly() || FieldHidden.IsDisplayOnly() {
		t.Error("display-only classification is wrong")
	}
}

func TestDefineField(t *testing.T) {
	if _, err := DefineField("", "Name", "name", true, 0, FieldSpec{}); err != ErrFieldTypeMissing {
		t.Errorf("Expected ErrFieldTypeMissing, got %v", err)
	}
	if _, err := DefineField("text", " ", "name", true, 0, FieldSpec{}); err != ErrFieldLabelMissing {
		t.Errorf("Expected ErrFieldLabelMissing, got %v", err)
	}

	f, err := DefineField("radio", "Size", "size", false, 3, FieldSpec{Options: []Option{{Label: "S", Value: "s"}}})
	if err != nil {
		t.Fatalf("DefineField failed: %v", err)
	}
	if f.Type != FieldRadioGroup || f.Order != 3 || !f.HasOption("s") || f.HasOption("m") {
		t.Errorf("unexpected field: %+v", f)
	}
}

func TestOrderedFields(t *testing.T) {
	form := Form{Fields: []Field{
		{ID: "b", Order: 2},
		{ID: "a", Order: 0},
		{ID: "c", Order: 1},
	}}
	var ids []string
	for _, f := range form.OrderedFields() {
		ids = append(ids, f.ID)
	}
	if diff := cmp.Diff([]string{"a", "c", "b"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if form.Fields[0].ID != "b" {
		t.Error("OrderedFields must not reorder the form in place")
	}
}
