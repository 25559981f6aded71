package forms

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/formx360/formx/internal/apperr"
	"github.com/formx360/formx/pkg/schema"
)

// InvalidFieldsMessage is reported when the fields payload is not a list.
const InvalidFieldsMessage = "Invalid fields format. Expected an array."

// DecodeFields parses the fields payload of an update. An absent or null payload is an empty
// list; anything other than an array is malformed.
func DecodeFields(raw json.RawMessage) ([]schema.Field, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []schema.Field{}, nil
	}
	if trimmed[0] != '[' {
		return nil, apperr.Malformed(InvalidFieldsMessage)
	}
	var fields []schema.Field
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, apperr.Malformed(fmt.Sprintf("Invalid field definition: %v", err))
	}
	return fields, nil
}

// prepareFields checks and normalises an incoming field list. Only the type and label are
// required of each field; orders must be unique and a required choice field needs options.
// The result is sorted by order.
func prepareFields(in []schema.Field) ([]schema.Field, error) {
	out := make([]schema.Field, 0, len(in))
	orders := make(map[int]int, len(in))
	ids := make(map[string]bool, len(in))

	for i, f := range in {
		pos := i + 1
		if f.Type == "" {
			return nil, apperr.Malformed(fmt.Sprintf("Field %d: %v.", pos, schema.ErrFieldTypeMissing))
		}
		f.Label = sanitizeRich(f.Label)
		if f.Label == "" {
			return nil, apperr.Malformed(fmt.Sprintf("Field %d: %v.", pos, schema.ErrFieldLabelMissing))
		}
		if prev, dup := orders[f.Order]; dup {
			return nil, apperr.Malformed(fmt.Sprintf("Fields %d and %d share order %d.", prev, pos, f.Order))
		}
		orders[f.Order] = pos

		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		if ids[f.ID] {
			return nil, apperr.Malformed(fmt.Sprintf("Field %d: duplicate id %s.", pos, f.ID))
		}
		ids[f.ID] = true

		if f.Type.IsChoice() && f.Required && len(f.Options) == 0 {
			return nil, apperr.Malformed(fmt.Sprintf("Field '%s' is required but has no options.", f.Label))
		}
		f.Options = append([]schema.Option(nil), f.Options...)
		for j := range f.Options {
			f.Options[j].Label = sanitizeRich(f.Options[j].Label)
		}

		f.Name = sanitizePlain(f.Name)
		f.Placeholder = sanitizePlain(f.Placeholder)
		f.Tooltip = sanitizePlain(f.Tooltip)
		f.Description = sanitizeRich(f.Description)
		if len(f.Access) == 0 {
			f.Access = []string{"all"}
		}
		out = append(out, f)
	}

	schema.SortFields(out)
	return out, nil
}
