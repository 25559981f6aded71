package schema

import (
	"sort"
	"time"
)

// Form is a form definition authored by a company.
type Form struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	OwnerUserID string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Fields      []Field   `json:"fields"`
	FieldOrder  []string  `json:"field_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SortFields orders fields by their Order value, keeping the submitted sequence for ties.
func SortFields(fields []Field) {
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Order < fields[j].Order
	})
}

// OrderedFields returns a copy of the form's fields sorted by Order.
func (f Form) OrderedFields() []Field {
	out := make([]Field, len(f.Fields))
	copy(out, f.Fields)
	SortFields(out)
	return out
}

// Field returns the field with the given id.
func (f Form) Field(id string) (Field, bool) {
	for _, field := range f.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return Field{}, false
}
