package schema

import "time"

// FieldValue is one submitted answer.
type FieldValue struct {
	FieldID string `json:"field_id"`
	Value   any    `json:"value"`
}

// Response is an accepted submission. It is never modified after creation.
type Response struct {
	ID        string       `json:"id"`
	FormID    string       `json:"form_id"`
	UserID    string       `json:"user_id,omitempty"`
	Responses []FieldValue `json:"responses"`
	CreatedAt time.Time    `json:"created_at"`
}

// Anonymous reports whether the response has no registered submitter.
func (r Response) Anonymous() bool {
	return r.UserID == ""
}

// FileValue is the payload of a file field: metadata of an upload, size in bytes.
type FileValue struct {
	Name string  `json:"name,omitempty"`
	Type string  `json:"type"`
	Size float64 `json:"size"`
}
