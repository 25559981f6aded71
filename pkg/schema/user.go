package schema

import "time"

// User is a registered account. Form owners and response submitters reference it by ID.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserSummary is the part of a user shown next to their responses.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary projects u for display.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Company owns a collection of forms.
type Company struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OwnerUserID string    `json:"owner_user_id"`
	FormIDs     []string  `json:"forms"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasForm reports whether formID is linked to the company.
func (c Company) HasForm(formID string) bool {
	for _, id := range c.FormIDs {
		if id == formID {
			return true
		}
	}
	return false
}
