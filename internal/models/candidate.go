package models

import "time"

// Candidate is created lazily the first time an email address is invited.
// Email is the natural key; candidates are never deleted.
type Candidate struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
