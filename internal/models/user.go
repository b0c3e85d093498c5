package models

import "time"

// User is a recruiter account that owns tests and sends invitations.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	CompanyName  string    `json:"company_name"`
	JobTitle     string    `json:"job_title"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
