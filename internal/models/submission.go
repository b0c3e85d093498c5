package models

import "time"

type SubmissionStatus string

const (
	SubmissionInProgress SubmissionStatus = "in_progress"
	SubmissionCompleted  SubmissionStatus = "completed"
)

type SectionStatus string

const (
	SectionStatusPending    SectionStatus = "pending"
	SectionStatusInProgress SectionStatus = "in_progress"
	SectionStatusCompleted  SectionStatus = "completed"
)

// TestSubmission is a candidate's single attempt at a test. At most one
// non-completed submission may exist per (test, candidate); a completed
// submission blocks any further attempt.
type TestSubmission struct {
	ID          string           `json:"id"`
	TestID      string           `json:"test_id"`
	CandidateID string           `json:"candidate_id"`
	Status      SubmissionStatus `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// SectionSubmission tracks one section of one attempt. Exactly one row
// exists per (submission, section), created together with the parent.
// Status only moves forward: pending -> in_progress -> completed.
type SectionSubmission struct {
	ID               string        `json:"id"`
	TestSubmissionID string        `json:"test_submission_id"`
	SectionID        string        `json:"section_id"`
	Status           SectionStatus `json:"status"`
	SubmissionLink   *string       `json:"submission_link,omitempty"`
	Comments         *string       `json:"comments,omitempty"`
	TimeSpent        int           `json:"time_spent"`
	StartedAt        *time.Time    `json:"started_at,omitempty"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// CandidateProgress is the recruiter dashboard rollup joining a candidate's
// invitation with their submission, if any.
type CandidateProgress struct {
	CandidateID  string     `json:"candidate_id"`
	Email        string     `json:"email"`
	Name         *string    `json:"name,omitempty"`
	InvitedAt    time.Time  `json:"invited_at"`
	Status       string     `json:"status"`
	SubmissionID *string    `json:"submission_id,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
}
