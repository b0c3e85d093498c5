package models

import "time"

type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationCompleted InvitationStatus = "completed"
)

// Invitation grants a candidate time-bounded access to a single test.
// The token is globally unique and stored raw so the email-based access
// flow can hand it back to the candidate. Invitations are kept forever
// as an audit trail; repeated invites for the same email create new rows.
type Invitation struct {
	ID          string           `json:"id"`
	TestID      string           `json:"test_id"`
	CandidateID string           `json:"candidate_id"`
	Email       string           `json:"email"`
	Status      InvitationStatus `json:"status"`
	Token       string           `json:"token"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Deadline    *time.Time       `json:"deadline,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// IsExpired determines whether the invitation has passed its expiration.
func (i Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// DeadlinePassed reports whether an assessment deadline was set and has passed.
func (i Invitation) DeadlinePassed(now time.Time) bool {
	return i.Deadline != nil && now.After(*i.Deadline)
}
