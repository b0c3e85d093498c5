package assessment

import "errors"

// Candidate-facing reasons for refusing access. These strings are rendered
// to the candidate verbatim, so they read as plain language.
const (
	ReasonInvalidToken   = "Invalid invitation token"
	ReasonExpired        = "Invitation has expired"
	ReasonDeadlinePassed = "The deadline for this assessment has passed"
	ReasonNoInvitation   = "No invitation found for this email"
)

var (
	// ErrTestNotFound signals that the referenced test does not exist.
	ErrTestNotFound = errors.New("test not found")

	// ErrAlreadyCompleted enforces the no-retake policy once a submission
	// has been completed.
	ErrAlreadyCompleted = errors.New("You have already completed this test")

	// ErrInvitationNotFound signals an unknown invitation token.
	ErrInvitationNotFound = errors.New("invitation not found")

	// ErrSubmissionNotFound signals an unknown test submission id.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrSectionNotFound signals that no pending or in-progress section
	// submission matches the (submission, section) pair. Completing an
	// already-completed section lands here.
	ErrSectionNotFound = errors.New("section submission not found")
)

// ForbiddenError carries the specific reason token validation refused a
// candidate. It is expected flow control, not a system fault.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}
