package assessment

import (
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/pkg/errors"
	"github.com/reeltest/reeltest-api/internal/models"
)

// Validation is the outcome of an access check. Invalid outcomes carry the
// candidate-facing reason; valid ones carry the bound candidate and
// invitation. Validation never mutates state.
type Validation struct {
	Valid       bool
	Reason      string
	CandidateID string
	Invitation  models.Invitation
}

// ValidateToken checks a presented token against the issuing test, the
// 30-day expiration, and the optional deadline, in that order. Expiry wins
// over deadline when both have passed. The check is a pure read; acceptance
// is written only when a submission is created.
func (s *Service) ValidateToken(testID, token string) (Validation, error) {
	invitation, err := s.invitations.GetInvitationByToken(token)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return Validation{Reason: ReasonInvalidToken}, nil
		}
		return Validation{}, errors.Wrap(err, "load invitation")
	}

	// Tokens are scoped to the test they were issued for.
	if invitation.TestID != testID {
		return Validation{Reason: ReasonInvalidToken}, nil
	}

	return s.checkInvitation(invitation), nil
}

// ValidateEmail is the "enter your email to access the test" entry point. It
// resolves the most recent invitation for (testID, email), applies the same
// expiry and deadline rules as ValidateToken, and returns the bound token so
// the caller can continue through the token-based flow.
func (s *Service) ValidateEmail(testID, email string) (Validation, error) {
	invitation, err := s.invitations.GetLatestByTestAndEmail(testID, email)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return Validation{Reason: ReasonNoInvitation}, nil
		}
		return Validation{}, errors.Wrap(err, "load invitation")
	}

	return s.checkInvitation(invitation), nil
}

// GetInvitationByToken loads an invitation without applying access rules,
// for the candidate landing page preview.
func (s *Service) GetInvitationByToken(token string) (models.Invitation, error) {
	invitation, err := s.invitations.GetInvitationByToken(token)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return models.Invitation{}, ErrInvitationNotFound
		}
		return models.Invitation{}, errors.Wrap(err, "load invitation")
	}
	return invitation, nil
}

func (s *Service) checkInvitation(invitation models.Invitation) Validation {
	now := time.Now()

	if invitation.IsExpired(now) {
		return Validation{Reason: ReasonExpired, Invitation: invitation}
	}
	if invitation.DeadlinePassed(now) {
		return Validation{Reason: ReasonDeadlinePassed, Invitation: invitation}
	}

	return Validation{
		Valid:       true,
		CandidateID: invitation.CandidateID,
		Invitation:  invitation,
	}
}
