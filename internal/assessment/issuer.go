package assessment

import (
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/reeltest/reeltest-api/internal/models"
)

// Invitations stay valid for 30 days from issuance unless a tighter
// deadline is set.
const invitationTTL = 30 * 24 * time.Hour

// BatchOutcome reports the result of inviting a single recipient.
type BatchOutcome struct {
	Email     string    `json:"email"`
	Success   bool      `json:"success"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	EmailSent bool      `json:"email_sent"`
	Error     string    `json:"error,omitempty"`
}

// Invite creates a fresh invitation for (testID, email). The candidate row is
// created lazily on first contact; repeated invites for the same email are
// intentional and produce independent invitations.
func (s *Service) Invite(testID, email string, deadline *time.Time) (models.Invitation, error) {
	if _, err := s.tests.GetTestByID(testID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return models.Invitation{}, ErrTestNotFound
		}
		return models.Invitation{}, errors.Wrap(err, "load test")
	}

	candidate, err := s.candidates.GetOrCreateByEmail(email)
	if err != nil {
		return models.Invitation{}, errors.Wrap(err, "create candidate")
	}

	invitation := models.Invitation{
		TestID:      testID,
		CandidateID: candidate.ID,
		Email:       email,
		Status:      models.InvitationPending,
		Token:       uuid.NewString(),
		ExpiresAt:   time.Now().Add(invitationTTL),
		Deadline:    deadline,
	}

	created, err := s.invitations.CreateInvitation(invitation)
	if err != nil {
		return models.Invitation{}, errors.Wrap(err, "create invitation")
	}

	s.logger.Info().
		Str("test_id", testID).
		Str("candidate_id", candidate.ID).
		Msg("invitation issued")

	return created, nil
}

// InviteBatch invites every email independently. One recipient's failure
// never blocks the others; each outcome is reported on its own.
func (s *Service) InviteBatch(testID string, emails []string, deadline *time.Time) []BatchOutcome {
	outcomes := make([]BatchOutcome, 0, len(emails))
	for _, email := range emails {
		invitation, err := s.Invite(testID, email, deadline)
		if err != nil {
			s.logger.Warn().Err(err).Str("email", email).Msg("failed to invite candidate")
			outcomes = append(outcomes, BatchOutcome{Email: email, Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, BatchOutcome{
			Email:     email,
			Success:   true,
			Token:     invitation.Token,
			ExpiresAt: invitation.ExpiresAt,
		})
	}
	return outcomes
}

// ListInvitations returns every invitation issued for a test, newest first.
func (s *Service) ListInvitations(testID string) ([]models.Invitation, error) {
	invitations, err := s.invitations.ListInvitationsByTest(testID)
	if err != nil {
		return nil, errors.Wrap(err, "list invitations")
	}
	return invitations, nil
}
