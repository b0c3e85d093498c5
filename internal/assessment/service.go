package assessment

import (
	"github.com/reeltest/reeltest-api/internal/repository"
	"github.com/rs/zerolog"
)

// Service owns the invitation lifecycle and the submission state machine:
// issuing tokens, validating candidate access, gating attempt creation, and
// promoting submissions to completed once every section is done.
type Service struct {
	tests       repository.TestRepository
	candidates  repository.CandidateRepository
	invitations repository.InvitationRepository
	submissions repository.SubmissionRepository
	logger      zerolog.Logger
}

func NewService(
	tests repository.TestRepository,
	candidates repository.CandidateRepository,
	invitations repository.InvitationRepository,
	submissions repository.SubmissionRepository,
	logger zerolog.Logger,
) *Service {
	return &Service{
		tests:       tests,
		candidates:  candidates,
		invitations: invitations,
		submissions: submissions,
		logger:      logger.With().Str("component", "assessment_service").Logger(),
	}
}
