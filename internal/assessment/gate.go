package assessment

import (
	"database/sql"
	stderrors "errors"

	"github.com/pkg/errors"
	"github.com/reeltest/reeltest-api/internal/models"
	"github.com/reeltest/reeltest-api/internal/repository"
)

// StartResult reports the submission a candidate should work on and whether
// it was resumed rather than freshly created.
type StartResult struct {
	Submission models.TestSubmission
	Resumed    bool
}

// StartOrResume is the single entry point for a candidate to begin a test.
// A valid token either resumes the candidate's active submission or creates
// a new one with a pending section row for every section of the test, all in
// one transaction. A completed submission blocks any further attempt.
//
// The operation is idempotent under interruption: refreshing or retrying
// returns the same submission. Concurrent duplicate requests are settled by
// the storage uniqueness constraint; the loser of the race resumes the
// winner's submission.
func (s *Service) StartOrResume(testID, token string) (StartResult, error) {
	validation, err := s.ValidateToken(testID, token)
	if err != nil {
		return StartResult{}, err
	}
	if !validation.Valid {
		return StartResult{}, &ForbiddenError{Reason: validation.Reason}
	}

	existing, err := s.submissions.GetByTestAndCandidate(testID, validation.CandidateID)
	switch {
	case err == nil:
		if existing.Status != models.SubmissionCompleted {
			return StartResult{Submission: existing, Resumed: true}, nil
		}
		return StartResult{}, ErrAlreadyCompleted
	case stderrors.Is(err, sql.ErrNoRows):
		// No attempt yet; fall through to creation.
	default:
		return StartResult{}, errors.Wrap(err, "load submission")
	}

	sections, err := s.tests.ListSections(testID)
	if err != nil {
		return StartResult{}, errors.Wrap(err, "list test sections")
	}
	sectionIDs := make([]string, 0, len(sections))
	for _, section := range sections {
		sectionIDs = append(sectionIDs, section.ID)
	}

	created, err := s.submissions.CreateWithSections(testID, validation.CandidateID, sectionIDs)
	if err != nil {
		if stderrors.Is(err, repository.ErrDuplicateSubmission) {
			return s.resumeAfterConflict(testID, validation.CandidateID)
		}
		return StartResult{}, errors.Wrap(err, "create submission")
	}

	s.logger.Info().
		Str("test_id", testID).
		Str("candidate_id", validation.CandidateID).
		Str("submission_id", created.ID).
		Int("sections", len(sectionIDs)).
		Msg("submission started")

	return StartResult{Submission: created}, nil
}

func (s *Service) resumeAfterConflict(testID, candidateID string) (StartResult, error) {
	existing, err := s.submissions.GetByTestAndCandidate(testID, candidateID)
	if err != nil {
		return StartResult{}, errors.Wrap(err, "resolve submission conflict")
	}
	if existing.Status == models.SubmissionCompleted {
		return StartResult{}, ErrAlreadyCompleted
	}
	return StartResult{Submission: existing, Resumed: true}, nil
}
