package assessment

import (
	"database/sql"
	stderrors "errors"

	"github.com/pkg/errors"
	"github.com/reeltest/reeltest-api/internal/models"
)

// SectionDetail pairs a candidate's per-section progress with the section it
// answers, so the candidate view renders without a second lookup.
type SectionDetail struct {
	models.SectionSubmission
	Section models.TestSection `json:"section"`
}

// SubmissionDetail is the joined view of one attempt: the submission, its
// test and candidate, and every per-section row in test order.
type SubmissionDetail struct {
	Submission models.TestSubmission `json:"submission"`
	Test       models.Test           `json:"test"`
	Candidate  models.Candidate      `json:"candidate"`
	Sections   []SectionDetail       `json:"sections"`
}

// StartSection moves a section to in_progress, keeping the original
// started_at on repeat calls. Re-entering an already-started section is a
// no-op; a completed section cannot be restarted.
func (s *Service) StartSection(submissionID, sectionID string) (models.SectionSubmission, error) {
	section, err := s.submissions.StartSection(submissionID, sectionID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return models.SectionSubmission{}, ErrSectionNotFound
		}
		return models.SectionSubmission{}, errors.Wrap(err, "start section")
	}
	return section, nil
}

// CompleteSection finalizes one section, then promotes the parent submission
// to completed if and only if every section is now completed. The state
// machine is one-way: completing a section twice fails with
// ErrSectionNotFound and never re-triggers submission completion.
func (s *Service) CompleteSection(submissionID, sectionID, submissionLink, comments string, timeSpent int) (models.SectionSubmission, error) {
	section, err := s.submissions.CompleteSection(submissionID, sectionID, submissionLink, comments, timeSpent)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return models.SectionSubmission{}, ErrSectionNotFound
		}
		return models.SectionSubmission{}, errors.Wrap(err, "complete section")
	}

	sections, err := s.submissions.ListSectionSubmissions(submissionID)
	if err != nil {
		return models.SectionSubmission{}, errors.Wrap(err, "list section submissions")
	}

	for _, sub := range sections {
		if sub.Status != models.SectionStatusCompleted {
			return section, nil
		}
	}

	submission, err := s.submissions.MarkSubmissionCompleted(submissionID)
	if err != nil {
		// Another completion call already promoted the submission.
		if stderrors.Is(err, sql.ErrNoRows) {
			return section, nil
		}
		return models.SectionSubmission{}, errors.Wrap(err, "complete submission")
	}

	if err := s.invitations.MarkCompleted(submission.TestID, submission.CandidateID); err != nil {
		s.logger.Warn().Err(err).
			Str("submission_id", submissionID).
			Msg("failed to mark invitation completed")
	}

	s.logger.Info().
		Str("submission_id", submissionID).
		Str("test_id", submission.TestID).
		Str("candidate_id", submission.CandidateID).
		Msg("submission completed")

	return section, nil
}

// GetSubmission loads the joined detail view for a submission.
func (s *Service) GetSubmission(submissionID string) (SubmissionDetail, error) {
	submission, err := s.submissions.GetSubmissionByID(submissionID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return SubmissionDetail{}, ErrSubmissionNotFound
		}
		return SubmissionDetail{}, errors.Wrap(err, "load submission")
	}

	test, err := s.tests.GetTestByID(submission.TestID)
	if err != nil {
		return SubmissionDetail{}, errors.Wrap(err, "load test")
	}

	candidate, err := s.candidates.GetCandidateByID(submission.CandidateID)
	if err != nil {
		return SubmissionDetail{}, errors.Wrap(err, "load candidate")
	}

	sectionSubs, err := s.submissions.ListSectionSubmissions(submissionID)
	if err != nil {
		return SubmissionDetail{}, errors.Wrap(err, "list section submissions")
	}

	testSections, err := s.tests.ListSections(submission.TestID)
	if err != nil {
		return SubmissionDetail{}, errors.Wrap(err, "list test sections")
	}
	byID := make(map[string]models.TestSection, len(testSections))
	for _, section := range testSections {
		byID[section.ID] = section
	}

	sections := make([]SectionDetail, 0, len(sectionSubs))
	for _, sub := range sectionSubs {
		sections = append(sections, SectionDetail{
			SectionSubmission: sub,
			Section:           byID[sub.SectionID],
		})
	}

	return SubmissionDetail{
		Submission: submission,
		Test:       test,
		Candidate:  candidate,
		Sections:   sections,
	}, nil
}
