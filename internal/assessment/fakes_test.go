package assessment

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/reeltest/reeltest-api/internal/models"
	"github.com/reeltest/reeltest-api/internal/repository"
	"github.com/rs/zerolog"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. It
// mirrors the storage semantics the service relies on: sql.ErrNoRows for
// missing rows, the active-submission uniqueness constraint, and the
// transactional create of a submission with its section rows.
type fakeStore struct {
	tests       map[string]models.Test
	sections    map[string][]models.TestSection
	candidates  map[string]models.Candidate // keyed by email
	invitations []models.Invitation
	submissions map[string]models.TestSubmission
	sectionSubs map[string][]models.SectionSubmission

	failCandidateCreate  bool
	failInvitationCreate bool

	// hideSubmissionsOnce makes the next submission lookup miss, simulating
	// the stale read a concurrent duplicate request races against.
	hideSubmissionsOnce bool

	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tests:       make(map[string]models.Test),
		sections:    make(map[string][]models.TestSection),
		candidates:  make(map[string]models.Candidate),
		submissions: make(map[string]models.TestSubmission),
		sectionSubs: make(map[string][]models.SectionSubmission),
	}
}

func (s *fakeStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *fakeStore) addTest(title string, sectionCount int) models.Test {
	test := models.Test{ID: s.id("test"), Title: title, CreatedBy: "user-1", CreatedAt: time.Now()}
	s.tests[test.ID] = test
	for i := 0; i < sectionCount; i++ {
		s.sections[test.ID] = append(s.sections[test.ID], models.TestSection{
			ID:         s.id("section"),
			TestID:     test.ID,
			Title:      fmt.Sprintf("Section %d", i+1),
			Type:       models.SectionDesign,
			OrderIndex: i,
		})
	}
	return test
}

// --- repository.TestRepository ---

type fakeTestRepo struct{ store *fakeStore }

func (r *fakeTestRepo) CreateTestWithSections(test models.Test, sections []models.TestSection) (models.Test, error) {
	test.ID = r.store.id("test")
	r.store.tests[test.ID] = test
	for i, section := range sections {
		section.ID = r.store.id("section")
		section.TestID = test.ID
		section.OrderIndex = i
		r.store.sections[test.ID] = append(r.store.sections[test.ID], section)
	}
	return test, nil
}

func (r *fakeTestRepo) UpdateTestWithSections(test models.Test, sections []models.TestSection) (models.Test, error) {
	existing, ok := r.store.tests[test.ID]
	if !ok || existing.CreatedBy != test.CreatedBy {
		return models.Test{}, sql.ErrNoRows
	}
	existing.Title = test.Title
	existing.Role = test.Role
	existing.Discipline = test.Discipline
	existing.Category = test.Category
	existing.TotalTime = test.TotalTime
	r.store.tests[test.ID] = existing

	stored := r.store.sections[test.ID]
	for _, section := range sections {
		if section.ID == "" {
			section.ID = r.store.id("section")
			section.TestID = test.ID
			section.OrderIndex = len(stored)
			stored = append(stored, section)
			continue
		}
		updated := false
		for i := range stored {
			if stored[i].ID == section.ID {
				section.TestID = test.ID
				section.OrderIndex = stored[i].OrderIndex
				stored[i] = section
				updated = true
				break
			}
		}
		if !updated {
			return models.Test{}, sql.ErrNoRows
		}
	}
	r.store.sections[test.ID] = stored

	return existing, nil
}

func (r *fakeTestRepo) GetTestByID(testID string) (models.Test, error) {
	test, ok := r.store.tests[testID]
	if !ok {
		return models.Test{}, sql.ErrNoRows
	}
	return test, nil
}

func (r *fakeTestRepo) ListTestsByOwner(userID string) ([]models.Test, error) {
	var tests []models.Test
	for _, test := range r.store.tests {
		if test.CreatedBy == userID {
			tests = append(tests, test)
		}
	}
	return tests, nil
}

func (r *fakeTestRepo) ListSections(testID string) ([]models.TestSection, error) {
	return r.store.sections[testID], nil
}

func (r *fakeTestRepo) ArchiveTest(testID, userID string) error {
	test, ok := r.store.tests[testID]
	if !ok || test.CreatedBy != userID {
		return sql.ErrNoRows
	}
	test.Archived = true
	r.store.tests[testID] = test
	return nil
}

func (r *fakeTestRepo) DeleteTest(testID, userID string) error {
	test, ok := r.store.tests[testID]
	if !ok || test.CreatedBy != userID {
		return sql.ErrNoRows
	}
	delete(r.store.tests, testID)
	delete(r.store.sections, testID)
	return nil
}

// --- repository.CandidateRepository ---

type fakeCandidateRepo struct{ store *fakeStore }

func (r *fakeCandidateRepo) GetOrCreateByEmail(email string) (models.Candidate, error) {
	if candidate, ok := r.store.candidates[email]; ok {
		return candidate, nil
	}
	if r.store.failCandidateCreate {
		return models.Candidate{}, errors.New("constraint violation")
	}
	candidate := models.Candidate{ID: r.store.id("candidate"), Email: email, CreatedAt: time.Now()}
	r.store.candidates[email] = candidate
	return candidate, nil
}

func (r *fakeCandidateRepo) GetCandidateByID(candidateID string) (models.Candidate, error) {
	for _, candidate := range r.store.candidates {
		if candidate.ID == candidateID {
			return candidate, nil
		}
	}
	return models.Candidate{}, sql.ErrNoRows
}

// --- repository.InvitationRepository ---

type fakeInvitationRepo struct{ store *fakeStore }

func (r *fakeInvitationRepo) CreateInvitation(invitation models.Invitation) (models.Invitation, error) {
	if r.store.failInvitationCreate {
		return models.Invitation{}, errors.New("constraint violation")
	}
	invitation.ID = r.store.id("invitation")
	invitation.CreatedAt = time.Now()
	invitation.UpdatedAt = invitation.CreatedAt
	r.store.invitations = append(r.store.invitations, invitation)
	return invitation, nil
}

func (r *fakeInvitationRepo) GetInvitationByToken(token string) (models.Invitation, error) {
	for _, invitation := range r.store.invitations {
		if invitation.Token == token {
			return invitation, nil
		}
	}
	return models.Invitation{}, sql.ErrNoRows
}

func (r *fakeInvitationRepo) GetLatestByTestAndEmail(testID, email string) (models.Invitation, error) {
	// Invitations are appended in creation order; the newest wins.
	for i := len(r.store.invitations) - 1; i >= 0; i-- {
		invitation := r.store.invitations[i]
		if invitation.TestID == testID && invitation.Email == email {
			return invitation, nil
		}
	}
	return models.Invitation{}, sql.ErrNoRows
}

func (r *fakeInvitationRepo) ListInvitationsByTest(testID string) ([]models.Invitation, error) {
	var invitations []models.Invitation
	for _, invitation := range r.store.invitations {
		if invitation.TestID == testID {
			invitations = append(invitations, invitation)
		}
	}
	return invitations, nil
}

func (r *fakeInvitationRepo) MarkCompleted(testID, candidateID string) error {
	for i, invitation := range r.store.invitations {
		if invitation.TestID == testID && invitation.CandidateID == candidateID && invitation.Status == models.InvitationAccepted {
			r.store.invitations[i].Status = models.InvitationCompleted
		}
	}
	return nil
}

// --- repository.SubmissionRepository ---

type fakeSubmissionRepo struct{ store *fakeStore }

func (r *fakeSubmissionRepo) GetByTestAndCandidate(testID, candidateID string) (models.TestSubmission, error) {
	if r.store.hideSubmissionsOnce {
		r.store.hideSubmissionsOnce = false
		return models.TestSubmission{}, sql.ErrNoRows
	}
	var found *models.TestSubmission
	for _, submission := range r.store.submissions {
		if submission.TestID == testID && submission.CandidateID == candidateID {
			s := submission
			if found == nil || s.CreatedAt.After(found.CreatedAt) {
				found = &s
			}
		}
	}
	if found == nil {
		return models.TestSubmission{}, sql.ErrNoRows
	}
	return *found, nil
}

func (r *fakeSubmissionRepo) GetSubmissionByID(submissionID string) (models.TestSubmission, error) {
	submission, ok := r.store.submissions[submissionID]
	if !ok {
		return models.TestSubmission{}, sql.ErrNoRows
	}
	return submission, nil
}

func (r *fakeSubmissionRepo) CreateWithSections(testID, candidateID string, sectionIDs []string) (models.TestSubmission, error) {
	for _, submission := range r.store.submissions {
		if submission.TestID == testID && submission.CandidateID == candidateID && submission.Status != models.SubmissionCompleted {
			return models.TestSubmission{}, repository.ErrDuplicateSubmission
		}
	}

	now := time.Now()
	submission := models.TestSubmission{
		ID:          r.store.id("submission"),
		TestID:      testID,
		CandidateID: candidateID,
		Status:      models.SubmissionInProgress,
		StartedAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.store.submissions[submission.ID] = submission

	for _, sectionID := range sectionIDs {
		r.store.sectionSubs[submission.ID] = append(r.store.sectionSubs[submission.ID], models.SectionSubmission{
			ID:               r.store.id("ss"),
			TestSubmissionID: submission.ID,
			SectionID:        sectionID,
			Status:           models.SectionStatusPending,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}

	for i, invitation := range r.store.invitations {
		if invitation.TestID == testID && invitation.CandidateID == candidateID && invitation.Status == models.InvitationPending {
			r.store.invitations[i].Status = models.InvitationAccepted
		}
	}

	return submission, nil
}

func (r *fakeSubmissionRepo) ListSectionSubmissions(submissionID string) ([]models.SectionSubmission, error) {
	return r.store.sectionSubs[submissionID], nil
}

func (r *fakeSubmissionRepo) StartSection(submissionID, sectionID string) (models.SectionSubmission, error) {
	subs := r.store.sectionSubs[submissionID]
	for i, section := range subs {
		if section.SectionID != sectionID || section.Status == models.SectionStatusCompleted {
			continue
		}
		subs[i].Status = models.SectionStatusInProgress
		if subs[i].StartedAt == nil {
			now := time.Now()
			subs[i].StartedAt = &now
		}
		return subs[i], nil
	}
	return models.SectionSubmission{}, sql.ErrNoRows
}

func (r *fakeSubmissionRepo) CompleteSection(submissionID, sectionID, submissionLink, comments string, timeSpent int) (models.SectionSubmission, error) {
	subs := r.store.sectionSubs[submissionID]
	for i, section := range subs {
		if section.SectionID != sectionID || section.Status == models.SectionStatusCompleted {
			continue
		}
		now := time.Now()
		subs[i].Status = models.SectionStatusCompleted
		subs[i].SubmissionLink = &submissionLink
		subs[i].Comments = &comments
		subs[i].TimeSpent = timeSpent
		subs[i].CompletedAt = &now
		return subs[i], nil
	}
	return models.SectionSubmission{}, sql.ErrNoRows
}

func (r *fakeSubmissionRepo) MarkSubmissionCompleted(submissionID string) (models.TestSubmission, error) {
	submission, ok := r.store.submissions[submissionID]
	if !ok || submission.Status == models.SubmissionCompleted {
		return models.TestSubmission{}, sql.ErrNoRows
	}
	now := time.Now()
	submission.Status = models.SubmissionCompleted
	submission.CompletedAt = &now
	r.store.submissions[submissionID] = submission
	return submission, nil
}

func (r *fakeSubmissionRepo) ListCandidateProgressByTest(testID string) ([]models.CandidateProgress, error) {
	seen := make(map[string]bool)
	var progress []models.CandidateProgress
	for i := len(r.store.invitations) - 1; i >= 0; i-- {
		invitation := r.store.invitations[i]
		if invitation.TestID != testID || seen[invitation.CandidateID] {
			continue
		}
		seen[invitation.CandidateID] = true
		p := models.CandidateProgress{
			CandidateID: invitation.CandidateID,
			Email:       invitation.Email,
			InvitedAt:   invitation.CreatedAt,
			Status:      "invited",
			Deadline:    invitation.Deadline,
		}
		if submission, err := r.GetByTestAndCandidate(testID, invitation.CandidateID); err == nil {
			p.SubmissionID = &submission.ID
			p.Status = string(submission.Status)
			p.StartedAt = &submission.StartedAt
			p.CompletedAt = submission.CompletedAt
		}
		progress = append(progress, p)
	}
	return progress, nil
}

// newTestService wires a Service over a fresh fake store.
func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	service := NewService(
		&fakeTestRepo{store: store},
		&fakeCandidateRepo{store: store},
		&fakeInvitationRepo{store: store},
		&fakeSubmissionRepo{store: store},
		zerolog.Nop(),
	)
	return service, store
}
