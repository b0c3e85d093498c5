package handlers

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/reeltest/reeltest-api/internal/assessment"
	"github.com/reeltest/reeltest-api/internal/models"
	"github.com/reeltest/reeltest-api/internal/notification"
	"github.com/reeltest/reeltest-api/internal/repository"
	"github.com/rs/zerolog"
)

// memStore backs handler tests with an in-memory implementation of every
// repository interface, mirroring the storage semantics the handlers and the
// assessment service expect.
type memStore struct {
	users       map[string]models.User
	tests       map[string]models.Test
	sections    map[string][]models.TestSection
	candidates  map[string]models.Candidate
	invitations []models.Invitation
	submissions map[string]models.TestSubmission
	sectionSubs map[string][]models.SectionSubmission

	nextID int
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]models.User),
		tests:       make(map[string]models.Test),
		sections:    make(map[string][]models.TestSection),
		candidates:  make(map[string]models.Candidate),
		submissions: make(map[string]models.TestSubmission),
		sectionSubs: make(map[string][]models.SectionSubmission),
	}
}

func (m *memStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *memStore) addUser(email string) models.User {
	user := models.User{ID: m.id("user"), Email: email, FullName: "Recruiter", CompanyName: "Acme", IsActive: true}
	m.users[user.ID] = user
	return user
}

func (m *memStore) addTest(owner string, sectionCount int) models.Test {
	test := models.Test{ID: m.id("test"), Title: "Design Assessment", Role: "Designer", CreatedBy: owner, CreatedAt: time.Now()}
	m.tests[test.ID] = test
	for i := 0; i < sectionCount; i++ {
		m.sections[test.ID] = append(m.sections[test.ID], models.TestSection{
			ID:         m.id("section"),
			TestID:     test.ID,
			Title:      fmt.Sprintf("Section %d", i+1),
			Type:       models.SectionDesign,
			OrderIndex: i,
		})
	}
	return test
}

func (m *memStore) addInvitation(testID, email string, mutate func(*models.Invitation)) models.Invitation {
	candidate, ok := m.candidates[email]
	if !ok {
		candidate = models.Candidate{ID: m.id("candidate"), Email: email}
		m.candidates[email] = candidate
	}
	invitation := models.Invitation{
		ID:          m.id("invitation"),
		TestID:      testID,
		CandidateID: candidate.ID,
		Email:       email,
		Status:      models.InvitationPending,
		Token:       m.id("token"),
		ExpiresAt:   time.Now().Add(29 * 24 * time.Hour),
		CreatedAt:   time.Now(),
	}
	if mutate != nil {
		mutate(&invitation)
	}
	m.invitations = append(m.invitations, invitation)
	return invitation
}

// UserRepository

func (m *memStore) CreateUser(email, password, fullName, companyName, jobTitle string) (models.User, error) {
	user := models.User{ID: m.id("user"), Email: email, FullName: fullName, CompanyName: companyName, JobTitle: jobTitle, IsActive: true}
	m.users[user.ID] = user
	return user, nil
}

func (m *memStore) AuthenticateUser(email, password string) (models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, fmt.Errorf("invalid credentials")
}

func (m *memStore) GetUserByID(userID string) (models.User, error) {
	user, ok := m.users[userID]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return user, nil
}

// TestRepository

func (m *memStore) CreateTestWithSections(test models.Test, sections []models.TestSection) (models.Test, error) {
	test.ID = m.id("test")
	m.tests[test.ID] = test
	for i, section := range sections {
		section.ID = m.id("section")
		section.TestID = test.ID
		section.OrderIndex = i
		m.sections[test.ID] = append(m.sections[test.ID], section)
	}
	return test, nil
}

func (m *memStore) UpdateTestWithSections(test models.Test, sections []models.TestSection) (models.Test, error) {
	existing, ok := m.tests[test.ID]
	if !ok || existing.CreatedBy != test.CreatedBy {
		return models.Test{}, sql.ErrNoRows
	}
	existing.Title = test.Title
	existing.Role = test.Role
	existing.Discipline = test.Discipline
	existing.Category = test.Category
	existing.TotalTime = test.TotalTime
	m.tests[test.ID] = existing

	stored := m.sections[test.ID]
	for _, section := range sections {
		if section.ID == "" {
			section.ID = m.id("section")
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
	m.sections[test.ID] = stored

	return existing, nil
}

func (m *memStore) GetTestByID(testID string) (models.Test, error) {
	test, ok := m.tests[testID]
	if !ok {
		return models.Test{}, sql.ErrNoRows
	}
	return test, nil
}

func (m *memStore) ListTestsByOwner(userID string) ([]models.Test, error) {
	var tests []models.Test
	for _, test := range m.tests {
		if test.CreatedBy == userID {
			tests = append(tests, test)
		}
	}
	return tests, nil
}

func (m *memStore) ListSections(testID string) ([]models.TestSection, error) {
	return m.sections[testID], nil
}

func (m *memStore) ArchiveTest(testID, userID string) error {
	test, ok := m.tests[testID]
	if !ok || test.CreatedBy != userID {
		return sql.ErrNoRows
	}
	test.Archived = true
	m.tests[testID] = test
	return nil
}

func (m *memStore) DeleteTest(testID, userID string) error {
	test, ok := m.tests[testID]
	if !ok || test.CreatedBy != userID {
		return sql.ErrNoRows
	}
	delete(m.tests, testID)
	return nil
}

// CandidateRepository

func (m *memStore) GetOrCreateByEmail(email string) (models.Candidate, error) {
	if candidate, ok := m.candidates[email]; ok {
		return candidate, nil
	}
	candidate := models.Candidate{ID: m.id("candidate"), Email: email}
	m.candidates[email] = candidate
	return candidate, nil
}

func (m *memStore) GetCandidateByID(candidateID string) (models.Candidate, error) {
	for _, candidate := range m.candidates {
		if candidate.ID == candidateID {
			return candidate, nil
		}
	}
	return models.Candidate{}, sql.ErrNoRows
}

// InvitationRepository

func (m *memStore) CreateInvitation(invitation models.Invitation) (models.Invitation, error) {
	invitation.ID = m.id("invitation")
	invitation.CreatedAt = time.Now()
	m.invitations = append(m.invitations, invitation)
	return invitation, nil
}

func (m *memStore) GetInvitationByToken(token string) (models.Invitation, error) {
	for _, invitation := range m.invitations {
		if invitation.Token == token {
			return invitation, nil
		}
	}
	return models.Invitation{}, sql.ErrNoRows
}

func (m *memStore) GetLatestByTestAndEmail(testID, email string) (models.Invitation, error) {
	for i := len(m.invitations) - 1; i >= 0; i-- {
		invitation := m.invitations[i]
		if invitation.TestID == testID && invitation.Email == email {
			return invitation, nil
		}
	}
	return models.Invitation{}, sql.ErrNoRows
}

func (m *memStore) ListInvitationsByTest(testID string) ([]models.Invitation, error) {
	var invitations []models.Invitation
	for _, invitation := range m.invitations {
		if invitation.TestID == testID {
			invitations = append(invitations, invitation)
		}
	}
	return invitations, nil
}

func (m *memStore) MarkCompleted(testID, candidateID string) error {
	for i, invitation := range m.invitations {
		if invitation.TestID == testID && invitation.CandidateID == candidateID && invitation.Status == models.InvitationAccepted {
			m.invitations[i].Status = models.InvitationCompleted
		}
	}
	return nil
}

// SubmissionRepository

func (m *memStore) GetByTestAndCandidate(testID, candidateID string) (models.TestSubmission, error) {
	for _, submission := range m.submissions {
		if submission.TestID == testID && submission.CandidateID == candidateID {
			return submission, nil
		}
	}
	return models.TestSubmission{}, sql.ErrNoRows
}

func (m *memStore) GetSubmissionByID(submissionID string) (models.TestSubmission, error) {
	submission, ok := m.submissions[submissionID]
	if !ok {
		return models.TestSubmission{}, sql.ErrNoRows
	}
	return submission, nil
}

func (m *memStore) CreateWithSections(testID, candidateID string, sectionIDs []string) (models.TestSubmission, error) {
	for _, submission := range m.submissions {
		if submission.TestID == testID && submission.CandidateID == candidateID && submission.Status != models.SubmissionCompleted {
			return models.TestSubmission{}, repository.ErrDuplicateSubmission
		}
	}
	now := time.Now()
	submission := models.TestSubmission{
		ID:          m.id("submission"),
		TestID:      testID,
		CandidateID: candidateID,
		Status:      models.SubmissionInProgress,
		StartedAt:   now,
		CreatedAt:   now,
	}
	m.submissions[submission.ID] = submission
	for _, sectionID := range sectionIDs {
		m.sectionSubs[submission.ID] = append(m.sectionSubs[submission.ID], models.SectionSubmission{
			ID:               m.id("ss"),
			TestSubmissionID: submission.ID,
			SectionID:        sectionID,
			Status:           models.SectionStatusPending,
		})
	}
	for i, invitation := range m.invitations {
		if invitation.TestID == testID && invitation.CandidateID == candidateID && invitation.Status == models.InvitationPending {
			m.invitations[i].Status = models.InvitationAccepted
		}
	}
	return submission, nil
}

func (m *memStore) ListSectionSubmissions(submissionID string) ([]models.SectionSubmission, error) {
	return m.sectionSubs[submissionID], nil
}

func (m *memStore) StartSection(submissionID, sectionID string) (models.SectionSubmission, error) {
	subs := m.sectionSubs[submissionID]
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

func (m *memStore) CompleteSection(submissionID, sectionID, submissionLink, comments string, timeSpent int) (models.SectionSubmission, error) {
	subs := m.sectionSubs[submissionID]
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

func (m *memStore) MarkSubmissionCompleted(submissionID string) (models.TestSubmission, error) {
	submission, ok := m.submissions[submissionID]
	if !ok || submission.Status == models.SubmissionCompleted {
		return models.TestSubmission{}, sql.ErrNoRows
	}
	now := time.Now()
	submission.Status = models.SubmissionCompleted
	submission.CompletedAt = &now
	m.submissions[submissionID] = submission
	return submission, nil
}

func (m *memStore) ListCandidateProgressByTest(testID string) ([]models.CandidateProgress, error) {
	var progress []models.CandidateProgress
	seen := make(map[string]bool)
	for _, invitation := range m.invitations {
		if invitation.TestID != testID || seen[invitation.CandidateID] {
			continue
		}
		seen[invitation.CandidateID] = true
		progress = append(progress, models.CandidateProgress{
			CandidateID: invitation.CandidateID,
			Email:       invitation.Email,
			InvitedAt:   invitation.CreatedAt,
			Status:      "invited",
		})
	}
	return progress, nil
}

// fakeMailer records deliveries and can be told to fail.
type fakeMailer struct {
	sent []notification.Invitation
	fail bool
}

func (m *fakeMailer) SendInvitation(invitation notification.Invitation) error {
	if m.fail {
		return fmt.Errorf("smtp unavailable")
	}
	m.sent = append(m.sent, invitation)
	return nil
}

func newTestService(store *memStore) *assessment.Service {
	return assessment.NewService(store, store, store, store, zerolog.Nop())
}
