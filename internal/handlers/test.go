package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/reeltest/reeltest-api/internal/assessment"
	"github.com/reeltest/reeltest-api/internal/authz"
	"github.com/reeltest/reeltest-api/internal/models"
	"github.com/reeltest/reeltest-api/internal/repository"
	"github.com/rs/zerolog"
)

type TestHandler struct {
	service  *assessment.Service
	testRepo repository.TestRepository
	subRepo  repository.SubmissionRepository
	logger   zerolog.Logger
}

type sectionRequest struct {
	Title         string `json:"title"`
	Type          string `json:"type"`
	TimeLimit     int    `json:"time_limit"`
	Instructions  string `json:"instructions"`
	ReferenceLink string `json:"reference_link"`
	DownloadLink  string `json:"download_link"`
	OutputFormat  string `json:"output_format"`
}

type createTestRequest struct {
	Title       string           `json:"title"`
	Role        string           `json:"role"`
	Discipline  string           `json:"discipline"`
	Category    string           `json:"category"`
	AIGenerated bool             `json:"ai_generated"`
	Sections    []sectionRequest `json:"sections"`
}

func NewTestHandler(service *assessment.Service, testRepo repository.TestRepository, subRepo repository.SubmissionRepository, logger zerolog.Logger) *TestHandler {
	return &TestHandler{
		service:  service,
		testRepo: testRepo,
		subRepo:  subRepo,
		logger:   logger,
	}
}

// CreateTest creates a test together with its ordered sections.
func (h *TestHandler) CreateTest(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var payload createTestRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(payload.Title) == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}
	if len(payload.Sections) == 0 {
		http.Error(w, "at least one section is required", http.StatusBadRequest)
		return
	}

	totalTime := 0
	sections := make([]models.TestSection, 0, len(payload.Sections))
	for _, section := range payload.Sections {
		sectionType := models.SectionType(section.Type)
		if !models.IsValidSectionType(sectionType) {
			http.Error(w, "invalid section type: "+section.Type, http.StatusBadRequest)
			return
		}
		title := strings.TrimSpace(section.Title)
		if title == "" {
			title = strings.ToUpper(section.Type[:1]) + section.Type[1:] + " Section"
		}
		totalTime += section.TimeLimit
		sections = append(sections, models.TestSection{
			Title:         title,
			Type:          sectionType,
			TimeLimit:     section.TimeLimit,
			Instructions:  section.Instructions,
			ReferenceLink: section.ReferenceLink,
			DownloadLink:  section.DownloadLink,
			OutputFormat:  section.OutputFormat,
		})
	}

	test := models.Test{
		Title:       strings.TrimSpace(payload.Title),
		Role:        strings.TrimSpace(payload.Role),
		Discipline:  strings.TrimSpace(payload.Discipline),
		Category:    strings.TrimSpace(payload.Category),
		TotalTime:   totalTime,
		CreatedBy:   userID,
		AIGenerated: payload.AIGenerated,
	}

	created, err := h.testRepo.CreateTestWithSections(test, sections)
	if err != nil {
		http.Error(w, "Failed to create test: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

type updateSectionRequest struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Type          string `json:"type"`
	TimeLimit     int    `json:"time_limit"`
	Instructions  string `json:"instructions"`
	ReferenceLink string `json:"reference_link"`
	DownloadLink  string `json:"download_link"`
	OutputFormat  string `json:"output_format"`
}

type updateTestRequest struct {
	Title      string                 `json:"title"`
	Role       string                 `json:"role"`
	Discipline string                 `json:"discipline"`
	Category   string                 `json:"category"`
	Sections   []updateSectionRequest `json:"sections"`
}

// UpdateTest edits a test's fields and its sections. Sections carrying an id
// are updated in place; sections without one are appended. Only the owner may
// edit; anyone else sees a 404.
func (h *TestHandler) UpdateTest(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	testID := mux.Vars(r)["testID"]

	var payload updateTestRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(payload.Title) == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	totalTime := 0
	sections := make([]models.TestSection, 0, len(payload.Sections))
	for _, section := range payload.Sections {
		sectionType := models.SectionType(section.Type)
		if !models.IsValidSectionType(sectionType) {
			http.Error(w, "invalid section type: "+section.Type, http.StatusBadRequest)
			return
		}
		title := strings.TrimSpace(section.Title)
		if title == "" {
			title = strings.ToUpper(section.Type[:1]) + section.Type[1:] + " Section"
		}
		totalTime += section.TimeLimit
		sections = append(sections, models.TestSection{
			ID:            section.ID,
			Title:         title,
			Type:          sectionType,
			TimeLimit:     section.TimeLimit,
			Instructions:  section.Instructions,
			ReferenceLink: section.ReferenceLink,
			DownloadLink:  section.DownloadLink,
			OutputFormat:  section.OutputFormat,
		})
	}

	test := models.Test{
		ID:         testID,
		Title:      strings.TrimSpace(payload.Title),
		Role:       strings.TrimSpace(payload.Role),
		Discipline: strings.TrimSpace(payload.Discipline),
		Category:   strings.TrimSpace(payload.Category),
		TotalTime:  totalTime,
		CreatedBy:  userID,
	}

	updated, err := h.testRepo.UpdateTestWithSections(test, sections)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Test not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update test: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

func (h *TestHandler) ListTests(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	tests, err := h.testRepo.ListTestsByOwner(userID)
	if err != nil {
		http.Error(w, "Failed to list tests: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tests)
}

func (h *TestHandler) GetTest(w http.ResponseWriter, r *http.Request) {
	testID := mux.Vars(r)["testID"]

	test, err := h.testRepo.GetTestByID(testID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Test not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load test: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(test)
}

// ArchiveTest marks a test archived, keeping its submissions intact.
func (h *TestHandler) ArchiveTest(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	testID := mux.Vars(r)["testID"]

	if err := h.testRepo.ArchiveTest(testID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Test not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to archive test: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TestHandler) DeleteTest(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	testID := mux.Vars(r)["testID"]

	if err := h.testRepo.DeleteTest(testID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Test not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete test: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSections returns a test's sections in candidate-facing order.
func (h *TestHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	testID := mux.Vars(r)["testID"]

	sections, err := h.testRepo.ListSections(testID)
	if err != nil {
		http.Error(w, "Failed to fetch test sections", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sections)
}

type validateEmailRequest struct {
	Email string `json:"email"`
}

// ValidateEmail is the "enter your email to access the test" flow. It applies
// the same expiry and deadline rules as the token path and hands back the
// bound token on success.
func (h *TestHandler) ValidateEmail(w http.ResponseWriter, r *http.Request) {
	testID := mux.Vars(r)["testID"]

	var payload validateEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(strings.ToLower(payload.Email))
	if email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	validation, err := h.service.ValidateEmail(testID, email)
	if err != nil {
		http.Error(w, "Failed to validate email: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if !validation.Valid {
		status := http.StatusForbidden
		if validation.Reason == assessment.ReasonNoInvitation {
			status = http.StatusNotFound
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{"valid": false, "error": validation.Reason})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{"valid": true, "token": validation.Invitation.Token})
}

// ListCandidates is the recruiter dashboard rollup for one test.
func (h *TestHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	testID := mux.Vars(r)["testID"]

	test, err := h.testRepo.GetTestByID(testID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Test not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load test: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if test.CreatedBy != userID {
		http.Error(w, "insufficient permissions", http.StatusForbidden)
		return
	}

	candidates, err := h.subRepo.ListCandidateProgressByTest(testID)
	if err != nil {
		http.Error(w, "Failed to list candidates: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(candidates)
}
