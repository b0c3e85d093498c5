package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/reeltest/reeltest-api/internal/assessment"
	"github.com/rs/zerolog"
)

type SubmissionHandler struct {
	service *assessment.Service
	logger  zerolog.Logger
}

type startSubmissionRequest struct {
	TestID string `json:"test_id"`
	Token  string `json:"token"`
}

type completeSectionRequest struct {
	SubmissionLink string `json:"submission_link"`
	Comments       string `json:"comments"`
	TimeSpent      int    `json:"time_spent"`
}

func NewSubmissionHandler(service *assessment.Service, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger,
	}
}

// StartSubmission starts or resumes a candidate's attempt. A valid token
// either resumes the active submission or creates a new one with every
// section row, atomically. A completed attempt gets a 403.
func (h *SubmissionHandler) StartSubmission(w http.ResponseWriter, r *http.Request) {
	var payload startSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(payload.TestID) == "" || strings.TrimSpace(payload.Token) == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	result, err := h.service.StartOrResume(payload.TestID, payload.Token)
	if err != nil {
		var forbidden *assessment.ForbiddenError
		switch {
		case errors.As(err, &forbidden):
			http.Error(w, forbidden.Reason, http.StatusForbidden)
		case errors.Is(err, assessment.ErrAlreadyCompleted):
			http.Error(w, assessment.ErrAlreadyCompleted.Error(), http.StatusForbidden)
		default:
			h.logger.Error().Err(err).Msg("failed to start submission")
			http.Error(w, "Failed to create test submission", http.StatusInternalServerError)
		}
		return
	}

	message := "Test submission created successfully"
	if result.Resumed {
		message = "Resuming existing submission"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"submission_id": result.Submission.ID,
		"message":       message,
	})
}

// GetSubmission returns the joined detail view of one attempt.
func (h *SubmissionHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID := mux.Vars(r)["submissionID"]

	detail, err := h.service.GetSubmission(submissionID)
	if err != nil {
		if errors.Is(err, assessment.ErrSubmissionNotFound) {
			http.Error(w, "Submission not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("submission_id", submissionID).Msg("failed to load submission")
		http.Error(w, "Failed to load submission", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detail)
}

// StartSection moves a section to in_progress. Repeat calls are harmless.
func (h *SubmissionHandler) StartSection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	submissionID := vars["submissionID"]
	sectionID := vars["sectionID"]

	section, err := h.service.StartSection(submissionID, sectionID)
	if err != nil {
		if errors.Is(err, assessment.ErrSectionNotFound) {
			http.Error(w, "Section submission not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("submission_id", submissionID).Msg("failed to start section")
		http.Error(w, "Failed to start section", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(section)
}

// CompleteSection stores the candidate's work for a section and finalizes the
// whole submission once the last section is done.
func (h *SubmissionHandler) CompleteSection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	submissionID := vars["submissionID"]
	sectionID := vars["sectionID"]

	var payload completeSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	section, err := h.service.CompleteSection(submissionID, sectionID, payload.SubmissionLink, payload.Comments, payload.TimeSpent)
	if err != nil {
		if errors.Is(err, assessment.ErrSectionNotFound) {
			http.Error(w, "Section submission not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("submission_id", submissionID).Msg("failed to complete section")
		http.Error(w, "Failed to complete section", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(section)
}
