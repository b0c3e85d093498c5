package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/reeltest/reeltest-api/internal/assessment"
	"github.com/reeltest/reeltest-api/internal/authz"
	"github.com/reeltest/reeltest-api/internal/models"
	"github.com/reeltest/reeltest-api/internal/notification"
	"github.com/reeltest/reeltest-api/internal/repository"
	"github.com/rs/zerolog"
)

type InvitationHandler struct {
	service  *assessment.Service
	testRepo repository.TestRepository
	userRepo repository.UserRepository
	mailer   notification.InvitationMailer
	urlTpl   string
	logger   zerolog.Logger
}

type batchInviteRequest struct {
	TestID   string     `json:"test_id"`
	Emails   []string   `json:"emails"`
	Message  string     `json:"message"`
	Deadline *time.Time `json:"deadline"`
}

type batchInviteResponse struct {
	Invited int                       `json:"invited"`
	Failed  int                       `json:"failed"`
	Results []assessment.BatchOutcome `json:"results"`
}

func NewInvitationHandler(
	service *assessment.Service,
	testRepo repository.TestRepository,
	userRepo repository.UserRepository,
	mailer notification.InvitationMailer,
	inviteURLTemplate string,
	logger zerolog.Logger,
) *InvitationHandler {
	if inviteURLTemplate == "" {
		inviteURLTemplate = "https://app.reeltest.dev/test/%s?token=%s"
	}
	return &InvitationHandler{
		service:  service,
		testRepo: testRepo,
		userRepo: userRepo,
		mailer:   mailer,
		urlTpl:   inviteURLTemplate,
		logger:   logger,
	}
}

// CreateInvitations invites a batch of candidates to a test. Each email is
// processed independently; email-delivery failures are reported per recipient
// and never fail the invitation itself.
func (h *InvitationHandler) CreateInvitations(w http.ResponseWriter, r *http.Request) {
	var payload batchInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if payload.TestID == "" || len(payload.Emails) == 0 {
		http.Error(w, "test_id and emails are required", http.StatusBadRequest)
		return
	}

	test, err := h.testRepo.GetTestByID(payload.TestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Test not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load test: "+err.Error(), http.StatusInternalServerError)
		return
	}

	sender := h.senderFromRequest(r)

	emails := make([]string, 0, len(payload.Emails))
	for _, email := range payload.Emails {
		emails = append(emails, strings.TrimSpace(strings.ToLower(email)))
	}

	outcomes := h.service.InviteBatch(payload.TestID, emails, payload.Deadline)

	invited, failed := 0, 0
	for i := range outcomes {
		if !outcomes[i].Success {
			failed++
			continue
		}
		invited++
		outcomes[i].EmailSent = h.deliverInvitation(test, sender, payload.Message, payload.Deadline, outcomes[i])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(batchInviteResponse{
		Invited: invited,
		Failed:  failed,
		Results: outcomes,
	})
}

func (h *InvitationHandler) deliverInvitation(test models.Test, sender models.User, message string, deadline *time.Time, outcome assessment.BatchOutcome) bool {
	if h.mailer == nil {
		return false
	}

	invitationURL := fmt.Sprintf(h.urlTpl, test.ID, outcome.Token)
	err := h.mailer.SendInvitation(notification.Invitation{
		RecipientEmail: outcome.Email,
		TestTitle:      test.Title,
		TestRole:       test.Role,
		TestDuration:   test.TotalTime,
		InvitationURL:  invitationURL,
		Message:        message,
		SenderName:     sender.FullName,
		CompanyName:    sender.CompanyName,
		Deadline:       deadline,
	})
	if err != nil {
		h.logger.Warn().Err(err).Str("email", outcome.Email).Msg("failed to send invitation email")
		return false
	}
	return true
}

func (h *InvitationHandler) senderFromRequest(r *http.Request) models.User {
	uid, ok := authz.UserIDFromRequest(r)
	if !ok {
		return models.User{}
	}
	user, err := h.userRepo.GetUserByID(uid)
	if err != nil {
		h.logger.Warn().Err(err).Str("user_id", uid).Msg("failed to load sender")
		return models.User{}
	}
	return user
}

// ListInvitations returns every invitation sent for one of the recruiter's
// tests, newest first.
func (h *InvitationHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
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

	invitations, err := h.service.ListInvitations(testID)
	if err != nil {
		http.Error(w, "Failed to list invitations: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invitations)
}

// ValidateInvitation returns the invitation bound to a token with its joined
// test, for the candidate landing page. Unknown tokens are a 404.
func (h *InvitationHandler) ValidateInvitation(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		http.Error(w, "Missing token parameter", http.StatusBadRequest)
		return
	}

	invitation, err := h.service.GetInvitationByToken(token)
	if err != nil {
		if errors.Is(err, assessment.ErrInvitationNotFound) {
			http.Error(w, assessment.ReasonInvalidToken, http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to validate invitation token", http.StatusInternalServerError)
		return
	}

	test, err := h.testRepo.GetTestByID(invitation.TestID)
	if err != nil {
		http.Error(w, "Failed to load test: "+err.Error(), http.StatusInternalServerError)
		return
	}

	response := struct {
		models.Invitation
		Test models.Test `json:"test"`
	}{Invitation: invitation, Test: test}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
