package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/reeltest/reeltest-api/internal/handlers"
)

// NewRouter sets up the API routes.
func NewRouter(
	auth *handlers.AuthHandler,
	invitations *handlers.InvitationHandler,
	tests *handlers.TestHandler,
	submissions *handlers.SubmissionHandler,
) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Public auth endpoints
	router.HandleFunc("/api/signup", auth.SignUp).Methods(http.MethodPost)
	router.HandleFunc("/api/login", auth.Login).Methods(http.MethodPost)

	// Candidate-facing endpoints (token-gated, no recruiter auth)
	router.HandleFunc("/api/invitations/validate", invitations.ValidateInvitation).Methods(http.MethodGet)
	router.HandleFunc("/api/tests/{testID}/validate-email", tests.ValidateEmail).Methods(http.MethodPost)
	router.HandleFunc("/api/tests/{testID}/sections", tests.ListSections).Methods(http.MethodGet)
	router.HandleFunc("/api/tests/{testID}", tests.GetTest).Methods(http.MethodGet)
	router.HandleFunc("/api/test-submissions", submissions.StartSubmission).Methods(http.MethodPost)
	router.HandleFunc("/api/test-submissions/{submissionID}", submissions.GetSubmission).Methods(http.MethodGet)
	router.HandleFunc("/api/test-submissions/{submissionID}/sections/{sectionID}/start", submissions.StartSection).Methods(http.MethodPost)
	router.HandleFunc("/api/test-submissions/{submissionID}/sections/{sectionID}/complete", submissions.CompleteSection).Methods(http.MethodPost)

	// Recruiter endpoints
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(auth.JWTMiddleware)
	protected.HandleFunc("/tests", tests.CreateTest).Methods(http.MethodPost)
	protected.HandleFunc("/tests", tests.ListTests).Methods(http.MethodGet)
	protected.HandleFunc("/tests/{testID}", tests.UpdateTest).Methods(http.MethodPut)
	protected.HandleFunc("/tests/{testID}", tests.DeleteTest).Methods(http.MethodDelete)
	protected.HandleFunc("/tests/{testID}/archive", tests.ArchiveTest).Methods(http.MethodPost)
	protected.HandleFunc("/tests/{testID}/candidates", tests.ListCandidates).Methods(http.MethodGet)
	protected.HandleFunc("/tests/{testID}/invitations", invitations.ListInvitations).Methods(http.MethodGet)
	protected.HandleFunc("/invitations", invitations.CreateInvitations).Methods(http.MethodPost)

	return router
}
