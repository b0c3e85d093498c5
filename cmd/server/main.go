package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/pressly/goose/v3"
	"github.com/reeltest/reeltest-api/internal/assessment"
	"github.com/reeltest/reeltest-api/internal/config"
	"github.com/reeltest/reeltest-api/internal/handlers"
	"github.com/reeltest/reeltest-api/internal/middleware"
	"github.com/reeltest/reeltest-api/internal/migration"
	"github.com/reeltest/reeltest-api/internal/notification"
	"github.com/reeltest/reeltest-api/internal/repository"
	"github.com/reeltest/reeltest-api/internal/routes"
	"github.com/rs/zerolog"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config *config.Config
	db     *sql.DB
	logger zerolog.Logger
	mailer notification.InvitationMailer
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	gooseAdapter := migration.NewGooseAdapter(logger)
	goose.SetLogger(gooseAdapter)

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	// Mailer for invitations.
	mailer, err := notification.NewSMTPInvitationMailer(cfg.Email)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure invitation mailer")
	}

	// Create the application instance.
	app := &application{
		config: cfg,
		db:     db,
		logger: logger,
		mailer: mailer,
	}

	// Initialize the HTTP router and middleware.
	router := app.initRouter(logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{"http://localhost:3000"}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, logger)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(logger zerolog.Logger) http.Handler {
	// Repositories
	userRepo := repository.NewUserRepository(app.db)
	candidateRepo := repository.NewCandidateRepository(app.db)
	testRepo := repository.NewTestRepository(app.db)
	invitationRepo := repository.NewInvitationRepository(app.db)
	submissionRepo := repository.NewSubmissionRepository(app.db)

	// Core assessment service
	service := assessment.NewService(testRepo, candidateRepo, invitationRepo, submissionRepo, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, app.config.JWTSecret, logger)
	invitationHandler := handlers.NewInvitationHandler(service, testRepo, userRepo, app.mailer, app.config.Email.InviteURLTemplate, logger)
	testHandler := handlers.NewTestHandler(service, testRepo, submissionRepo, logger)
	submissionHandler := handlers.NewSubmissionHandler(service, logger)

	return routes.NewRouter(authHandler, invitationHandler, testHandler, submissionHandler)
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}
}
