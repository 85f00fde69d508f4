package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatherpass/config"
	"gatherpass/internal/adapters/auth"
	"gatherpass/internal/adapters/email"
	"gatherpass/internal/adapters/qr"
	delivery "gatherpass/internal/delivery/http"
	"gatherpass/internal/delivery/http/controllers"
	"gatherpass/internal/delivery/http/middleware"
	"gatherpass/internal/repository/postgres"
	"gatherpass/internal/services"
)

// @title           gatherpass API
// @version         1.0
// @description     Attendee import, credential issuance, rate-paced email dispatch and check-in for community events.
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	conf, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger()

	ctx := context.Background()
	db, err := postgres.Open(ctx, conf.DBUrl)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	// Repositories
	eventRepo := postgres.NewEventRepository(db)
	personRepo := postgres.NewPersonRepository(db)
	attendeeRepo := postgres.NewAttendeeRepository(db)
	operatorRepo := postgres.NewOperatorRepository(db)
	stateRepo := postgres.NewOperatorStateRepository(db)

	// Adapters
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    conf.MailerProvider,
		FromAddress: conf.MailFromAddress,
		FromName:    conf.MailFromName,
		SES: email.SESConfig{
			Region:             conf.SESRegion,
			AccessKeyID:        conf.SESAccessKeyID,
			SecretAccessKey:    conf.SESSecretAccessKey,
			InsecureSkipVerify: conf.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("create mailer: %w", err)
	}
	renderer := email.NewTemplateRenderer()
	qrRenderer := qr.NewRenderer()
	hasher := auth.NewBcryptHasher(12)
	issuer := auth.NewJWTIssuer(conf.JWTSecret)
	verifier := auth.NewJWTVerifier(conf.JWTSecret)

	// Services
	authService := services.NewAuthService(operatorRepo, hasher, issuer)
	eventService := services.NewEventService(eventRepo)
	credentialService := services.NewCredentialService(attendeeRepo, qrRenderer)
	importService := services.NewImportService(eventRepo, personRepo, attendeeRepo, credentialService, logger)
	emailService := services.NewEmailService(mailer, renderer)
	dispatchService := services.NewDispatchService(eventRepo, attendeeRepo, credentialService, emailService, conf.DispatchSendDelay, logger)
	checkInService := services.NewCheckInService(attendeeRepo, logger)

	// Controllers
	mux := delivery.NewRouter(
		verifier,
		controllers.NewAuthController(logger, authService),
		controllers.NewEventController(logger, eventService, stateRepo),
		controllers.NewAttendeeController(logger, importService, credentialService, attendeeRepo),
		controllers.NewDispatchController(logger, dispatchService),
		controllers.NewCheckInController(logger, checkInService),
	)

	handler := middleware.CORS(conf.AllowedCORSDomains, middleware.LoggingMiddleware(logger, mux))
	server := &http.Server{
		Addr:              ":" + conf.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", conf.Port, "env", conf.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
