package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"eventline/config"
	_ "eventline/docs"
	"eventline/internal/adapters/auth"
	"eventline/internal/adapters/email"
	"eventline/internal/adapters/gateway"
	delivery "eventline/internal/delivery/http"
	"eventline/internal/delivery/http/controllers"
	"eventline/internal/delivery/http/middleware"
	"eventline/internal/repository/postgres"
	"eventline/internal/services"
)

const serviceName = "request-service"

// @title Eventline Request Service API
// @version 1.0
// @description Participation request and admission endpoints.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Environment, serviceName)

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}

	issuer, verifier := auth.NewJWTTokens(cfg.InternalJWTSecret)
	eventClient := gateway.NewEventClient(cfg.EventServiceURL, serviceName, cfg.GatewayTimeout, issuer, nil)
	userClient := gateway.NewUserClient(cfg.UserServiceURL, serviceName, cfg.GatewayTimeout, issuer, nil)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.MailerProvider,
		FromAddress: cfg.MailerFromAddress,
		FromName:    cfg.MailerFromName,
		SES: email.SESConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		},
	}, logger)
	if err != nil {
		logger.Error("configure mailer", "err", err)
		os.Exit(1)
	}

	requestRepo := postgres.NewRequestRepository(db)
	notifier := services.NewNotificationService(userClient, eventClient, mailer, logger)
	admissionService := services.NewAdmissionService(requestRepo, eventClient, notifier, logger, cfg.GatewayTimeout)

	requestController := controllers.NewRequestController(logger, admissionService)
	internalController := controllers.NewInternalRequestController(logger, admissionService)

	mux := delivery.NewRequestRouter(requestController, internalController, verifier, logger)
	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.AllowedOrigins, mux))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("request service listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
