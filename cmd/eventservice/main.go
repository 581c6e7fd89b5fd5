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
	"eventline/internal/adapters/gateway"
	delivery "eventline/internal/delivery/http"
	"eventline/internal/delivery/http/controllers"
	"eventline/internal/delivery/http/middleware"
	"eventline/internal/repository/postgres"
	"eventline/internal/services"
)

const serviceName = "event-service"

// @title Eventline Event Service API
// @version 1.0
// @description Event lifecycle and moderation endpoints.
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
	requestClient := gateway.NewRequestClient(cfg.RequestServiceURL, serviceName, cfg.GatewayTimeout, issuer, nil)
	statsClient := gateway.NewStatsClient(cfg.StatsServiceURL, serviceName, cfg.GatewayTimeout, issuer, nil)

	eventRepo := postgres.NewEventRepository(db)
	eventService := services.NewEventService(eventRepo, requestClient, statsClient, logger, cfg.GatewayTimeout)

	eventController := controllers.NewEventController(logger, eventService)
	adminController := controllers.NewAdminEventController(logger, eventService)
	internalController := controllers.NewInternalEventController(logger, eventService)

	mux := delivery.NewEventRouter(eventController, adminController, internalController, verifier, logger)
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
		logger.Info("event service listening", "port", cfg.Port, "env", cfg.Environment)
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
