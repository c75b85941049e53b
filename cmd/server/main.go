package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/upsc-portal-gateway/internal/affairs"
	"github.com/upsc-portal-gateway/internal/api"
	"github.com/upsc-portal-gateway/internal/checkout"
	"github.com/upsc-portal-gateway/internal/config"
	"github.com/upsc-portal-gateway/internal/database"
	"github.com/upsc-portal-gateway/internal/events"
	"github.com/upsc-portal-gateway/internal/store"
	"github.com/upsc-portal-gateway/internal/upstream"
	"github.com/upsc-portal-gateway/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New()
	log.Info().Msg("Starting UPSC portal gateway...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "./migrations"
	}
	if err := db.RunMigrations(migrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Session audit store
	sessions := store.New(db)

	// Optional payment event publishing
	publisher, err := events.NewPublisher(cfg.NATS.URL, cfg.NATS.Subject, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	if publisher != nil {
		defer publisher.Close()
		log.Info().Str("subject", cfg.NATS.Subject).Msg("Payment event publishing enabled")
	}

	// Coaching backend client
	auth := &upstream.StaticAuth{APIToken: cfg.Upstream.APIToken}
	backend := upstream.New(cfg.Upstream.BaseURL, auth, cfg.Upstream.Timeout, cfg.Upstream.VerifyTimeout, log)

	// Current-affairs controllers
	listController := affairs.NewListController(backend, cfg.Affairs.NoticeTTL, log)
	detailController := affairs.NewDetailController(backend, cfg.Affairs.PageSize, log)

	// Checkout flow
	gateway := checkout.NewGateway(cfg.Razorpay, log)
	checkoutSvc := checkout.NewService(backend, gateway, sessions, publisher, log)
	receipts := checkout.NewReceiptRenderer(cfg.Razorpay.BrandName, cfg.Affairs.DisplayTimezone)

	// Initialize router
	affairsHandler := api.NewAffairsHandler(listController, detailController, cfg.Affairs.PageSize, log)
	checkoutHandler := api.NewCheckoutHandler(checkoutSvc, receipts, log)
	router := api.NewRouter(affairsHandler, checkoutHandler, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
