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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/config"
	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/database"
	"github.com/xavierca1/ligue-leads/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/infra/mail"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/infra/storage"
	"github.com/xavierca1/ligue-leads/internal/observability"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = database.Migrate(ctx, db)
	cancel()
	if err != nil {
		return err
	}

	// RabbitMQ is optional; without it lead.created events are skipped.
	var amqpConn *amqp.Connection
	var producer usecase.LeadEventPublisher
	if cfg.RabbitMQURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()
		amqpConn = rabbitMQ.Conn
		producer = queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)
	} else {
		logger.Warn("RABBITMQ_URL not set, lead events disabled")
	}

	// 1. Infra adapters
	leadRepo := database.NewLeadRepository(db)

	resumeStore, err := storage.NewResumeStore(cfg.UploadDir, cfg.MaxFileSize)
	if err != nil {
		return err
	}

	mailSender, err := mail.NewEmailSender(mail.Config{
		Host:           cfg.SMTPHost,
		Port:           cfg.SMTPPort,
		User:           cfg.SMTPUser,
		Password:       cfg.SMTPPass,
		FromEmail:      cfg.FromEmail,
		FromName:       cfg.FromName,
		TeamEmail:      cfg.TeamEmail,
		DashboardURL:   cfg.DashboardURL,
		MaxRetries:     cfg.MailRetries,
		RetryBaseDelay: cfg.MailRetryBaseDelay(),
	}, logger)
	if err != nil {
		return err
	}

	// 2. UseCases
	createLeadUC := usecase.NewCreateLeadUseCase(leadRepo, resumeStore, mailSender, producer, logger)
	leadService := usecase.NewLeadService(
		leadRepo,
		resumeStore,
		entity.StatusPolicy{AllowReopen: cfg.AllowStatusReopen},
		logger,
	)

	// 3. Handlers
	leadHandler := handlers.NewLeadHandler(createLeadUC, leadService, cfg.MaxFileSize, logger)
	healthHandler := handlers.NewHealthHandler(db, amqpConn, cfg.SMTPHost, logger)

	// 4. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOriginList(),
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Post("/leads", leadHandler.Submit)
	r.Get("/leads", leadHandler.List)
	r.Get("/leads/counts", leadHandler.Counts)
	r.Get("/leads/{leadId}", leadHandler.Get)
	r.Patch("/leads/{leadId}/status", leadHandler.UpdateStatus)
	r.Delete("/leads/{leadId}", leadHandler.Delete)
	r.Get("/leads/{leadId}/resume", leadHandler.DownloadResume)
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.APIPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("lead intake api listening", zap.Int("port", cfg.APIPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}
