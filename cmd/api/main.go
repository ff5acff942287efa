package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/psiclinic/platform/internal/api/router"
	"github.com/psiclinic/platform/internal/auth"
	"github.com/psiclinic/platform/internal/compliance"
	appconfig "github.com/psiclinic/platform/internal/config"
	"github.com/psiclinic/platform/internal/intake"
	"github.com/psiclinic/platform/internal/notes"
	"github.com/psiclinic/platform/internal/notifications"
	"github.com/psiclinic/platform/internal/observability/metrics"
	"github.com/psiclinic/platform/internal/patients"
	"github.com/psiclinic/platform/internal/reports"
	"github.com/psiclinic/platform/internal/scheduling"
	"github.com/psiclinic/platform/internal/sessions"
	"github.com/psiclinic/platform/internal/sessiontypes"
	"github.com/psiclinic/platform/pkg/logging"
)

// newSchedulingPolicy builds the clinic booking policy from configuration.
func newSchedulingPolicy(cfg *appconfig.Config) (scheduling.Policy, error) {
	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		return scheduling.Policy{}, fmt.Errorf("load timezone %q: %w", cfg.ClinicTimezone, err)
	}
	policy := scheduling.Policy{
		WindowDays:             cfg.SchedulingWindowDays,
		DayStartHour:           cfg.SchedulingDayStartHour,
		DayEndHour:             cfg.SchedulingDayEndHour,
		SlotGranularityMinutes: cfg.SchedulingSlotMinutes,
		IncludeWeekends:        cfg.SchedulingIncludeWeekends,
		Location:               loc,
	}
	if err := policy.Validate(); err != nil {
		return scheduling.Policy{}, err
	}
	return policy, nil
}

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting psiclinic API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx := context.Background()

	policy, err := newSchedulingPolicy(cfg)
	if err != nil {
		logger.Error("invalid scheduling configuration", "error", err)
		os.Exit(1)
	}

	// Repositories. Without a database the server runs against in-memory
	// stores, which is enough for local demos; clinical notes, audit and
	// reports need Postgres and stay disabled.
	var (
		userRepo         auth.Repository
		patientRepo      patients.Repository
		typeRepo         sessiontypes.Repository
		sessionRepo      sessions.Repository
		notificationRepo notifications.Repository
		notesRepo        *notes.Repository
		auditService     *compliance.AuditService
		statsRepo        *reports.StatsRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("failed to ping postgres", "error", err)
			os.Exit(1)
		}

		sqlDB, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open sql connection", "error", err)
			os.Exit(1)
		}
		defer func() { _ = sqlDB.Close() }()

		userRepo = auth.NewPostgresRepository(pool)
		patientRepo = patients.NewPostgresRepository(pool)
		typeRepo = sessiontypes.NewPostgresRepository(pool)
		sessionRepo = sessions.NewPostgresRepository(pool)
		notificationRepo = notifications.NewPostgresRepository(pool)
		notesRepo = notes.NewRepository(sqlDB)
		auditService = compliance.NewAuditService(sqlDB, logger)
		statsRepo = reports.NewStatsRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		userRepo = auth.NewInMemoryRepository()
		patientRepo = patients.NewInMemoryRepository()
		typeRepo = sessiontypes.NewInMemoryRepository()
		sessionRepo = sessions.NewInMemoryRepository()
		notificationRepo = notifications.NewInMemoryRepository()
	}

	// Auth
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenLifetime)
	authService := auth.NewService(userRepo, patientRepo, issuer, cfg.DefaultProfessionalID, logger)

	// Notifications
	var emailSender notifications.EmailSender
	if cfg.EmailNotifications && cfg.SendGridAPIKey != "" {
		emailSender = notifications.NewSendGridSender(notifications.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	} else {
		emailSender = notifications.NewStubEmailSender(logger)
	}
	resolver := notifications.NewDirectoryResolver(userRepo, patientRepo)
	notifier := notifications.NewService(notificationRepo, emailSender, resolver, logger)

	// Metrics
	schedulingMetrics := metrics.NewSchedulingMetrics(nil)
	bookingMetrics := metrics.NewBookingMetrics(nil)
	intakeMetrics := metrics.NewIntakeMetrics(nil)

	// Sessions
	sessionService := sessions.NewService(sessionRepo, typeRepo, notifier, policy, logger).
		WithMetrics(schedulingMetrics, bookingMetrics)

	// Intake chatbot; requires both Gemini and Redis. The Gemini client also
	// backs the clinical note summaries.
	var (
		llmClient     intake.LLMClient
		intakeService *intake.Service
		intakeHandler *intake.Handler
	)
	if cfg.GeminiAPIKey != "" {
		llm, err := intake.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		defer func() { _ = llm.Close() }()
		llmClient = llm

		redisOpts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to ping redis", "error", err)
			os.Exit(1)
		}
		store := intake.NewTranscriptStore(redisClient, cfg.TranscriptTTL)

		intakeService = intake.NewService(llm, store, patientRepo, notifier, cfg.IntakeMaxTurns, logger).
			WithMetrics(intakeMetrics)
		intakeHandler = intake.NewHandler(intakeService, patientRepo, logger)
	} else {
		logger.Warn("GEMINI_API_KEY not set, intake chatbot disabled")
	}

	routerCfg := &router.Config{
		Logger:               logger,
		TokenIssuer:          issuer,
		AuthHandler:          auth.NewHandler(authService, logger),
		PatientsHandler:      patients.NewHandler(patientRepo, authService, logger).WithNotifier(notifier).WithEraser(sessionService),
		SessionTypesHandler:  sessiontypes.NewHandler(typeRepo, logger),
		SessionsHandler:      sessions.NewHandler(sessionService, logger),
		NotificationsHandler: notifications.NewHandler(notifier, logger),
		IntakeHandler:        intakeHandler,
		MetricsHandler:       promhttp.Handler(),
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		IntakeRateLimit:      cfg.IntakeRateLimit,
		IntakeRateBurst:      cfg.IntakeRateBurst,
		AuthRateLimit:        cfg.AuthRateLimit,
		AuthRateBurst:        cfg.AuthRateBurst,
	}
	if intakeService != nil {
		routerCfg.PatientsHandler.WithEraser(intakeService)
	}
	if notesRepo != nil && auditService != nil {
		routerCfg.NotesHandler = notes.NewHandler(notesRepo, patientRepo, auditService, logger)
		if llmClient != nil {
			routerCfg.NotesHandler.WithSummarizer(notes.NewSummarizer(llmClient, logger))
		}
		routerCfg.AuditHandler = compliance.NewHandler(auditService, patientRepo, logger)
		routerCfg.PatientsHandler.WithAuditor(auditService)
		if intakeHandler != nil {
			intakeHandler.WithAuditor(auditService)
		}
	}
	if statsRepo != nil {
		routerCfg.ReportsHandler = reports.NewHandler(statsRepo, prometheus.DefaultGatherer, logger)
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
