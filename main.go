package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/config"
	"github.com/pulseboard/engine/pkg/database"
	"github.com/pulseboard/engine/pkg/handlers"
	"github.com/pulseboard/engine/pkg/llm"
	"github.com/pulseboard/engine/pkg/metrics"
	"github.com/pulseboard/engine/pkg/middleware"
	"github.com/pulseboard/engine/pkg/repositories"
	"github.com/pulseboard/engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml", Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("addr", cfg.Addr()),
		zap.String("data_dir", cfg.DataDir),
		zap.Bool("classify_worker", cfg.ClassifyWorkerEnabled),
	)

	db, err := database.Open(cfg.DataDir)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	// Repositories
	companyRepo := repositories.NewCompanyRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	diaryRepo := repositories.NewDiaryRepository(db)
	draftRepo := repositories.NewDraftRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)

	// Services
	recorder := metrics.NewRecorder(nil)
	factory := llm.NewFactory(logger, recorder, cfg.LLMTimeout)
	settingsProvider := services.NewSettingsProvider(settingsRepo, cfg.SettingsCacheTTL)
	searchService := services.NewSearchService(diaryRepo, factory, settingsProvider, logger)
	classifier := services.NewClassifier(factory, settingsProvider, logger)
	router := services.NewQuickEntryService(memberRepo, companyRepo, diaryRepo, draftRepo, classifier, searchService, logger)
	generation := services.NewGenerationService(memberRepo, companyRepo, diaryRepo, factory, settingsProvider, logger)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewCompaniesHandler(companyRepo, logger).RegisterRoutes(mux)
	handlers.NewMembersHandler(memberRepo, logger).RegisterRoutes(mux)
	handlers.NewDiariesHandler(diaryRepo, memberRepo, searchService, logger).RegisterRoutes(mux)
	handlers.NewQuickHandler(router, logger).RegisterRoutes(mux)
	handlers.NewMentionsHandler(memberRepo, companyRepo, logger).RegisterRoutes(mux)
	handlers.NewGenerateHandler(generation, logger).RegisterRoutes(mux)
	handlers.NewSettingsHandler(settingsProvider, logger).RegisterRoutes(mux)
	handlers.NewStatusHandler(db, factory, settingsProvider, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := middleware.RequestLogger(logger)(middleware.Metrics(recorder)(mux))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var worker *services.ClassifyWorker
	if cfg.ClassifyWorkerEnabled {
		worker = services.NewClassifyWorker(draftRepo, router, cfg.ClassifyInterval, cfg.ClassifyDelay, logger)
		worker.Start(ctx)
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting pulseboard-engine", zap.String("addr", cfg.Addr()), zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	if worker != nil {
		worker.Wait()
	}
	logger.Info("Shutdown complete")
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
