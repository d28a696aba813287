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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/timmy/semindex/internal/api"
	"github.com/timmy/semindex/internal/api/handler"
	"github.com/timmy/semindex/internal/config"
	"github.com/timmy/semindex/internal/dataset"
	"github.com/timmy/semindex/internal/logger"
	"github.com/timmy/semindex/internal/repository"
	"github.com/timmy/semindex/internal/service"
)

func main() {
	appLogger := logger.NewFromEnv(logger.LoadFromEnvFor("semindex-api", "json"))
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	qdrantRepo, err := repository.NewQdrantRepository(&repository.QdrantConnectionConfig{
		Host:   cfg.Qdrant.Host,
		Port:   cfg.Qdrant.Port,
		APIKey: cfg.Qdrant.APIKey,
		UseTLS: cfg.Qdrant.UseTLS,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize Qdrant repository")
	}
	defer qdrantRepo.Close()

	registry := service.NewEmbeddingRegistry(cfg, nil)
	defer registry.Close()

	// Every configured dataset whose embedding profile is usable becomes searchable
	searchService := service.NewSearchService(cfg.Query.Dataset, cfg.Query.TopK)
	for _, name := range dataset.Names() {
		binding, err := registry.Bind(name)
		if err != nil {
			appLogger.WithError(err).WithField(logger.FieldPipeline, name).Warn("Dataset not searchable, skipping")
			continue
		}
		searchService.RegisterDataset(name, qdrantRepo.Index(binding.Config.Index, binding.Config.Hybrid), binding.Provider)
	}
	if len(searchService.GetAvailableDatasets()) == 0 {
		appLogger.Fatal("No searchable datasets configured")
	}

	var jobs handler.JobStore
	if cfg.Database.Enabled {
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize database")
		}
		jobs = repository.NewJobRepository(db)
	}

	router := api.SetupRouter(&api.RouterConfig{
		Mode:          cfg.Server.Mode,
		CORS:          cfg.Server.CORS,
		SearchService: searchService,
		Jobs:          jobs,
		Logger:        appLogger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           otelhttp.NewHandler(router, "semindex-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port":     cfg.Server.Port,
			"mode":     cfg.Server.Mode,
			"datasets": searchService.GetAvailableDatasets(),
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
