package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/timmy/semindex/internal/config"
	"github.com/timmy/semindex/internal/dataset"
	"github.com/timmy/semindex/internal/logger"
	"github.com/timmy/semindex/internal/repository"
	"github.com/timmy/semindex/internal/service"
	"github.com/timmy/semindex/internal/source/csvfile"
	"github.com/timmy/semindex/internal/storage"
)

type ingestFlags struct {
	configPath  string
	input       string
	mode        string
	onExhausted string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var flags ingestFlags

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed a CSV dataset and load it into its vector index",
		Long: `Embed every row of a CSV dataset and upsert the vectors into the
dataset's index.

By default the index is deleted and recreated (--mode rebuild) and the
operator is asked whether to keep partial results when embedding retries
run out (--on-exhausted prompt).`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to config file")
	cmd.PersistentFlags().StringVar(&flags.input, "input", "", "CSV path or s3://bucket/key (overrides the dataset's input)")
	cmd.PersistentFlags().StringVar(&flags.mode, "mode", "", "Index mode: rebuild or incremental")
	cmd.PersistentFlags().StringVar(&flags.onExhausted, "on-exhausted", "", "When retries run out: prompt, continue or abort")

	for _, name := range dataset.Names() {
		cmd.AddCommand(datasetCmd(name, &flags))
	}
	return cmd
}

func datasetCmd(name string, flags *ingestFlags) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Ingest the %s dataset", name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(name, flags)
		},
	}
}

func run(name string, flags *ingestFlags) error {
	logCfg := logger.LoadFromEnvFor("semindex-ingest", "text")
	logCfg.Console = os.Stderr
	appLogger := logger.NewFromEnv(logCfg)
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.mode != "" {
		cfg.Ingest.Mode = flags.mode
	}
	if flags.onExhausted != "" {
		cfg.Ingest.OnExhausted = flags.onExhausted
	}

	mode, err := repository.ParseIndexMode(cfg.Ingest.Mode)
	if err != nil {
		return err
	}
	policy, err := service.ParseContinuationPolicy(cfg.Ingest.OnExhausted)
	if err != nil {
		return err
	}

	registry := service.NewEmbeddingRegistry(cfg, nil)
	defer registry.Close()

	binding, err := registry.Bind(name)
	if err != nil {
		return err
	}

	input := binding.Config.Input
	if flags.input != "" {
		input = flags.input
	}
	if input == "" {
		return fmt.Errorf("dataset %q has no input configured; pass --input", name)
	}

	appLogger.WithFields(logger.Fields{
		logger.FieldPipeline: name,
		logger.FieldIndex:    binding.Config.Index,
		"input":              input,
		"mode":               mode,
		"model":              binding.Provider.GetModel(),
	}).Info("Starting ingestion")

	var objects storage.BucketSelector
	if storage.IsObjectURI(input) {
		s3Storage, err := storage.NewStorage(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		objects = s3Storage
	}

	var opts csvfile.Options
	if binding.Dataset.NormalizeColumns() {
		opts.NormalizeColumn = dataset.NormalizeColumn
	}
	src := csvfile.NewAdapter(input, objects, opts)

	qdrantRepo, err := repository.NewQdrantRepository(&repository.QdrantConnectionConfig{
		Host:   cfg.Qdrant.Host,
		Port:   cfg.Qdrant.Port,
		APIKey: cfg.Qdrant.APIKey,
		UseTLS: cfg.Qdrant.UseTLS,
	})
	if err != nil {
		return err
	}
	defer qdrantRepo.Close()

	var jobs service.JobRecorder
	if cfg.Database.Enabled {
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			return err
		}
		jobs = repository.NewJobRepository(db)
	}

	ingestService := service.NewIngestService(
		service.QdrantIndexes(qdrantRepo),
		jobs,
		service.NewPromptConfirmer(os.Stdin, os.Stdout),
		service.IngestConfig{
			MaxRetries:      cfg.Ingest.MaxRetries,
			BaseDelay:       cfg.Ingest.BaseDelay,
			BatchDelay:      cfg.Ingest.BatchDelay,
			UpsertBatchSize: cfg.Ingest.UpsertBatchSize,
			UpsertRate:      cfg.Ingest.UpsertRate,
			Policy:          policy,
			Mode:            mode,
		},
	)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	placement := binding.Config.Placement
	stats, err := ingestService.Run(ctx, service.IngestRequest{
		Dataset:  binding.Dataset,
		Source:   src,
		Provider: binding.Provider,
		Index:    binding.Config.Index,
		Spec: repository.IndexSpec{
			Dimension: uint64(binding.Embedding.Dimensions),
			Metric:    binding.Config.Metric,
			Hybrid:    binding.Config.Hybrid,
			Placement: repository.Placement{
				ShardNumber:       placement.ShardNumber,
				ReplicationFactor: placement.ReplicationFactor,
				OnDisk:            placement.OnDisk,
			},
		},
		BatchSize: binding.Config.BatchSize,
	})
	if err != nil {
		if errors.Is(err, service.ErrAborted) {
			appLogger.WithError(err).Warn("Ingestion aborted")
		}
		return err
	}

	appLogger.WithFields(logger.Fields{
		"records":        stats.Records,
		"embedded":       stats.Embedded,
		"upserted":       stats.Upserted,
		"dropped":        stats.Dropped,
		"embed_calls":    stats.EmbedCalls,
		"upsert_batches": stats.UpsertBatches,
	}).WithField(logger.FieldDurationMs, stats.EndTime.Sub(stats.StartTime).Milliseconds()).Info("Ingestion completed")
	return nil
}
