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
	"github.com/timmy/semindex/internal/logger"
	"github.com/timmy/semindex/internal/repository"
	"github.com/timmy/semindex/internal/service"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath  string
		datasetName string
		topK        int
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Search an ingested dataset interactively",
		Long: `Read search text from standard input, embed it with the dataset's
embedding model and print the closest matches. Type 'exit' to quit.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(configPath, datasetName, topK, cmd.Flags().Changed("top-k"))
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().StringVar(&datasetName, "dataset", "", "Dataset to search (default from config, movies)")
	cmd.Flags().IntVar(&topK, "top-k", service.DefaultTopK, "Number of matches to show")
	return cmd
}

func run(configPath, datasetName string, topK int, topKSet bool) error {
	logCfg := logger.LoadFromEnvFor("semindex-query", "text")
	logCfg.Console = os.Stderr
	appLogger := logger.NewFromEnv(logCfg)
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if datasetName == "" {
		datasetName = cfg.Query.Dataset
	}
	if !topKSet && cfg.Query.TopK > 0 {
		topK = cfg.Query.TopK
	}

	registry := service.NewEmbeddingRegistry(cfg, nil)
	defer registry.Close()

	binding, err := registry.Bind(datasetName)
	if err != nil {
		return err
	}

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

	searchService := service.NewSearchService(datasetName, topK)
	searchService.RegisterDataset(datasetName, qdrantRepo.Index(binding.Config.Index, binding.Config.Hybrid), binding.Provider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger.WithFields(logger.Fields{
		logger.FieldPipeline: datasetName,
		logger.FieldIndex:    binding.Config.Index,
		"model":              binding.Provider.GetModel(),
	}).Debug("Query session started")

	err = service.NewQueryLoop(searchService, topK).Run(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
