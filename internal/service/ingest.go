package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/timmy/semindex/internal/dataset"
	"github.com/timmy/semindex/internal/domain"
	"github.com/timmy/semindex/internal/logger"
	"github.com/timmy/semindex/internal/repository"
	"github.com/timmy/semindex/internal/source"
)

const (
	defaultUpsertBatchSize = 100
	sourcePageSize         = 1000
)

// JobRecorder persists ingest run results. *repository.JobRepository
// implements it.
type JobRecorder interface {
	Start(ctx context.Context, job *domain.IngestJob) error
	Finish(ctx context.Context, job *domain.IngestJob) error
}

// IngestConfig holds configuration for the ingest service
type IngestConfig struct {
	MaxRetries      int
	BaseDelay       time.Duration
	BatchDelay      time.Duration
	UpsertBatchSize int
	UpsertRate      float64 // upsert batches per second, 0 = unlimited
	Policy          ContinuationPolicy
	Mode            repository.IndexMode
	Sleep           Sleeper
}

// IngestRequest names what one run ingests and where it goes.
type IngestRequest struct {
	Dataset   dataset.Dataset
	Source    source.Source
	Provider  EmbeddingProvider
	Index     string
	Spec      repository.IndexSpec // Dimension defaults to the provider's
	BatchSize int                  // embedding batch size
}

// IngestStats holds statistics for an ingestion run
type IngestStats struct {
	JobID         string
	Dataset       string
	Index         string
	Records       int
	Embedded      int
	Upserted      int
	Dropped       int
	EmbedBatches  int
	EmbedCalls    int
	UpsertBatches int
	Outcome       EmbedStatus
	StartTime     time.Time
	EndTime       time.Time
}

// IngestService runs the load, embed, index and upsert pipeline.
type IngestService struct {
	indexes   IndexStore
	jobs      JobRecorder
	confirmer Confirmer
	cfg       IngestConfig
}

// NewIngestService creates a new ingest service. jobs and confirmer may be
// nil; without a confirmer the prompt policy aborts on partial results.
func NewIngestService(indexes IndexStore, jobs JobRecorder, confirmer Confirmer, cfg IngestConfig) *IngestService {
	if cfg.UpsertBatchSize <= 0 {
		cfg.UpsertBatchSize = defaultUpsertBatchSize
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyPrompt
	}
	if cfg.Mode == "" {
		cfg.Mode = repository.ModeRebuild
	}
	return &IngestService{
		indexes:   indexes,
		jobs:      jobs,
		confirmer: confirmer,
		cfg:       cfg,
	}
}

// Run ingests req end to end. Index and upsert failures are returned as is
// with no retry and no cleanup of points already written.
func (s *IngestService) Run(ctx context.Context, req IngestRequest) (*IngestStats, error) {
	stats := &IngestStats{
		Dataset:   req.Dataset.Name(),
		Index:     req.Index,
		StartTime: time.Now(),
	}

	ctx = logger.SetPipeline(ctx, req.Dataset.Name())
	ctx = logger.WithField(ctx, logger.FieldIndex, req.Index)

	job := &domain.IngestJob{
		Dataset:        req.Dataset.Name(),
		IndexName:      req.Index,
		Mode:           string(s.cfg.Mode),
		EmbeddingModel: req.Provider.GetModel(),
	}
	if s.jobs != nil {
		if err := s.jobs.Start(ctx, job); err != nil {
			logger.CtxWarn(ctx, "Failed to record ingest job: %v", err)
		} else {
			stats.JobID = job.ID
			ctx = logger.SetJobID(ctx, job.ID)
		}
	}

	err := s.run(ctx, req, stats)
	stats.EndTime = time.Now()
	s.finishJob(ctx, job, stats, err)

	if err != nil {
		return stats, err
	}

	logger.With(logger.Fields{
		logger.FieldCount:      stats.Upserted,
		logger.FieldDurationMs: stats.EndTime.Sub(stats.StartTime).Milliseconds(),
		logger.FieldStatus:     stats.Outcome,
	}).Info(ctx, "All vectors upserted to index '%s' (%d records, %d dropped)", req.Index, stats.Records, stats.Dropped)
	return stats, nil
}

func (s *IngestService) run(ctx context.Context, req IngestRequest, stats *IngestStats) error {
	records, err := source.FetchAll(ctx, req.Source, sourcePageSize)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", req.Source.GetDisplayName(), err)
	}
	stats.Records = len(records)
	logger.CtxInfo(ctx, "Loaded %d records from %s", len(records), req.Source.GetDisplayName())

	sentences := dataset.Sentences(req.Dataset, records)

	embedder := NewBatchEmbedder(req.Provider, BatchEmbedderConfig{
		BatchSize:  req.BatchSize,
		MaxRetries: s.cfg.MaxRetries,
		BaseDelay:  s.cfg.BaseDelay,
		BatchDelay: s.cfg.BatchDelay,
		Sleep:      s.cfg.Sleep,
	})
	result := embedder.Embed(ctx, sentences)
	stats.Outcome = result.Status
	stats.Embedded = len(result.Embeddings)
	stats.EmbedBatches = result.Batches
	stats.EmbedCalls = result.Calls

	if err := Decide(ctx, result, s.cfg.Policy, s.confirmer); err != nil {
		stats.Outcome = EmbedAborted
		return err
	}

	pairing, err := Pair(req.Dataset, records, result.Embeddings, result.Status)
	if err != nil {
		return err
	}
	stats.Dropped = pairing.Dropped
	if pairing.Dropped > 0 {
		logger.CtxWarn(ctx, "Continuing with partial embeddings: %d of %d records dropped (rows %d-%d)",
			pairing.Dropped, len(records), result.Missing.Start, result.Missing.End-1)
	}

	spec := req.Spec
	if spec.Dimension == 0 {
		spec.Dimension = uint64(req.Provider.Dimensions())
	}
	if err := s.indexes.PrepareIndex(ctx, req.Index, spec, s.cfg.Mode); err != nil {
		return err
	}

	return s.upsert(ctx, s.indexes.OpenIndex(req.Index, spec.Hybrid), pairing.Entries, stats)
}

func (s *IngestService) upsert(ctx context.Context, index VectorIndex, entries []domain.VectorEntry, stats *IngestStats) error {
	var limiter *rate.Limiter
	if s.cfg.UpsertRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.UpsertRate), 1)
	}

	for _, span := range Batches(len(entries), s.cfg.UpsertBatchSize) {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		start := time.Now()
		if err := index.UpsertBatch(ctx, entries[span.Start:span.End]); err != nil {
			return err
		}
		stats.UpsertBatches++
		stats.Upserted += span.Len()
		logger.With(logger.Fields{
			logger.FieldBatch: stats.UpsertBatches,
			logger.FieldCount: span.Len(),
		}).WithDuration(time.Since(start).Milliseconds()).Info(ctx, "Upserted batch")
	}
	return nil
}

func (s *IngestService) finishJob(ctx context.Context, job *domain.IngestJob, stats *IngestStats, runErr error) {
	if s.jobs == nil || job.ID == "" {
		return
	}

	job.TotalRecords = stats.Records
	job.EmbeddedRecords = stats.Embedded
	job.UpsertedRecords = stats.Upserted
	job.DroppedRecords = stats.Dropped

	switch {
	case stats.Outcome == EmbedAborted:
		job.Status = domain.JobStatusAborted
	case runErr != nil:
		job.Status = domain.JobStatusFailed
	case stats.Outcome == EmbedPartial:
		job.Status = domain.JobStatusPartial
	default:
		job.Status = domain.JobStatusCompleted
	}
	if runErr != nil {
		job.ErrorLog = runErr.Error()
	}

	// Recorded even when ctx is cancelled.
	if err := s.jobs.Finish(context.WithoutCancel(ctx), job); err != nil {
		logger.CtxWarn(ctx, "Failed to record ingest job result: %v", err)
	}
}
