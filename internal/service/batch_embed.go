package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/semindex/internal/domain"
	"github.com/timmy/semindex/internal/logger"
)

// EmbedStatus is the outcome of a batched embedding run.
type EmbedStatus string

const (
	// EmbedComplete means every text has an embedding.
	EmbedComplete EmbedStatus = "complete"
	// EmbedPartial means a batch exhausted its retries; embeddings cover a
	// prefix of the input and Missing names the rest.
	EmbedPartial EmbedStatus = "partial"
	// EmbedAborted means the run was cancelled.
	EmbedAborted EmbedStatus = "aborted"
)

// Span is a half-open range [Start, End) of input positions.
type Span struct {
	Start int
	End   int
}

// Len returns the number of positions in the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// EmbedResult is returned by BatchEmbedder.Embed instead of prompting or
// exiting, so the caller chooses how to continue.
type EmbedResult struct {
	Status     EmbedStatus
	Embeddings []domain.Embedding // in input order, covering [0, len(Embeddings))
	Missing    Span               // empty when complete
	Total      int
	Batches    int // batches attempted
	Calls      int // provider calls made
	Err        error
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BatchEmbedderConfig controls batching, retry and throttling.
type BatchEmbedderConfig struct {
	BatchSize  int
	MaxRetries int           // retries after the first attempt of a batch
	BaseDelay  time.Duration // retry r waits BaseDelay * 2^r
	BatchDelay time.Duration // pause between successful batches
	Sleep      Sleeper
}

// BatchEmbedder embeds texts batch by batch with bounded retry.
type BatchEmbedder struct {
	provider EmbeddingProvider
	cfg      BatchEmbedderConfig
}

// NewBatchEmbedder creates a BatchEmbedder. A zero batch size embeds
// everything in one batch.
func NewBatchEmbedder(provider EmbeddingProvider, cfg BatchEmbedderConfig) *BatchEmbedder {
	if cfg.Sleep == nil {
		cfg.Sleep = SleepContext
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &BatchEmbedder{provider: provider, cfg: cfg}
}

// Batches partitions n items into ceil(n/size) spans. Every span has size
// items except possibly the last.
func Batches(n, size int) []Span {
	if n <= 0 {
		return nil
	}
	if size <= 0 || size > n {
		size = n
	}
	spans := make([]Span, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		spans = append(spans, Span{Start: start, End: end})
	}
	return spans
}

// RetryDelay returns the wait before retry number retry (1-based).
func RetryDelay(base time.Duration, retry int) time.Duration {
	return base * time.Duration(1<<uint(retry))
}

// Embed runs every batch in order. A batch that still fails after
// MaxRetries retries ends the run with EmbedPartial and no further calls.
func (b *BatchEmbedder) Embed(ctx context.Context, texts []string) EmbedResult {
	spans := Batches(len(texts), b.cfg.BatchSize)
	res := EmbedResult{
		Status:     EmbedComplete,
		Embeddings: make([]domain.Embedding, 0, len(texts)),
		Total:      len(texts),
	}

	for i, span := range spans {
		res.Batches++
		batchCtx := logger.WithField(ctx, logger.FieldBatch, i+1)
		logger.CtxInfo(batchCtx, "Processing batch %d/%d", i+1, len(spans))

		vectors, err := b.embedWithRetry(batchCtx, texts[span.Start:span.End], &res.Calls)
		if err != nil {
			res.Missing = Span{Start: span.Start, End: len(texts)}
			res.Err = err
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				res.Status = EmbedAborted
			} else {
				res.Status = EmbedPartial
			}
			return res
		}
		res.Embeddings = append(res.Embeddings, vectors...)

		if i < len(spans)-1 && b.cfg.BatchDelay > 0 {
			logger.CtxDebug(batchCtx, "Waiting %s before next batch", b.cfg.BatchDelay)
			if err := b.cfg.Sleep(ctx, b.cfg.BatchDelay); err != nil {
				res.Status = EmbedAborted
				res.Missing = Span{Start: span.End, End: len(texts)}
				res.Err = err
				return res
			}
		}
	}
	return res
}

func (b *BatchEmbedder) embedWithRetry(ctx context.Context, batch []string, calls *int) ([]domain.Embedding, error) {
	var lastErr error
	for attempt := 0; attempt <= b.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := RetryDelay(b.cfg.BaseDelay, attempt)
			logger.With(logger.Fields{logger.FieldAttempt: attempt}).Warn(ctx, "Retrying in %s: %v", wait, lastErr)
			if err := b.cfg.Sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		*calls++
		vectors, err := b.provider.EmbedBatch(ctx, batch)
		if err == nil {
			err = checkCount(len(vectors), len(batch))
		}
		if err == nil {
			return vectors, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err
		logger.CtxWarn(ctx, "Embedding batch failed (attempt %d/%d): %v", attempt+1, b.cfg.MaxRetries+1, err)
	}
	return nil, fmt.Errorf("embedding batch failed after %d attempts: %w", b.cfg.MaxRetries+1, lastErr)
}
