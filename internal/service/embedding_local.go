package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/timmy/semindex/internal/domain"
)

// LocalEmbeddingProvider runs a sentence-transformer model in process with
// the hugot pure-Go backend. The session is created on first use.
type LocalEmbeddingProvider struct {
	modelPath  string
	model      string
	dimensions int

	mu       sync.Mutex // the pipeline is not safe for concurrent use
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
}

// NewLocalEmbeddingProvider checks that modelPath holds an exported model
// (tokenizer.json present) and returns a provider for it.
func NewLocalEmbeddingProvider(modelPath, model string, dimensions int) (*LocalEmbeddingProvider, error) {
	if _, err := os.Stat(filepath.Join(modelPath, "tokenizer.json")); err != nil {
		return nil, fmt.Errorf("local model %s: no tokenizer.json in %s: %w", model, modelPath, err)
	}
	return &LocalEmbeddingProvider{
		modelPath:  modelPath,
		model:      model,
		dimensions: dimensions,
	}, nil
}

// GetModel returns the model name being used
func (p *LocalEmbeddingProvider) GetModel() string {
	return p.model
}

// Dimensions returns the dense vector size.
func (p *LocalEmbeddingProvider) Dimensions() int {
	return p.dimensions
}

func (p *LocalEmbeddingProvider) initialize() error {
	if p.pipeline != nil {
		return nil
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return fmt.Errorf("create hugot session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: p.modelPath,
		Name:      "semindex-embeddings",
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	})
	if err != nil {
		_ = session.Destroy()
		return fmt.Errorf("create feature extraction pipeline: %w", err)
	}

	p.session = session
	p.pipeline = pipeline
	return nil
}

// EmbedBatch generates normalized embeddings for texts.
func (p *LocalEmbeddingProvider) EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	if len(texts) == 0 {
		return []domain.Embedding{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.initialize(); err != nil {
		return nil, err
	}

	result, err := p.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("run embedding pipeline: %w", err)
	}
	if err := checkCount(len(result.Embeddings), len(texts)); err != nil {
		return nil, err
	}

	out := make([]domain.Embedding, len(result.Embeddings))
	for i, vec := range result.Embeddings {
		out[i] = domain.Embedding{Dense: vec}
	}
	return out, nil
}

// EmbedQuery embeds a single query.
func (p *LocalEmbeddingProvider) EmbedQuery(ctx context.Context, query string) (domain.Embedding, error) {
	out, err := p.EmbedBatch(ctx, []string{query})
	if err != nil {
		return domain.Embedding{}, err
	}
	return out[0], nil
}

// Close destroys the hugot session.
func (p *LocalEmbeddingProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil
	}
	err := p.session.Destroy()
	p.session = nil
	p.pipeline = nil
	return err
}
