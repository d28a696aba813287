package service

import (
	"fmt"
	"io"
	"sync"

	"github.com/timmy/semindex/internal/config"
	"github.com/timmy/semindex/internal/dataset"
	"github.com/timmy/semindex/internal/logger"
)

// ProviderFactory builds an embedding provider for a resolved profile.
type ProviderFactory func(cfg *config.EmbeddingConfig) (EmbeddingProvider, error)

// DatasetBinding is everything a pipeline needs to work on one dataset.
type DatasetBinding struct {
	Name      string
	Dataset   dataset.Dataset
	Config    config.DatasetConfig
	Embedding *config.EmbeddingConfig
	Provider  EmbeddingProvider
}

// EmbeddingRegistry resolves datasets to their embedding profiles and
// lazily creates one provider per profile. Ingest and query share it so a
// dataset is always queried with the model that embedded it.
type EmbeddingRegistry struct {
	cfg       *config.Config
	factory   ProviderFactory
	providers map[string]EmbeddingProvider
	mu        sync.Mutex
}

// NewEmbeddingRegistry creates a registry over cfg. A nil factory uses
// NewEmbeddingProvider.
func NewEmbeddingRegistry(cfg *config.Config, factory ProviderFactory) *EmbeddingRegistry {
	if factory == nil {
		factory = NewEmbeddingProvider
	}
	return &EmbeddingRegistry{
		cfg:       cfg,
		factory:   factory,
		providers: make(map[string]EmbeddingProvider),
	}
}

// Provider returns the provider for the named embedding profile, creating
// it on first use.
func (r *EmbeddingRegistry) Provider(name string) (EmbeddingProvider, *config.EmbeddingConfig, error) {
	embCfg, err := r.cfg.Embedding(name)
	if err != nil {
		return nil, nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.providers[name]; ok {
		return p, embCfg, nil
	}

	p, err := r.factory(embCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("embedding %q: %w", name, err)
	}
	r.providers[name] = p

	logger.Debug("Registered embedding: name=%s, provider=%s, model=%s, dim=%d",
		embCfg.Name, embCfg.Provider, embCfg.Model, embCfg.Dimensions)
	return p, embCfg, nil
}

// Bind resolves a dataset name to its definition, configuration and
// embedding provider.
func (r *EmbeddingRegistry) Bind(name string) (*DatasetBinding, error) {
	ds, err := dataset.Lookup(name)
	if err != nil {
		return nil, err
	}
	dsCfg, err := r.cfg.Dataset(name)
	if err != nil {
		return nil, err
	}
	if dsCfg.Index == "" {
		return nil, fmt.Errorf("dataset %q: index name is required", name)
	}

	provider, embCfg, err := r.Provider(dsCfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}

	return &DatasetBinding{
		Name:      name,
		Dataset:   ds,
		Config:    dsCfg,
		Embedding: embCfg,
		Provider:  provider,
	}, nil
}

// Close releases providers that hold resources, such as local model
// sessions.
func (r *EmbeddingRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, p := range r.providers {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Warn("Error closing embedding provider: name=%s, error=%v", name, err)
			}
		}
	}
	r.providers = make(map[string]EmbeddingProvider)
}
