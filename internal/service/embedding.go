package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/timmy/semindex/internal/config"
	"github.com/timmy/semindex/internal/domain"
)

const defaultEmbeddingTimeout = 60 * time.Second

// errEmbeddingCount is returned when a provider answers with a different
// number of vectors than texts sent.
var errEmbeddingCount = errors.New("embedding count mismatch")

// EmbeddingProvider turns text into vectors.
type EmbeddingProvider interface {
	// EmbedBatch embeds texts in one call, returning vectors in input order.
	EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error)

	// EmbedQuery embeds a single search query.
	EmbedQuery(ctx context.Context, query string) (domain.Embedding, error)

	// GetModel returns the model name being used.
	GetModel() string

	// Dimensions returns the dense vector size.
	Dimensions() int
}

// NewEmbeddingProvider builds the provider selected by cfg.Provider.
// The config must already have its env references resolved.
func NewEmbeddingProvider(cfg *config.EmbeddingConfig) (EmbeddingProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case "local":
		return NewLocalEmbeddingProvider(cfg.ModelPath, cfg.Model, cfg.Dimensions)
	case "openai":
		return NewOpenAIEmbeddingProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Dimensions), nil
	case "jina":
		return NewHTTPEmbeddingProvider(&HTTPEmbeddingConfig{
			Flavor:     FlavorJina,
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil
	case "openai-compatible":
		return NewHTTPEmbeddingProvider(&HTTPEmbeddingConfig{
			Flavor:     FlavorOpenAICompatible,
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.Provider)
	}
}

// instrumentedTransport wraps the default transport with OpenTelemetry spans.
func instrumentedTransport() http.RoundTripper {
	return otelhttp.NewTransport(http.DefaultTransport)
}

// checkCount verifies a provider returned one vector per text.
func checkCount(got, want int) error {
	if got != want {
		return fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCount, got, want)
	}
	return nil
}
