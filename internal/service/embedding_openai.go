package service

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/timmy/semindex/internal/domain"
)

// OpenAIEmbeddingProvider embeds text through the OpenAI embeddings API.
// It makes one request per call; retries belong to the batch embedder.
type OpenAIEmbeddingProvider struct {
	client     *openai.Client
	model      string
	dimensions int
}

// NewOpenAIEmbeddingProvider creates a provider. An empty baseURL uses the
// public OpenAI endpoint.
func NewOpenAIEmbeddingProvider(apiKey, baseURL, model string, dimensions int) *OpenAIEmbeddingProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{
		Timeout:   defaultEmbeddingTimeout,
		Transport: instrumentedTransport(),
	}

	return &OpenAIEmbeddingProvider{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		dimensions: dimensions,
	}
}

// GetModel returns the model name being used
func (p *OpenAIEmbeddingProvider) GetModel() string {
	return p.model
}

// Dimensions returns the dense vector size.
func (p *OpenAIEmbeddingProvider) Dimensions() int {
	return p.dimensions
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (p *OpenAIEmbeddingProvider) EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	if len(texts) == 0 {
		return []domain.Embedding{}, nil
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if err := checkCount(len(resp.Data), len(texts)); err != nil {
		return nil, err
	}

	out := make([]domain.Embedding, len(texts))
	filled := make([]bool, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(out) || filled[item.Index] {
			return nil, fmt.Errorf("openai embeddings: unexpected index %d", item.Index)
		}
		out[item.Index] = domain.Embedding{Dense: item.Embedding}
		filled[item.Index] = true
	}
	return out, nil
}

// EmbedQuery generates an embedding for a search query.
func (p *OpenAIEmbeddingProvider) EmbedQuery(ctx context.Context, query string) (domain.Embedding, error) {
	out, err := p.EmbedBatch(ctx, []string{query})
	if err != nil {
		return domain.Embedding{}, err
	}
	return out[0], nil
}
