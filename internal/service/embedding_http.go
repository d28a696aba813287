package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/timmy/semindex/internal/domain"
)

const jinaEndpoint = "https://api.jina.ai/v1"

// HTTPFlavor selects the request dialect of an HTTP embedding API.
type HTTPFlavor string

const (
	FlavorJina             HTTPFlavor = "jina"
	FlavorOpenAICompatible HTTPFlavor = "openai-compatible"
)

// HTTPEmbeddingConfig configures an HTTPEmbeddingProvider.
type HTTPEmbeddingConfig struct {
	Flavor     HTTPFlavor
	BaseURL    string // API root; "/embeddings" is appended
	APIKey     string
	Model      string
	Dimensions int
}

// HTTPEmbeddingProvider calls a JSON /embeddings endpoint. Items may carry a
// sparse_embedding alongside the dense vector.
type HTTPEmbeddingProvider struct {
	client     *resty.Client
	flavor     HTTPFlavor
	endpoint   string
	model      string
	dimensions int
}

// NewHTTPEmbeddingProvider creates a provider using resty with an
// instrumented transport.
func NewHTTPEmbeddingProvider(cfg *HTTPEmbeddingConfig) *HTTPEmbeddingProvider {
	base := cfg.BaseURL
	if base == "" && cfg.Flavor == FlavorJina {
		base = jinaEndpoint
	}

	client := resty.New()
	client.SetTransport(instrumentedTransport())
	client.SetTimeout(defaultEmbeddingTimeout)
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	return &HTTPEmbeddingProvider{
		client:     client,
		flavor:     cfg.Flavor,
		endpoint:   strings.TrimSuffix(base, "/") + "/embeddings",
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// GetModel returns the model name being used
func (p *HTTPEmbeddingProvider) GetModel() string {
	return p.model
}

// Dimensions returns the dense vector size.
func (p *HTTPEmbeddingProvider) Dimensions() int {
	return p.dimensions
}

type embeddingRequest struct {
	Model         string   `json:"model"`
	Task          string   `json:"task,omitempty"`
	Dimensions    int      `json:"dimensions,omitempty"`
	Input         []string `json:"input"`
	EmbeddingType string   `json:"embedding_type,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding       []float32            `json:"embedding"`
		SparseEmbedding *domain.SparseVector `json:"sparse_embedding,omitempty"`
		Index           int                  `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Detail string `json:"detail,omitempty"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (r *embeddingResponse) errorMessage() string {
	if r.Detail != "" {
		return r.Detail
	}
	if r.Error != nil {
		return r.Error.Message
	}
	return ""
}

// EmbedBatch generates embeddings for multiple texts
func (p *HTTPEmbeddingProvider) EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	if len(texts) == 0 {
		return []domain.Embedding{}, nil
	}
	return p.embed(ctx, texts, "retrieval.passage")
}

// EmbedQuery generates an embedding optimized for query/search
func (p *HTTPEmbeddingProvider) EmbedQuery(ctx context.Context, query string) (domain.Embedding, error) {
	out, err := p.embed(ctx, []string{query}, "retrieval.query")
	if err != nil {
		return domain.Embedding{}, err
	}
	return out[0], nil
}

func (p *HTTPEmbeddingProvider) embed(ctx context.Context, texts []string, task string) ([]domain.Embedding, error) {
	req := embeddingRequest{
		Model: p.model,
		Input: texts,
	}
	if p.flavor == FlavorJina {
		req.Task = task
		req.Dimensions = p.dimensions
		req.EmbeddingType = "float"
	}

	var resp embeddingResponse
	httpResp, err := p.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s embeddings API: %w", p.flavor, err)
	}

	if httpResp.StatusCode() != 200 {
		if msg := resp.errorMessage(); msg != "" {
			return nil, fmt.Errorf("%s embeddings API error: status %d: %s", p.flavor, httpResp.StatusCode(), msg)
		}
		return nil, fmt.Errorf("%s embeddings API error: status %d", p.flavor, httpResp.StatusCode())
	}

	if err := checkCount(len(resp.Data), len(texts)); err != nil {
		return nil, err
	}

	// Sort by index to ensure correct order
	sort.SliceStable(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	out := make([]domain.Embedding, len(resp.Data))
	for i, item := range resp.Data {
		if item.Index != i {
			return nil, fmt.Errorf("embeddings response has index %d at position %d", item.Index, i)
		}
		out[i] = domain.Embedding{Dense: item.Embedding, Sparse: item.SparseEmbedding}
	}
	return out, nil
}
