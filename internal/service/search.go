package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/timmy/semindex/internal/dataset"
	"github.com/timmy/semindex/internal/domain"
	"github.com/timmy/semindex/internal/logger"
)

// DefaultTopK is the number of matches returned when none is requested.
const DefaultTopK = 5

// ErrEmptyQuery is returned for blank search requests from the API.
var ErrEmptyQuery = errors.New("query is required")

// searchTarget pairs an index with the provider that embedded it.
type searchTarget struct {
	index     VectorIndex
	embedding EmbeddingProvider
}

// SearchService embeds queries and runs top-k similarity searches against
// one or more dataset indexes.
type SearchService struct {
	defaultDataset string
	defaultTopK    int
	targets        map[string]*searchTarget
}

// NewSearchService creates a search service. defaultDataset is used when a
// request names none.
func NewSearchService(defaultDataset string, defaultTopK int) *SearchService {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &SearchService{
		defaultDataset: defaultDataset,
		defaultTopK:    defaultTopK,
		targets:        make(map[string]*searchTarget),
	}
}

// RegisterDataset makes a dataset searchable.
// Parameters:
//   - name: dataset name used in requests.
//   - index: index holding the dataset's vectors.
//   - embedding: provider used to embed the dataset, reused for queries.
//
// Returns: none.
func (s *SearchService) RegisterDataset(name string, index VectorIndex, embedding EmbeddingProvider) {
	s.targets[name] = &searchTarget{index: index, embedding: embedding}
}

// GetAvailableDatasets returns the registered dataset names in sorted order.
func (s *SearchService) GetAvailableDatasets() []string {
	names := make([]string, 0, len(s.targets))
	for name := range s.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SearchRequest represents a text search request.
type SearchRequest struct {
	Query   string `json:"query" form:"q"`
	TopK    int    `json:"top_k" form:"top_k"`
	Dataset string `json:"dataset,omitempty" form:"dataset"`
}

// SearchResponse represents the search response.
type SearchResponse struct {
	Results []domain.Match `json:"results"`
	Total   int            `json:"total"`
	Query   string         `json:"query"`
	Dataset string         `json:"dataset"`
}

// Search embeds query once and runs one similarity query on the default
// dataset.
func (s *SearchService) Search(ctx context.Context, query string, topK int) ([]domain.Match, error) {
	resp, err := s.search(ctx, s.defaultDataset, query, topK)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// TextSearch serves a search request, rejecting blank queries.
func (s *SearchService) TextSearch(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	name := req.Dataset
	if name == "" {
		name = s.defaultDataset
	}
	return s.search(ctx, name, query, req.TopK)
}

func (s *SearchService) search(ctx context.Context, name, query string, topK int) (*SearchResponse, error) {
	target, ok := s.targets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not searchable", dataset.ErrUnknownDataset, name)
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	start := time.Now()
	vector, err := target.embedding.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := target.index.Search(ctx, vector.Dense, topK)
	if err != nil {
		return nil, err
	}

	logger.With(logger.Fields{
		logger.FieldPipeline: name,
		logger.FieldCount:    len(matches),
	}).WithDuration(time.Since(start).Milliseconds()).Debug(ctx, "Search completed")

	return &SearchResponse{
		Results: matches,
		Total:   len(matches),
		Query:   query,
		Dataset: name,
	}, nil
}

// FormatMatch renders a match the way the query console prints it.
func FormatMatch(m domain.Match) string {
	genres := "[]"
	if v, ok := m.Metadata["genres"]; ok && v != nil {
		genres = fmt.Sprint(v)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Score: %.4f\n", m.Score)
	fmt.Fprintf(&b, "Title: %s\n", metadataOr(m.Metadata, "original_title", "N/A"))
	fmt.Fprintf(&b, "Genres: %s\n", dataset.FormatGenres(genres))
	fmt.Fprintf(&b, "Rating: %s\n", metadataOr(m.Metadata, "vote_average", "N/A"))
	fmt.Fprintf(&b, "Popularity: %s\n", metadataOr(m.Metadata, "popularity", "N/A"))
	b.WriteString(strings.Repeat("-", 40))
	b.WriteString("\n")
	return b.String()
}

func metadataOr(md map[string]any, key, fallback string) string {
	v, ok := md[key]
	if !ok || v == nil {
		return fallback
	}
	return fmt.Sprint(v)
}
