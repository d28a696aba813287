package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/semindex/internal/dataset"
	"github.com/timmy/semindex/internal/domain"
)

func sampleMatches() []domain.Match {
	return []domain.Match{
		{ID: "a", RecordID: "19995", Score: 0.91234, Metadata: map[string]any{
			"original_title": "Avatar",
			"genres":         `[{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}]`,
			"vote_average":   7.2,
			"popularity":     150.437577,
		}},
		{ID: "b", RecordID: "2", Score: 0.5, Metadata: map[string]any{}},
	}
}

func TestFormatMatch(t *testing.T) {
	got := FormatMatch(sampleMatches()[0])

	want := "Score: 0.9123\n" +
		"Title: Avatar\n" +
		"Genres: Action, Science Fiction\n" +
		"Rating: 7.2\n" +
		"Popularity: 150.437577\n" +
		strings.Repeat("-", 40) + "\n"
	assert.Equal(t, want, got)
}

func TestFormatMatch_MissingFields(t *testing.T) {
	got := FormatMatch(sampleMatches()[1])

	assert.Contains(t, got, "Title: N/A\n")
	assert.Contains(t, got, "Genres: \n")
	assert.Contains(t, got, "Rating: N/A\n")
	assert.Contains(t, got, "Popularity: N/A\n")
}

func TestFormatMatch_KeepsStoredText(t *testing.T) {
	got := FormatMatch(domain.Match{Score: 1, Metadata: map[string]any{
		"original_title": "Up",
		"vote_average":   "7.0",
		"popularity":     "1.10",
	}})

	assert.Contains(t, got, "Rating: 7.0\n")
	assert.Contains(t, got, "Popularity: 1.10\n")
}

func newTestSearch() (*SearchService, *fakeProvider, *fakeIndex) {
	provider := &fakeProvider{}
	index := &fakeIndex{matches: sampleMatches()}
	svc := NewSearchService("movies", 0)
	svc.RegisterDataset("movies", index, provider)
	return svc, provider, index
}

func TestSearchService_Search(t *testing.T) {
	svc, provider, index := newTestSearch()

	matches, err := svc.Search(context.Background(), "blue aliens", 0)
	require.NoError(t, err)

	assert.Len(t, matches, 2)
	assert.Equal(t, []string{"blue aliens"}, provider.queries)
	require.Len(t, index.searches, 1)
	assert.Equal(t, DefaultTopK, index.searches[0].topK)
	assert.Equal(t, []float32{0.5}, index.searches[0].vector)
}

func TestSearchService_TextSearch(t *testing.T) {
	svc, _, index := newTestSearch()

	resp, err := svc.TextSearch(context.Background(), &SearchRequest{Query: " aliens ", TopK: 1})
	require.NoError(t, err)
	assert.Equal(t, "movies", resp.Dataset)
	assert.Equal(t, "aliens", resp.Query)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, 1, index.searches[0].topK)

	_, err = svc.TextSearch(context.Background(), &SearchRequest{Query: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = svc.TextSearch(context.Background(), &SearchRequest{Query: "x", Dataset: "phones"})
	assert.ErrorIs(t, err, dataset.ErrUnknownDataset)

	assert.Equal(t, []string{"movies"}, svc.GetAvailableDatasets())
}

func TestQueryLoop_ExitMakesNoCalls(t *testing.T) {
	svc, provider, index := newTestSearch()
	var out bytes.Buffer

	err := NewQueryLoop(svc, 5).Run(context.Background(), strings.NewReader("  EXIT \n"), &out)
	require.NoError(t, err)

	assert.Empty(t, provider.queries)
	assert.Empty(t, index.searches)
	assert.Equal(t, QueryPrompt, out.String())
}

func TestQueryLoop_OneSearchPerLine(t *testing.T) {
	svc, provider, index := newTestSearch()
	var out bytes.Buffer

	err := NewQueryLoop(svc, 5).Run(context.Background(), strings.NewReader("space adventure\nexit\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, []string{"space adventure"}, provider.queries)
	assert.Len(t, index.searches, 1)
	assert.Contains(t, out.String(), "\nTop Matches:\n")
	assert.Contains(t, out.String(), "Title: Avatar")
	assert.Equal(t, 2, strings.Count(out.String(), QueryPrompt))
}

func TestQueryLoop_EOFEnds(t *testing.T) {
	svc, provider, _ := newTestSearch()
	var out bytes.Buffer

	err := NewQueryLoop(svc, 5).Run(context.Background(), strings.NewReader("drama"), &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"drama"}, provider.queries)
}

func TestQueryLoop_ErrorContinues(t *testing.T) {
	svc, _, index := newTestSearch()
	index.err = errors.New("index offline")
	var out bytes.Buffer

	err := NewQueryLoop(svc, 5).Run(context.Background(), strings.NewReader("a\nb\nexit\n"), &out)
	require.NoError(t, err)

	assert.Len(t, index.searches, 2)
	assert.Equal(t, 2, strings.Count(out.String(), "Search failed: index offline"))
}

func TestQueryLoop_CancelWhileWaitingForInput(t *testing.T) {
	svc, provider, index := newTestSearch()
	r, w := io.Pipe()
	defer w.Close()
	var out bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() { done <- NewQueryLoop(svc, 5).Run(ctx, r, &out) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Empty(t, provider.queries)
	assert.Empty(t, index.searches)
}

func TestQueryLoop_LongLine(t *testing.T) {
	svc, provider, _ := newTestSearch()
	query := strings.Repeat("a", 200*1024)
	var out bytes.Buffer

	err := NewQueryLoop(svc, 5).Run(context.Background(), strings.NewReader(query+"\nexit\n"), &out)
	require.NoError(t, err)
	require.Len(t, provider.queries, 1)
	assert.Len(t, provider.queries[0], len(query))
}
