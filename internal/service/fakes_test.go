package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/timmy/semindex/internal/domain"
	"github.com/timmy/semindex/internal/repository"
)

var errProviderDown = errors.New("provider unavailable")

// fakeProvider returns a one-dimensional vector per text holding the
// text's global position. fail reports, per call number (1-based),
// whether that call fails.
type fakeProvider struct {
	mu       sync.Mutex
	calls    int
	fail     func(call int) bool
	embedded int
	queries  []string
}

func (p *fakeProvider) EmbedBatch(_ context.Context, texts []string) ([]domain.Embedding, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.fail != nil && p.fail(p.calls) {
		return nil, errProviderDown
	}
	out := make([]domain.Embedding, len(texts))
	for i := range texts {
		out[i] = domain.Embedding{Dense: []float32{float32(p.embedded + i)}}
	}
	p.embedded += len(texts)
	return out, nil
}

func (p *fakeProvider) EmbedQuery(_ context.Context, query string) (domain.Embedding, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, query)
	return domain.Embedding{Dense: []float32{0.5}}, nil
}

func (p *fakeProvider) GetModel() string { return "fake-model" }
func (p *fakeProvider) Dimensions() int  { return 1 }

type searchCall struct {
	vector []float32
	topK   int
}

type fakeIndex struct {
	name     string
	upserts  [][]domain.VectorEntry
	searches []searchCall
	matches  []domain.Match
	err      error
}

func (ix *fakeIndex) UpsertBatch(_ context.Context, entries []domain.VectorEntry) error {
	if ix.err != nil {
		return ix.err
	}
	ix.upserts = append(ix.upserts, entries)
	return nil
}

func (ix *fakeIndex) Search(_ context.Context, vector []float32, topK int) ([]domain.Match, error) {
	ix.searches = append(ix.searches, searchCall{vector: vector, topK: topK})
	if ix.err != nil {
		return nil, ix.err
	}
	if topK < len(ix.matches) {
		return ix.matches[:topK], nil
	}
	return ix.matches, nil
}

func (ix *fakeIndex) upserted() []domain.VectorEntry {
	var all []domain.VectorEntry
	for _, batch := range ix.upserts {
		all = append(all, batch...)
	}
	return all
}

type prepareCall struct {
	name string
	spec repository.IndexSpec
	mode repository.IndexMode
}

type fakeStore struct {
	prepared []prepareCall
	index    *fakeIndex
	opened   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{index: &fakeIndex{}}
}

func (s *fakeStore) PrepareIndex(_ context.Context, name string, spec repository.IndexSpec, mode repository.IndexMode) error {
	s.prepared = append(s.prepared, prepareCall{name: name, spec: spec, mode: mode})
	return nil
}

func (s *fakeStore) OpenIndex(name string, _ bool) VectorIndex {
	s.opened++
	s.index.name = name
	return s.index
}

type fakeRecorder struct {
	started  []*domain.IngestJob
	finished []domain.IngestJob
}

func (r *fakeRecorder) Start(_ context.Context, job *domain.IngestJob) error {
	job.ID = "job-" + strconv.Itoa(len(r.started)+1)
	job.Status = domain.JobStatusRunning
	r.started = append(r.started, job)
	return nil
}

func (r *fakeRecorder) Finish(_ context.Context, job *domain.IngestJob) error {
	r.finished = append(r.finished, *job)
	return nil
}

type fakeConfirmer struct {
	answer    bool
	questions []string
}

func (c *fakeConfirmer) Confirm(_ context.Context, question string) (bool, error) {
	c.questions = append(c.questions, question)
	return c.answer, nil
}

// recordingSleeper records requested waits without sleeping.
type recordingSleeper struct {
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

// sliceSource serves fixed records, two per page.
type sliceSource struct {
	records []domain.Record
}

func (s *sliceSource) GetSourceID() string       { return "slice" }
func (s *sliceSource) GetDisplayName() string    { return "in-memory records" }
func (s *sliceSource) SupportsIncremental() bool { return false }

func (s *sliceSource) FetchBatch(_ context.Context, cursor string, limit int) ([]domain.Record, string, error) {
	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	if limit <= 0 || limit > 2 {
		limit = 2
	}
	end := start + limit
	if end >= len(s.records) {
		return s.records[start:], "", nil
	}
	return s.records[start:end], strconv.Itoa(end), nil
}

func movieRecords(n int) []domain.Record {
	columns := []string{"id", "original_title", "genres", "vote_average", "popularity", "overview"}
	out := make([]domain.Record, n)
	for i := range out {
		out[i] = domain.NewRecord(i, columns, []string{
			strconv.Itoa(100 + i),
			"Film " + strconv.Itoa(i),
			`[{"id": 18, "name": "Drama"}]`,
			"7.5",
			"12.3",
			"A story.",
		})
	}
	return out
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "text " + strconv.Itoa(i)
	}
	return out
}
