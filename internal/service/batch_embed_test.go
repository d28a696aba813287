package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatches(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		size  int
		count int
		last  int
	}{
		{name: "exact", n: 100, size: 50, count: 2, last: 50},
		{name: "remainder", n: 101, size: 50, count: 3, last: 1},
		{name: "smaller than batch", n: 7, size: 50, count: 1, last: 7},
		{name: "zero size", n: 7, size: 0, count: 1, last: 7},
		{name: "empty", n: 0, size: 50, count: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := Batches(tt.n, tt.size)
			require.Len(t, spans, tt.count)
			if tt.count == 0 {
				return
			}
			assert.Equal(t, 0, spans[0].Start)
			assert.Equal(t, tt.n, spans[len(spans)-1].End)
			assert.Equal(t, tt.last, spans[len(spans)-1].Len())
			for i := 1; i < len(spans); i++ {
				assert.Equal(t, spans[i-1].End, spans[i].Start)
			}
		})
	}
}

func TestRetryDelay_Doubles(t *testing.T) {
	assert.Equal(t, 10*time.Second, RetryDelay(5*time.Second, 1))
	assert.Equal(t, 20*time.Second, RetryDelay(5*time.Second, 2))
	assert.Equal(t, 40*time.Second, RetryDelay(5*time.Second, 3))
}

func TestBatchEmbedder_CompleteInOrder(t *testing.T) {
	provider := &fakeProvider{}
	sleeper := &recordingSleeper{}
	embedder := NewBatchEmbedder(provider, BatchEmbedderConfig{
		BatchSize:  4,
		MaxRetries: 3,
		BaseDelay:  time.Second,
		BatchDelay: 2 * time.Second,
		Sleep:      sleeper.Sleep,
	})

	res := embedder.Embed(context.Background(), texts(10))

	assert.Equal(t, EmbedComplete, res.Status)
	require.Len(t, res.Embeddings, 10)
	for i, emb := range res.Embeddings {
		assert.Equal(t, float32(i), emb.Dense[0])
	}
	assert.Equal(t, 3, res.Batches)
	assert.Equal(t, 3, res.Calls)
	assert.Zero(t, res.Missing.Len())
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, sleeper.waits)
}

func TestBatchEmbedder_RecoversAfterMaxRetries(t *testing.T) {
	const maxRetries = 3
	// The second batch fails maxRetries times, then succeeds.
	provider := &fakeProvider{fail: func(call int) bool { return call >= 2 && call <= 1+maxRetries }}
	sleeper := &recordingSleeper{}
	embedder := NewBatchEmbedder(provider, BatchEmbedderConfig{
		BatchSize:  5,
		MaxRetries: maxRetries,
		BaseDelay:  5 * time.Second,
		Sleep:      sleeper.Sleep,
	})

	res := embedder.Embed(context.Background(), texts(10))

	assert.Equal(t, EmbedComplete, res.Status)
	assert.Len(t, res.Embeddings, 10)
	assert.Equal(t, 2+maxRetries, res.Calls)
	require.Len(t, sleeper.waits, maxRetries)
	for i := 1; i < len(sleeper.waits); i++ {
		assert.Greater(t, sleeper.waits[i], sleeper.waits[i-1])
	}
}

func TestBatchEmbedder_ExhaustionStopsCalls(t *testing.T) {
	provider := &fakeProvider{fail: func(call int) bool { return call >= 2 }}
	sleeper := &recordingSleeper{}
	embedder := NewBatchEmbedder(provider, BatchEmbedderConfig{
		BatchSize:  3,
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		Sleep:      sleeper.Sleep,
	})

	res := embedder.Embed(context.Background(), texts(9))

	assert.Equal(t, EmbedPartial, res.Status)
	assert.Len(t, res.Embeddings, 3)
	assert.Equal(t, Span{Start: 3, End: 9}, res.Missing)
	assert.ErrorIs(t, res.Err, errProviderDown)
	assert.Equal(t, 1+3, res.Calls)
	assert.Equal(t, 2, res.Batches)
}

func TestBatchEmbedder_CancelledIsAborted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewBatchEmbedder(&fakeProvider{}, BatchEmbedderConfig{BatchSize: 2}).Embed(ctx, texts(4))

	assert.Equal(t, EmbedAborted, res.Status)
	assert.Empty(t, res.Embeddings)
	assert.ErrorIs(t, res.Err, context.Canceled)
}
