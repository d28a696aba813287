package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/semindex/internal/dataset"
	"github.com/timmy/semindex/internal/domain"
)

func embeddings(n int) []domain.Embedding {
	out := make([]domain.Embedding, n)
	for i := range out {
		out[i] = domain.Embedding{Dense: []float32{float32(i)}}
	}
	return out
}

func TestPair_Complete(t *testing.T) {
	records := movieRecords(3)

	p, err := Pair(dataset.Movies{}, records, embeddings(3), EmbedComplete)
	require.NoError(t, err)

	require.Len(t, p.Entries, 3)
	assert.Zero(t, p.Dropped)
	for i, e := range p.Entries {
		assert.Equal(t, records[i].String("id"), e.ID)
		assert.Equal(t, float32(i), e.Vector.Dense[0])
		assert.Equal(t, records[i].String("original_title"), e.Metadata["original_title"])
	}
}

func TestPair_PartialPrefix(t *testing.T) {
	p, err := Pair(dataset.Movies{}, movieRecords(5), embeddings(2), EmbedPartial)
	require.NoError(t, err)

	assert.Len(t, p.Entries, 2)
	assert.Equal(t, 3, p.Dropped)
	assert.Equal(t, "101", p.Entries[1].ID)
}

func TestPair_LengthMismatch(t *testing.T) {
	_, err := Pair(dataset.Movies{}, movieRecords(5), embeddings(2), EmbedComplete)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = Pair(dataset.Movies{}, movieRecords(1), embeddings(2), EmbedPartial)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}
