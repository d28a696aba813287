package service

import (
	"errors"
	"fmt"

	"github.com/timmy/semindex/internal/dataset"
	"github.com/timmy/semindex/internal/domain"
)

// ErrLengthMismatch is returned when records and embeddings cannot be
// paired position by position.
var ErrLengthMismatch = errors.New("records and embeddings differ in length")

// Pairing is the outcome of Pair.
type Pairing struct {
	Entries []domain.VectorEntry
	Dropped int // records left without an embedding
}

// Pair joins records[i] with embeddings[i]. A complete result must cover
// every record. An accepted partial result pairs only the covered prefix
// and reports the rest as dropped.
func Pair(ds dataset.Dataset, records []domain.Record, embeddings []domain.Embedding, status EmbedStatus) (Pairing, error) {
	switch {
	case len(embeddings) > len(records):
		return Pairing{}, fmt.Errorf("%w: %d embeddings for %d records", ErrLengthMismatch, len(embeddings), len(records))
	case status == EmbedComplete && len(embeddings) != len(records):
		return Pairing{}, fmt.Errorf("%w: complete result has %d embeddings for %d records", ErrLengthMismatch, len(embeddings), len(records))
	}

	entries := make([]domain.VectorEntry, len(embeddings))
	for i, emb := range embeddings {
		rec := records[i]
		entries[i] = domain.VectorEntry{
			ID:       ds.RecordID(rec),
			Vector:   emb,
			Metadata: rec.Metadata(ds.FillMissing()),
		}
	}
	return Pairing{Entries: entries, Dropped: len(records) - len(embeddings)}, nil
}
