package service

import (
	"context"

	"github.com/timmy/semindex/internal/domain"
	"github.com/timmy/semindex/internal/repository"
)

// VectorIndex is the point-level surface of one index.
type VectorIndex interface {
	UpsertBatch(ctx context.Context, entries []domain.VectorEntry) error
	Search(ctx context.Context, vector []float32, topK int) ([]domain.Match, error)
}

// IndexStore manages index lifecycle and hands out index handles.
type IndexStore interface {
	PrepareIndex(ctx context.Context, name string, spec repository.IndexSpec, mode repository.IndexMode) error
	OpenIndex(name string, hybrid bool) VectorIndex
}

type qdrantStore struct {
	*repository.QdrantRepository
}

// QdrantIndexes adapts a QdrantRepository to IndexStore.
func QdrantIndexes(repo *repository.QdrantRepository) IndexStore {
	return qdrantStore{repo}
}

func (s qdrantStore) OpenIndex(name string, hybrid bool) VectorIndex {
	return s.Index(name, hybrid)
}
