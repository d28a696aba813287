package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/semindex/internal/config"
	"github.com/timmy/semindex/internal/domain"
)

func TestJobRepository_Lifecycle(t *testing.T) {
	db, err := InitDB(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "ledger", "ingest.db"),
	})
	require.NoError(t, err)

	repo := NewJobRepository(db)
	ctx := context.Background()

	job := &domain.IngestJob{Dataset: "movies", IndexName: "hybrid-movies-index", Mode: "rebuild"}
	require.NoError(t, repo.Start(ctx, job))
	require.NotEmpty(t, job.ID)
	assert.Equal(t, domain.JobStatusRunning, job.Status)

	job.Status = domain.JobStatusPartial
	job.TotalRecords = 50
	job.EmbeddedRecords = 40
	job.UpsertedRecords = 40
	job.DroppedRecords = 10
	require.NoError(t, repo.Finish(ctx, job))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPartial, got.Status)
	assert.Equal(t, 10, got.DroppedRecords)
	assert.NotNil(t, got.CompletedAt)

	other := &domain.IngestJob{Dataset: "phones", IndexName: "phone-prices-index"}
	require.NoError(t, repo.Start(ctx, other))

	movies, err := repo.ListRecent(ctx, "movies", 10)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, job.ID, movies[0].ID)

	all, err := repo.ListRecent(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
