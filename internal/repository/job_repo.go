package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/timmy/semindex/internal/domain"
)

// JobRepository records ingest runs in the ingest_jobs table.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Start inserts a running job and fills in its ID and start time.
func (r *JobRepository) Start(ctx context.Context, job *domain.IngestJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	now := time.Now()
	job.StartedAt = &now
	job.Status = domain.JobStatusRunning

	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to record job start: %w", err)
	}
	return nil
}

// Finish stores the final counters, status and error of a job.
func (r *JobRepository) Finish(ctx context.Context, job *domain.IngestJob) error {
	now := time.Now()
	job.CompletedAt = &now

	if err := r.db.WithContext(ctx).Save(job).Error; err != nil {
		return fmt.Errorf("failed to record job result: %w", err)
	}
	return nil
}

// GetByID returns a job by ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.IngestJob, error) {
	var job domain.IngestJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListRecent returns the latest jobs for a dataset, newest first. An empty
// dataset lists all.
func (r *JobRepository) ListRecent(ctx context.Context, dataset string, limit int) ([]domain.IngestJob, error) {
	var jobs []domain.IngestJob
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if dataset != "" {
		q = q.Where("dataset = ?", dataset)
	}
	if err := q.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
