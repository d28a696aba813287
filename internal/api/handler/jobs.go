package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/timmy/semindex/internal/domain"
)

const (
	defaultJobLimit = 20
	maxJobLimit     = 200
)

// JobStore reads the ingest run ledger. *repository.JobRepository
// implements it.
type JobStore interface {
	GetByID(ctx context.Context, id string) (*domain.IngestJob, error)
	ListRecent(ctx context.Context, dataset string, limit int) ([]domain.IngestJob, error)
}

// JobsHandler exposes ingest run history.
type JobsHandler struct {
	jobs JobStore
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(jobs JobStore) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

// ListJobs handles GET /api/v1/jobs?dataset=&limit=.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *JobsHandler) ListJobs(c *gin.Context) {
	limit := defaultJobLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxJobLimit {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Query parameter 'limit' must be between 1 and " + strconv.Itoa(maxJobLimit),
			})
			return
		}
		limit = n
	}

	jobs, err := h.jobs.ListRecent(c.Request.Context(), c.Query("dataset"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetJob handles GET /api/v1/jobs/:id.
func (h *JobsHandler) GetJob(c *gin.Context) {
	job, err := h.jobs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, job)
}
