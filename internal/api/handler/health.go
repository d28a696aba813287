package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DatasetLister reports the datasets the service can search.
type DatasetLister interface {
	GetAvailableDatasets() []string
}

// HealthHandler reports readiness from the registered datasets.
type HealthHandler struct {
	datasets DatasetLister
}

// NewHealthHandler creates a health handler backed by datasets.
func NewHealthHandler(datasets DatasetLister) *HealthHandler {
	return &HealthHandler{datasets: datasets}
}

// Health answers 200 with the searchable datasets, or 503 while none is
// registered.
func (h *HealthHandler) Health(c *gin.Context) {
	names := h.datasets.GetAvailableDatasets()
	if len(names) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unavailable",
			"datasets": []string{},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"datasets": names,
	})
}
