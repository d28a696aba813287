package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/timmy/semindex/internal/dataset"
	"github.com/timmy/semindex/internal/logger"
	"github.com/timmy/semindex/internal/service"
)

// SearchHandler handles search-related endpoints.
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new search handler.
// Parameters:
//   - searchService: search service instance.
// Returns:
//   - *SearchHandler: initialized handler.
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// TextSearch handles POST /api/v1/search.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SearchHandler) TextSearch(c *gin.Context) {
	var req service.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	// Allow query parameter to pick the dataset
	if name := c.Query("dataset"); name != "" && req.Dataset == "" {
		req.Dataset = name
	}

	h.search(c, &req)
}

// TextSearchGet handles GET /api/v1/search for simple search queries.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SearchHandler) TextSearchGet(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameter 'q' is required",
		})
		return
	}

	req := service.SearchRequest{
		Query:   query,
		Dataset: c.Query("dataset"),
	}
	if topK := c.Query("top_k"); topK != "" {
		k, err := strconv.Atoi(topK)
		if err != nil || k < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Query parameter 'top_k' must be a non-negative integer",
			})
			return
		}
		req.TopK = k
	}

	h.search(c, &req)
}

func (h *SearchHandler) search(c *gin.Context, req *service.SearchRequest) {
	result, err := h.searchService.TextSearch(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case errors.Is(err, service.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, dataset.ErrUnknownDataset):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logger.CtxError(c.Request.Context(), "Search failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Search failed: " + err.Error(),
		})
	}
}

// ListDatasets handles GET /api/v1/datasets.
func (h *SearchHandler) ListDatasets(c *gin.Context) {
	names := h.searchService.GetAvailableDatasets()
	c.JSON(http.StatusOK, gin.H{
		"datasets": names,
		"total":    len(names),
	})
}
