package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/semindex/internal/api/handler"
	"github.com/timmy/semindex/internal/api/middleware"
	"github.com/timmy/semindex/internal/config"
	"github.com/timmy/semindex/internal/logger"
	"github.com/timmy/semindex/internal/service"
)

// RouterConfig holds what SetupRouter wires together.
type RouterConfig struct {
	Mode          string
	CORS          config.CORSConfig
	SearchService *service.SearchService
	Jobs          handler.JobStore // nil when the ledger is disabled
	Logger        *logger.Logger
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(cfg *RouterConfig) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(cfg.Logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Create handlers
	healthHandler := handler.NewHealthHandler(cfg.SearchService)
	searchHandler := handler.NewSearchHandler(cfg.SearchService)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Search
		v1.GET("/search", searchHandler.TextSearchGet)
		v1.POST("/search", searchHandler.TextSearch)
		v1.GET("/datasets", searchHandler.ListDatasets)

		// Ingest run ledger
		if cfg.Jobs != nil {
			jobsHandler := handler.NewJobsHandler(cfg.Jobs)
			v1.GET("/jobs", jobsHandler.ListJobs)
			v1.GET("/jobs/:id", jobsHandler.GetJob)
		}
	}

	return r
}
