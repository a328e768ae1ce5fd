package router

import (
	"net/http"

	"github.com/fieldhq/pro-dispatch/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if deps.DB != nil {
			if err := deps.DB.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "degraded",
					"service": "pro-dispatch-api",
					"error":   err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "pro-dispatch-api",
		})
	})

	jobsHandler := handler.NewJobsHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(AuthMiddleware(deps.Verifier, deps.Logger))
	{
		pros := v1.Group("/pros")
		{
			// GET /api/v1/pros/me/jobs - Resolve the technician's job feed
			pros.GET("/me/jobs", jobsHandler.GetMyJobs)
		}
	}

	return r
}
