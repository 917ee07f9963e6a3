package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brandpulse/api/handlers"
	"brandpulse/store"
)

// New builds the HTTP API over a store and an optional pipeline runner.
// When runner is nil the refresh endpoint answers 503.
func New(st store.Store, runner handlers.PipelineRunner) *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.GET("/articles/latest", handlers.LatestArticlesHandler(st))
		api.GET("/articles", handlers.ArticlesByTimestampHandler(st))
		api.GET("/snapshots", handlers.SnapshotsHandler(st))

		if runner != nil {
			api.POST("/refresh", handlers.RefreshHandler(runner))
		} else {
			api.POST("/refresh", func(c *gin.Context) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline is not configured"})
			})
		}
	}

	return r
}
