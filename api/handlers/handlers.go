package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"brandpulse/models"
	"brandpulse/store"
)

// PipelineRunner triggers a full pipeline run. Satisfied by
// pipeline.Orchestrator.
type PipelineRunner interface {
	Run(ctx context.Context, selectedBrands []string) models.RunResult
}

// LatestArticlesHandler serves the most recent snapshot.
func LatestArticlesHandler(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		articles, err := st.LoadLatest(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, articles)
	}
}

// ArticlesByTimestampHandler serves the snapshot for ?timestamp=, given
// either as RFC 3339 or the compact snapshot form (20060102_150405).
func ArticlesByTimestampHandler(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("timestamp")
		ts, ok := parseTimestamp(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timestamp: " + raw})
			return
		}

		articles, err := st.LoadByTimestamp(c.Request.Context(), ts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if len(articles) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot for timestamp"})
			return
		}
		c.JSON(http.StatusOK, articles)
	}
}

// SnapshotsHandler lists available refresh timestamps, newest first.
func SnapshotsHandler(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		timestamps, err := st.ListTimestamps(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"timestamps": timestamps})
	}
}

type refreshRequest struct {
	Brands []string `json:"brands"`
}

// RefreshHandler runs the pipeline inline and returns the run summary.
func RefreshHandler(runner PipelineRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refreshRequest
		// An empty body means "all configured brands".
		_ = c.ShouldBindJSON(&req)

		result := runner.Run(c.Request.Context(), req.Brands)
		if result.IsEmpty() {
			c.JSON(http.StatusOK, gin.H{"status": "nothing to do", "result": result})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "result": result})
	}
}

func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, true
	}
	if ts, err := time.ParseInLocation(store.SnapshotTimeLayout, raw, time.Local); err == nil {
		return ts, true
	}
	return time.Time{}, false
}
