package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/relvacode/iso8601"
	"github.com/sosodev/duration"

	"github.com/PratikDhanave/factory-events-service/internal/models"
)

// StatsReader computes machine health for a window.
type StatsReader interface {
	GetStats(ctx context.Context, machineID string, start, end time.Time) models.StatsResponse
}

// RegisterStatsRoutes registers the serving-path endpoint.
//
// GET /stats?machineId=...&start=...&end=...
// - start and end are ISO-8601 instants; the window is [start,end)
// - window=<ISO-8601 duration> may be given instead of end
func RegisterStatsRoutes(r gin.IRoutes, svc StatsReader) {
	r.GET("/stats", func(c *gin.Context) {
		machineID := c.Query("machineId")
		startStr := c.Query("start")
		endStr := c.Query("end")
		windowStr := c.Query("window")

		// Required query params per contract.
		if machineID == "" || startStr == "" || (endStr == "" && windowStr == "") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "machineId, start and end (or window) are required"})
			return
		}

		start, err := iso8601.ParseString(startStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be an ISO-8601 instant"})
			return
		}

		var end time.Time
		if endStr != "" {
			end, err = iso8601.ParseString(endStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "end must be an ISO-8601 instant"})
				return
			}
		} else {
			window, err := duration.Parse(windowStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "window must be an ISO-8601 duration"})
				return
			}
			end = start.Add(window.ToTimeDuration())
		}

		// An inverted window is not an error: it matches nothing and
		// reports a zero rate.
		start = start.UTC()
		end = end.UTC()

		c.JSON(http.StatusOK, svc.GetStats(c.Request.Context(), machineID, start, end))
	})
}
