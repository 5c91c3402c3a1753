package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/factory-events-service/internal/models"
)

// BatchIngester applies a batch of events to the store.
type BatchIngester interface {
	IngestBatch(ctx context.Context, records []models.EventRecord) models.BatchResponse
}

// RegisterEventRoutes registers the ingestion-path endpoint.
//
// POST /events/batch
// - Body is a JSON array of events
// - Per-event validation failures are reported in the response, not as errors
// - Idempotent: resending an identical event is counted as deduped
func RegisterEventRoutes(r gin.IRoutes, svc BatchIngester, maxBodyBytes int64) {
	r.POST("/events/batch", func(c *gin.Context) {
		if maxBodyBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		}

		var records []models.EventRecord
		if err := c.ShouldBindJSON(&records); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		// Required fields per contract.
		for i, rec := range records {
			if err := checkRequired(rec); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("event %d: %v", i, err)})
				return
			}
		}

		c.JSON(http.StatusOK, svc.IngestBatch(c.Request.Context(), records))
	})
}

func checkRequired(rec models.EventRecord) error {
	switch {
	case rec.EventID == "":
		return errors.New("eventId required")
	case rec.MachineID == "":
		return errors.New("machineId required")
	case rec.EventTime.IsZero():
		return errors.New("eventTime required")
	}
	return nil
}
