package stats

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/PratikDhanave/factory-events-service/internal/metrics"
	"github.com/PratikDhanave/factory-events-service/internal/models"
	"github.com/PratikDhanave/factory-events-service/internal/store"
)

// DefaultWarningThreshold is the defects-per-hour rate at which a machine is
// reported as "Warning".
const DefaultWarningThreshold = 2.0

var tracer = otel.Tracer("github.com/PratikDhanave/factory-events-service/internal/stats")

// Service computes machine health over the EventStore.
type Service struct {
	store            *store.EventStore
	warningThreshold float64
	metrics          *metrics.Metrics
}

type Params struct {
	Store *store.EventStore
	// WarningThreshold defaults to DefaultWarningThreshold when zero.
	WarningThreshold float64
	Metrics          *metrics.Metrics
}

// NewService constructs an aggregation Service.
func NewService(p Params) *Service {
	threshold := p.WarningThreshold
	if threshold <= 0 {
		threshold = DefaultWarningThreshold
	}
	return &Service{
		store:            p.Store,
		warningThreshold: threshold,
		metrics:          p.Metrics,
	}
}

// GetStats aggregates machineID's events with eventTime in [start, end).
// Records with an unknown (negative) defect count are counted as events but
// add nothing to defectsCount.
func (s *Service) GetStats(ctx context.Context, machineID string, start, end time.Time) models.StatsResponse {
	_, span := tracer.Start(ctx, "stats.get")
	defer span.End()
	defer s.metrics.ObserveStats(time.Now())

	var eventsCount, defectsCount int64
	for _, rec := range s.store.All() {
		if rec.MachineID != machineID {
			continue
		}
		if rec.EventTime.Before(start) || !rec.EventTime.Before(end) {
			continue
		}
		eventsCount++
		if rec.HasKnownDefects() {
			defectsCount += int64(rec.DefectCount)
		}
	}

	windowHours := float64(windowSeconds(start, end)) / 3600.0

	avgDefectRate := 0.0
	if windowHours > 0 {
		avgDefectRate = float64(defectsCount) / windowHours
	}

	status := models.StatusHealthy
	if avgDefectRate >= s.warningThreshold {
		status = models.StatusWarning
	}

	span.SetAttributes(
		attribute.String("machine.id", machineID),
		attribute.Int64("stats.events", eventsCount),
		attribute.Int64("stats.defects", defectsCount),
	)

	return models.StatsResponse{
		MachineID:     machineID,
		Start:         start,
		End:           end,
		EventsCount:   eventsCount,
		DefectsCount:  defectsCount,
		AvgDefectRate: avgDefectRate,
		Status:        status,
	}
}

// windowSeconds is the whole number of seconds from start to end, floored.
// It works from epoch seconds because time.Time.Sub saturates at about 292
// years.
func windowSeconds(start, end time.Time) int64 {
	secs := end.Unix() - start.Unix()
	if end.Nanosecond() < start.Nanosecond() {
		secs--
	}
	return secs
}
