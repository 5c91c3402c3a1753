package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/PratikDhanave/factory-events-service/internal/metrics"
	"github.com/PratikDhanave/factory-events-service/internal/models"
	"github.com/PratikDhanave/factory-events-service/internal/store"
)

var tracer = otel.Tracer("github.com/PratikDhanave/factory-events-service/internal/ingest")

// Sink receives records the store accepted, after the batch has been applied.
type Sink interface {
	Name() string
	Publish(ctx context.Context, batchID string, records []models.StoredRecord) error
	Close() error
}

// Service validates incoming batches and applies them to the EventStore.
type Service struct {
	store     *store.EventStore
	validator Validator
	sinks     []Sink
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

type Params struct {
	Store     *store.EventStore
	Validator Validator
	Sinks     []Sink
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// NewService constructs an ingestion Service.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validator := p.Validator
	if validator.MaxDuration <= 0 {
		validator.MaxDuration = DefaultMaxDuration
	}
	if validator.FutureTolerance <= 0 {
		validator.FutureTolerance = DefaultFutureTolerance
	}
	return &Service{
		store:     p.Store,
		validator: validator,
		sinks:     p.Sinks,
		logger:    logger,
		metrics:   p.Metrics,
	}
}

// IngestBatch validates and stores each record independently. A rejected
// record never affects the others. Records the store ignores as stale
// conflicts are not tallied in the response.
func (s *Service) IngestBatch(ctx context.Context, records []models.EventRecord) models.BatchResponse {
	ctx, span := tracer.Start(ctx, "ingest.batch")
	defer span.End()

	resp := models.BatchResponse{
		BatchID:    uuid.NewString(),
		Rejections: []models.Rejection{},
	}
	log := s.logger.With(zap.String("batch_id", resp.BatchID))

	var accepted []models.StoredRecord

	for _, rec := range records {
		if err := s.validator.Validate(rec); err != nil {
			resp.Rejected++
			resp.Rejections = append(resp.Rejections, models.Rejection{
				EventID: rec.EventID,
				Reason:  err.Error(),
			})
			s.metrics.IncRejected(err.Error())
			log.Debug("event rejected",
				zap.String("event_id", rec.EventID),
				zap.String("reason", err.Error()),
			)
			continue
		}

		outcome, stored := s.store.Upsert(rec)
		s.metrics.IncIngested(outcome.String())

		switch outcome {
		case store.Accepted:
			resp.Accepted++
			if len(s.sinks) > 0 {
				accepted = append(accepted, stored)
			}
		case store.Deduped:
			resp.Deduped++
		case store.Ignored:
			log.Debug("stale conflicting event ignored",
				zap.String("event_id", rec.EventID),
				zap.String("machine_id", rec.MachineID),
				zap.Time("stored_received_time", stored.ReceivedTime),
			)
		}
	}

	span.SetAttributes(
		attribute.String("batch.id", resp.BatchID),
		attribute.Int("batch.size", len(records)),
		attribute.Int("batch.accepted", resp.Accepted),
		attribute.Int("batch.deduped", resp.Deduped),
		attribute.Int("batch.rejected", resp.Rejected),
	)

	s.publish(ctx, resp.BatchID, accepted)

	return resp
}

// publish hands accepted records to every sink. Failures are logged and
// counted; the store has already been updated.
func (s *Service) publish(ctx context.Context, batchID string, records []models.StoredRecord) {
	if len(records) == 0 {
		return
	}
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, batchID, records); err != nil {
			s.metrics.IncSinkError(sink.Name())
			s.logger.Error("sink publish failed",
				zap.String("sink", sink.Name()),
				zap.String("batch_id", batchID),
				zap.Int("records", len(records)),
				zap.Error(err),
			)
		}
	}
}

// Ping checks every sink that supports it.
func (s *Service) Ping(ctx context.Context) error {
	for _, sink := range s.sinks {
		p, ok := sink.(interface{ Ping(context.Context) error })
		if !ok {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", sink.Name(), err)
		}
	}
	return nil
}

// Close releases all sinks.
func (s *Service) Close() error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}
