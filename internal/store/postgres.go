package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PratikDhanave/factory-events-service/internal/models"
)

// schemaSQL is embedded so the archive can self-bootstrap its table.
//
//go:embed schema.sql
var schemaSQL string

// upsertSQL applies the same arrival-order rule as EventStore: a row is only
// replaced by one that was received strictly later.
const upsertSQL = `
	INSERT INTO factory_events(event_id, machine_id, event_time, duration_ms, defect_count, received_time, batch_id)
	VALUES ($1,$2,$3,$4,$5,$6,$7)
	ON CONFLICT (event_id) DO UPDATE SET
		machine_id    = EXCLUDED.machine_id,
		event_time    = EXCLUDED.event_time,
		duration_ms   = EXCLUDED.duration_ms,
		defect_count  = EXCLUDED.defect_count,
		received_time = EXCLUDED.received_time,
		batch_id      = EXCLUDED.batch_id
	WHERE factory_events.received_time < EXCLUDED.received_time
`

// PostgresArchive mirrors accepted records into Postgres for downstream
// reporting. The service never reads it back; the in-memory EventStore stays
// authoritative.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

// NewPostgresArchive creates a connection pool and fails fast if DB is unreachable.
func NewPostgresArchive(dbURL string) (*PostgresArchive, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}

	return &PostgresArchive{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresArchive) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schemaSQL)
	return err
}

// Name identifies the archive in logs and metrics.
func (p *PostgresArchive) Name() string {
	return "postgres"
}

// Ping is used by the readiness endpoint to validate DB connectivity.
func (p *PostgresArchive) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresArchive) Close() error {
	p.pool.Close()
	return nil
}

// Publish writes records in a single round trip.
func (p *PostgresArchive) Publish(ctx context.Context, batchID string, records []models.StoredRecord) error {
	if len(records) == 0 {
		return nil
	}
	if batchID == "" {
		return errors.New("batchID required")
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(upsertSQL,
			rec.EventID,
			rec.MachineID,
			rec.EventTime.UTC(),
			rec.DurationMs,
			rec.DefectCount,
			rec.ReceivedTime.UTC(),
			batchID,
		)
	}

	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, rec := range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("archive event %s: %w", rec.EventID, err)
		}
	}
	return nil
}
