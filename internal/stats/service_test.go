package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/PratikDhanave/factory-events-service/internal/clock"
	"github.com/PratikDhanave/factory-events-service/internal/models"
	"github.com/PratikDhanave/factory-events-service/internal/store"
)

var base = time.Date(2026, 1, 13, 4, 0, 0, 0, time.UTC)

func seed(st *store.EventStore, recs ...models.EventRecord) {
	for _, r := range recs {
		st.Upsert(r)
	}
}

func ev(id, machine string, at time.Time, defects int) models.EventRecord {
	return models.EventRecord{EventID: id, EventTime: at, MachineID: machine, DurationMs: 1000, DefectCount: defects}
}

func newTestService() (*Service, *store.EventStore) {
	st := store.NewEventStore(4, clock.NewManual(base))
	return NewService(Params{Store: st}), st
}

func TestGetStats_UnknownDefectsCountAsEventsOnly(t *testing.T) {
	svc, st := newTestService()
	seed(st,
		ev("E-STAT-1", "M-STAT", base.Add(10*time.Second), 1),
		ev("E-STAT-2", "M-STAT", base.Add(20*time.Second), -1),
		ev("E-STAT-3", "M-STAT", base.Add(30*time.Second), 2),
	)

	got := svc.GetStats(context.Background(), "M-STAT", base, base.Add(3600*time.Second))

	assert.Equal(t, "M-STAT", got.MachineID)
	assert.Equal(t, int64(3), got.EventsCount)
	assert.Equal(t, int64(3), got.DefectsCount)
	assert.InDelta(t, 3.0, got.AvgDefectRate, 1e-9)
	assert.Equal(t, models.StatusWarning, got.Status)
}

func TestGetStats_HalfOpenWindow(t *testing.T) {
	svc, st := newTestService()
	end := base.Add(time.Hour)
	seed(st,
		ev("at-start", "M-1", base, 1),
		ev("before-start", "M-1", base.Add(-time.Nanosecond), 1),
		ev("at-end", "M-1", end, 1),
		ev("just-before-end", "M-1", end.Add(-time.Nanosecond), 1),
	)

	got := svc.GetStats(context.Background(), "M-1", base, end)

	assert.Equal(t, int64(2), got.EventsCount)
	assert.Equal(t, int64(2), got.DefectsCount)
	assert.Equal(t, models.StatusWarning, got.Status)
}

func TestGetStats_FiltersByMachine(t *testing.T) {
	svc, st := newTestService()
	seed(st,
		ev("E-1", "M-1", base.Add(time.Minute), 1),
		ev("E-2", "M-2", base.Add(time.Minute), 5),
	)

	got := svc.GetStats(context.Background(), "M-1", base, base.Add(time.Hour))

	assert.Equal(t, int64(1), got.EventsCount)
	assert.Equal(t, int64(1), got.DefectsCount)
	assert.InDelta(t, 1.0, got.AvgDefectRate, 1e-9)
	assert.Equal(t, models.StatusHealthy, got.Status)
}

func TestGetStats_EmptyIsZeroFilledAndHealthy(t *testing.T) {
	svc, _ := newTestService()

	got := svc.GetStats(context.Background(), "M-NONE", base, base.Add(2*time.Hour))

	assert.Equal(t, "M-NONE", got.MachineID)
	assert.Equal(t, base, got.Start)
	assert.Equal(t, base.Add(2*time.Hour), got.End)
	assert.Zero(t, got.EventsCount)
	assert.Zero(t, got.DefectsCount)
	assert.Zero(t, got.AvgDefectRate)
	assert.Equal(t, models.StatusHealthy, got.Status)
}

func TestGetStats_RateAndThreshold(t *testing.T) {
	tests := []struct {
		name       string
		defects    int
		window     time.Duration
		threshold  float64
		wantRate   float64
		wantStatus string
	}{
		{name: "just below threshold", defects: 3, window: 2 * time.Hour, wantRate: 1.5, wantStatus: models.StatusHealthy},
		{name: "exactly threshold", defects: 4, window: 2 * time.Hour, wantRate: 2.0, wantStatus: models.StatusWarning},
		{name: "half hour window doubles rate", defects: 1, window: 30 * time.Minute, wantRate: 2.0, wantStatus: models.StatusWarning},
		{name: "custom threshold", defects: 4, window: 2 * time.Hour, threshold: 5, wantRate: 2.0, wantStatus: models.StatusHealthy},
		{name: "zero window", defects: 4, window: 0, wantRate: 0, wantStatus: models.StatusHealthy},
		{name: "sub-second window truncates to zero", defects: 4, window: 500 * time.Millisecond, wantRate: 0, wantStatus: models.StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewEventStore(4, nil)
			svc := NewService(Params{Store: st, WarningThreshold: tt.threshold})
			seed(st, ev("E-1", "M-1", base, tt.defects))

			got := svc.GetStats(context.Background(), "M-1", base, base.Add(tt.window))

			assert.InDelta(t, tt.wantRate, got.AvgDefectRate, 1e-9)
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}
}

func TestGetStats_CenturiesWideWindow(t *testing.T) {
	svc, st := newTestService()
	seed(st, ev("E-OLD", "M-1", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), 1_000_000))

	start := time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)
	got := svc.GetStats(context.Background(), "M-1", start, end)

	assert.Equal(t, int64(1), got.EventsCount)
	assert.Equal(t, int64(1_000_000), got.DefectsCount)
	assert.InDelta(t, 1e6/(18934128000.0/3600.0), got.AvgDefectRate, 1e-12)
	assert.Equal(t, models.StatusHealthy, got.Status)
}

func TestWindowSeconds(t *testing.T) {
	t0 := time.Date(2026, 1, 13, 4, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		start, end time.Time
		want       int64
	}{
		{name: "whole hour", start: t0, end: t0.Add(time.Hour), want: 3600},
		{name: "fraction floors", start: t0.Add(700 * time.Millisecond), end: t0.Add(1200 * time.Millisecond), want: 0},
		{name: "fraction carries", start: t0.Add(200 * time.Millisecond), end: t0.Add(2100 * time.Millisecond), want: 1},
		{name: "inverted floors down", start: t0.Add(500 * time.Millisecond), end: t0, want: -1},
		{name: "six centuries", start: time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC), end: time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC), want: 18934128000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, windowSeconds(tt.start, tt.end))
		})
	}
}

func TestGetStats_InvertedWindowIsZeroFilled(t *testing.T) {
	svc, st := newTestService()
	seed(st, ev("E-1", "M-1", base.Add(time.Minute), 5))

	got := svc.GetStats(context.Background(), "M-1", base.Add(time.Hour), base)

	assert.Equal(t, int64(0), got.EventsCount)
	assert.Equal(t, int64(0), got.DefectsCount)
	assert.Equal(t, 0.0, got.AvgDefectRate)
	assert.Equal(t, models.StatusHealthy, got.Status)
}
