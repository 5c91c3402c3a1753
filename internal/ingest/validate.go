package ingest

import (
	"errors"
	"time"

	"github.com/PratikDhanave/factory-events-service/internal/clock"
	"github.com/PratikDhanave/factory-events-service/internal/models"
)

// Rejection reason codes. They are part of the public response contract.
const (
	ReasonInvalidDuration = "INVALID_DURATION"
	ReasonFutureEvent     = "FUTURE_EVENT"
)

// Validation failures. The error text is the reason code.
var (
	ErrInvalidDuration = errors.New(ReasonInvalidDuration)
	ErrFutureEvent     = errors.New(ReasonFutureEvent)
)

const (
	DefaultMaxDuration     = 6 * time.Hour
	DefaultFutureTolerance = 15 * time.Minute
)

// Validator checks a single record before it reaches the store.
type Validator struct {
	// MaxDuration is the largest accepted durationMs, inclusive.
	MaxDuration time.Duration
	// FutureTolerance is how far ahead of now an eventTime may be.
	FutureTolerance time.Duration
	Clock           clock.Clock
}

// NewValidator returns a Validator with the default bounds and the wall clock.
func NewValidator() Validator {
	return Validator{
		MaxDuration:     DefaultMaxDuration,
		FutureTolerance: DefaultFutureTolerance,
		Clock:           clock.Wall,
	}
}

// Validate returns ErrInvalidDuration or ErrFutureEvent, checked in that
// order, or nil.
func (v Validator) Validate(rec models.EventRecord) error {
	if rec.DurationMs < 0 || rec.DurationMs > v.MaxDuration.Milliseconds() {
		return ErrInvalidDuration
	}

	clk := v.Clock
	if clk == nil {
		clk = clock.Wall
	}
	maxAllowed := clk.Now().Add(v.FutureTolerance)
	if rec.EventTime.After(maxAllowed) {
		return ErrFutureEvent
	}

	return nil
}
