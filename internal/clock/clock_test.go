package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual(t *testing.T) {
	start := time.Date(2026, 1, 13, 5, 0, 0, 0, time.UTC)
	m := NewManual(start)

	assert.Equal(t, start, m.Now())
	assert.Equal(t, start.Add(time.Second), m.Advance(time.Second))
	assert.Equal(t, start.Add(time.Second), m.Now())

	m.Set(start.Add(-time.Hour))
	assert.Equal(t, start.Add(-time.Hour), m.Now())
}

func TestWall(t *testing.T) {
	before := time.Now()
	got := Wall.Now()
	assert.False(t, got.Before(before))
}
