package store

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PratikDhanave/factory-events-service/internal/clock"
	"github.com/PratikDhanave/factory-events-service/internal/models"
)

// DefaultShardCount is used when NewEventStore is given a non-positive count.
const DefaultShardCount = 64

// Outcome is the result of a single Upsert.
type Outcome int

const (
	// Accepted means the record was installed, either into an empty slot or
	// over an older conflicting payload.
	Accepted Outcome = iota + 1
	// Deduped means an equal payload was already stored under the key.
	Deduped
	// Ignored means a conflicting payload was already stored with a
	// receivedTime at or after this call's arrival time.
	Ignored
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "ACCEPTED"
	case Deduped:
		return "DEDUPED"
	case Ignored:
		return "IGNORED"
	default:
		return "UNKNOWN"
	}
}

// EventStore is an in-memory, concurrent map from eventId to StoredRecord.
//
// Keys are spread across independently locked shards. An Upsert holds only
// the lock of its key's shard for the whole compare-and-update, so writers
// on different keys never contend on a common lock.
type EventStore struct {
	shards    []*eventShard
	shardMask uint64
	clock     clock.Clock
	size      atomic.Int64
}

type eventShard struct {
	mu    sync.Mutex
	items map[string]models.StoredRecord
}

// NewEventStore creates a store with shardCount shards, rounded up to a power
// of two. A nil clk means the wall clock.
func NewEventStore(shardCount int, clk clock.Clock) *EventStore {
	if shardCount <= 0 {
		shardCount = DefaultShardCount
	}
	shardCount = nextPowerOfTwo(shardCount)
	if clk == nil {
		clk = clock.Wall
	}

	shards := make([]*eventShard, shardCount)
	for i := range shards {
		shards[i] = &eventShard{items: make(map[string]models.StoredRecord)}
	}

	return &EventStore{
		shards:    shards,
		shardMask: uint64(shardCount - 1),
		clock:     clk,
	}
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (s *EventStore) shardFor(eventID string) *eventShard {
	h := fnv.New64a()
	_, _ = h.Write([]byte(eventID))
	return s.shards[h.Sum64()&s.shardMask]
}

// Upsert applies rec under its eventId and reports what happened. The returned
// StoredRecord is what the slot holds once the call completes.
//
// A conflicting payload replaces the stored one only when this call's arrival
// time is strictly after the stored receivedTime. Event time plays no part in
// conflict resolution.
func (s *EventStore) Upsert(rec models.EventRecord) (Outcome, models.StoredRecord) {
	// Sampled before the slot is locked. Microsecond precision keeps the
	// ordering identical to what the Postgres archive can represent.
	now := s.clock.Now().Truncate(time.Microsecond)

	shard := s.shardFor(rec.EventID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	existing, ok := shard.items[rec.EventID]
	if !ok {
		stored := models.StoredRecord{EventRecord: rec, ReceivedTime: now}
		shard.items[rec.EventID] = stored
		s.size.Add(1)
		return Accepted, stored
	}

	if existing.EqualsPayload(rec) {
		return Deduped, existing
	}

	if now.After(existing.ReceivedTime) {
		stored := models.StoredRecord{EventRecord: rec, ReceivedTime: now}
		shard.items[rec.EventID] = stored
		return Accepted, stored
	}

	return Ignored, existing
}

// Get returns the record stored under eventID.
func (s *EventStore) Get(eventID string) (models.StoredRecord, bool) {
	shard := s.shardFor(eventID)
	shard.mu.Lock()
	rec, ok := shard.items[eventID]
	shard.mu.Unlock()
	return rec, ok
}

// All returns a copy of every stored record. Shards are visited one at a time,
// so concurrent upserts may be partially reflected.
func (s *EventStore) All() []models.StoredRecord {
	out := make([]models.StoredRecord, 0, s.Len())
	s.Range(func(rec models.StoredRecord) bool {
		out = append(out, rec)
		return true
	})
	return out
}

// Range calls fn for each stored record until fn returns false.
// fn runs with a shard lock held and must not call back into the store.
func (s *EventStore) Range(fn func(rec models.StoredRecord) bool) {
	for _, shard := range s.shards {
		shard.mu.Lock()
		for _, rec := range shard.items {
			if !fn(rec) {
				shard.mu.Unlock()
				return
			}
		}
		shard.mu.Unlock()
	}
}

// Len returns the number of distinct event ids held.
func (s *EventStore) Len() int64 {
	return s.size.Load()
}
