// Package history keeps a bounded in-memory record of closed rooms and
// match wait times. Nothing here is persisted; the ring exists so the
// stats surface and End's idempotence have something to look at after
// a room is gone.
package history

import (
	"sync"
	"time"

	"pairgo/backend/internal/models"
)

// DefaultCapacity bounds the closed-room ring.
const DefaultCapacity = 10000

// waitSampleLimit bounds the wait-time window used for the average.
const waitSampleLimit = 1000

// Ring is a fixed-capacity ring of room summaries plus a window of
// match wait-time samples. Safe for concurrent use.
type Ring struct {
	mu       sync.RWMutex
	capacity int
	order    []string // room ids, oldest first
	byID     map[string]models.RoomSummary

	waits []time.Duration

	totalRooms   int
	totalMatches int
}

// NewRing creates a ring holding at most capacity summaries.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{
		capacity: capacity,
		byID:     make(map[string]models.RoomSummary, capacity),
	}
}

// Add stores a summary, evicting the oldest when full.
func (r *Ring) Add(summary models.RoomSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[summary.RoomID]; !exists {
		if len(r.order) >= r.capacity {
			oldest := r.order[0]
			r.order = r.order[1:]
			delete(r.byID, oldest)
		}
		r.order = append(r.order, summary.RoomID)
		r.totalRooms++
	}
	r.byID[summary.RoomID] = summary
}

// Get looks up the summary of a closed room.
func (r *Ring) Get(roomID string) (models.RoomSummary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[roomID]
	return s, ok
}

// Len returns how many summaries are currently held.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// TotalRooms counts every room ever closed, evicted or not.
func (r *Ring) TotalRooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.totalRooms
}

// RecordWait feeds one enqueue-to-match wait sample.
func (r *Ring) RecordWait(wait time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, wait)
	if len(r.waits) > waitSampleLimit {
		r.waits = r.waits[len(r.waits)-waitSampleLimit:]
	}
}

// RecordMatch counts one pairing. Separate from RecordWait because a
// pairing contributes two wait samples, one per side.
func (r *Ring) RecordMatch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalMatches++
}

// AverageWait returns the mean wait over the sample window, zero when
// no match has happened yet.
func (r *Ring) AverageWait() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.waits) == 0 {
		return 0
	}
	var sum time.Duration
	for _, w := range r.waits {
		sum += w
	}
	return sum / time.Duration(len(r.waits))
}

// TotalMatches counts every pairing since process start.
func (r *Ring) TotalMatches() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.totalMatches
}

// Recent returns up to n most recent summaries, newest first. Used by
// the debug surface.
func (r *Ring) Recent(n int) []models.RoomSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n > len(r.order) {
		n = len(r.order)
	}
	out := make([]models.RoomSummary, 0, n)
	for i := len(r.order) - 1; i >= len(r.order)-n; i-- {
		out = append(out, r.byID[r.order[i]])
	}
	return out
}
