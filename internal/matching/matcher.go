// Package matching pairs queued users by weighted profile
// compatibility. A background loop re-examines the queue every two
// seconds and relaxes the acceptance threshold as wait time grows, so
// nobody waits forever in a populated queue.
package matching

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pairgo/backend/internal/history"
	"pairgo/backend/internal/models"
)

const (
	// MaxQueue caps the number of simultaneous queue entries.
	MaxQueue = 1000
	// MatchInterval is the cadence of the background match loop.
	MatchInterval = 2 * time.Second
	// DefaultMaxWait is how long an entry may sit before the stale sweep drops it.
	DefaultMaxWait = 5 * time.Minute

	// The loop only examines the highest-ranked entries per tick.
	topCandidates = 10
	// Rank is wait-time in ms plus this factor times priority, so a
	// full priority point outweighs ten seconds of waiting.
	priorityRankFactor = 10000
)

var ErrQueueFull = errors.New("match queue is full")

// Entry is one user's pending request to be matched.
type Entry struct {
	UserID        string             `json:"user_id"`
	Preferences   models.Preferences `json:"preferences"`
	QueuedAt      time.Time          `json:"queued_at"`
	Attempts      int                `json:"attempts"`
	LastAttemptAt time.Time          `json:"last_attempt_at"`
	Priority      float64            `json:"priority"`
}

// SessionSource is the slice of the registry the matcher reads:
// resolving queue entries to sessions for scoring. SnapshotUser must
// return a copy taken under the registry's lock; the match loop runs
// on its own goroutine while the dispatcher keeps mutating the live
// session structs.
type SessionSource interface {
	SnapshotUser(userID string) (models.Session, bool)
}

// Service is the matching engine.
type Service struct {
	mu    sync.Mutex
	queue map[string]*Entry

	sessions SessionSource
	ring     *history.Ring
	pairs    chan models.MatchPair
	interval time.Duration
	log      zerolog.Logger
}

// NewService creates a matcher reading sessions from src. Matched
// pairs from the background loop come out of Pairs(); wait-time
// samples go into ring. A non-positive interval means MatchInterval.
func NewService(src SessionSource, ring *history.Ring, interval time.Duration, log zerolog.Logger) *Service {
	if interval <= 0 {
		interval = MatchInterval
	}
	return &Service{
		queue:    make(map[string]*Entry),
		sessions: src,
		ring:     ring,
		pairs:    make(chan models.MatchPair, 64),
		interval: interval,
		log:      log.With().Str("component", "matcher").Logger(),
	}
}

// Pairs is the channel on which the match loop emits pairings.
func (s *Service) Pairs() <-chan models.MatchPair {
	return s.pairs
}

// Enqueue admits a session to the queue. Re-enqueueing the same user
// returns the existing entry untouched, so queued_at keeps its first
// value. Returns ErrQueueFull at the cap.
func (s *Service) Enqueue(sess *models.Session, prefs models.Preferences) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.queue[sess.UserID]; ok {
		return existing, nil
	}
	if len(s.queue) >= MaxQueue {
		return nil, ErrQueueFull
	}

	now := time.Now()
	entry := &Entry{
		UserID:      sess.UserID,
		Preferences: prefs,
		QueuedAt:    now,
		Priority:    priorityFor(sess, now),
	}
	s.queue[sess.UserID] = entry
	s.log.Debug().Str("user_id", sess.UserID).Float64("priority", entry.Priority).
		Int("queue_len", len(s.queue)).Msg("enqueued")
	return entry, nil
}

// priorityFor derives the queue priority in [0.1, 2.0] from trust,
// violations, and session freshness.
func priorityFor(sess *models.Session, now time.Time) float64 {
	p := 1.0 + (sess.TrustScore-0.5)*0.5 - 0.1*float64(sess.ViolationCount)
	if sess.SessionAge(now) < time.Hour {
		p += 0.2
	}
	if p < 0.1 {
		return 0.1
	}
	if p > 2.0 {
		return 2.0
	}
	return p
}

// Cancel removes a user from the queue.
func (s *Service) Cancel(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.queue[userID]; !ok {
		return false
	}
	delete(s.queue, userID)
	return true
}

// Len returns the current queue depth.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Position returns a user's 1-based rank ordered by (priority desc,
// queued_at asc), or -1 when the user is not queued.
func (s *Service) Position(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.queue[userID]
	if !ok {
		return -1
	}
	rank := 1
	for _, other := range s.queue {
		if other.UserID == userID {
			continue
		}
		if other.Priority > entry.Priority ||
			(other.Priority == entry.Priority && other.QueuedAt.Before(entry.QueuedAt)) {
			rank++
		}
	}
	return rank
}

// TryMatchNow synchronously scans the queue for the best partner for
// userID. On success both entries leave the queue and the peer entry
// is returned; the caller creates the room.
func (s *Service) TryMatchNow(userID string) (*Entry, *Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tryMatchLocked(userID)
}

func (s *Service) tryMatchLocked(userID string) (*Entry, *Entry, bool) {
	entry, ok := s.queue[userID]
	if !ok {
		return nil, nil, false
	}
	sa, ok := s.sessions.SnapshotUser(userID)
	if !ok {
		// Session vanished under the entry; drop it.
		delete(s.queue, userID)
		return nil, nil, false
	}

	now := time.Now()
	entry.Attempts++
	entry.LastAttemptAt = now
	threshold := minCompat(now.Sub(entry.QueuedAt))

	// Score against the preferences captured at enqueue time.
	sa.Preferences = entry.Preferences

	var best *Entry
	bestScore := -1.0
	for candidateID, candidate := range s.queue {
		if candidateID == userID {
			continue
		}
		if candidate.Preferences.ChatType != entry.Preferences.ChatType {
			continue
		}
		sb, ok := s.sessions.SnapshotUser(candidateID)
		if !ok {
			delete(s.queue, candidateID)
			continue
		}
		if sb.Banned {
			continue
		}
		sb.Preferences = candidate.Preferences
		if score := CompatibilityScore(&sa, &sb); score >= threshold && score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if best == nil {
		return nil, nil, false
	}

	delete(s.queue, entry.UserID)
	delete(s.queue, best.UserID)
	s.ring.RecordWait(now.Sub(entry.QueuedAt))
	s.ring.RecordWait(now.Sub(best.QueuedAt))
	s.ring.RecordMatch()

	s.log.Info().Str("user_a", entry.UserID).Str("user_b", best.UserID).
		Float64("score", bestScore).Float64("threshold", threshold).Msg("match found")
	return entry, best, true
}

// minCompat is the dynamic acceptance threshold applied to the
// requester. It decays from 0.3 by 0.02 per minute waited, floored at
// 0.1.
func minCompat(wait time.Duration) float64 {
	t := 0.3 - 0.02*wait.Minutes()
	if t < 0.1 {
		return 0.1
	}
	return t
}

// Run drives the background match loop until ctx is done.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Msg("match loop started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("match loop stopped")
			return
		case <-ticker.C:
			for _, pair := range s.matchTick() {
				select {
				case s.pairs <- pair:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// matchTick ranks the queue by wait_ms + 10000*priority and tries the
// top entries against the rest. Pairs are collected under the lock and
// emitted after it is released.
func (s *Service) matchTick() []models.MatchPair {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) < 2 {
		return nil
	}

	now := time.Now()
	ranked := make([]*Entry, 0, len(s.queue))
	for _, entry := range s.queue {
		ranked = append(ranked, entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		return rankOf(ranked[i], now) > rankOf(ranked[j], now)
	})
	if len(ranked) > topCandidates {
		ranked = ranked[:topCandidates]
	}

	var out []models.MatchPair
	for _, entry := range ranked {
		// Entries removed by an earlier pairing this tick.
		if _, still := s.queue[entry.UserID]; !still {
			continue
		}
		if a, b, ok := s.tryMatchLocked(entry.UserID); ok {
			out = append(out, models.MatchPair{
				UserA:    a.UserID,
				UserB:    b.UserID,
				RoomType: a.Preferences.ChatType,
			})
		}
	}
	return out
}

func rankOf(e *Entry, now time.Time) float64 {
	return float64(now.Sub(e.QueuedAt).Milliseconds()) + priorityRankFactor*e.Priority
}

// SweepStale drops entries that waited past maxWait and returns them
// so the dispatcher can tell the affected clients.
func (s *Service) SweepStale(maxWait time.Duration) []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var dropped []*Entry
	for id, entry := range s.queue {
		if now.Sub(entry.QueuedAt) > maxWait {
			delete(s.queue, id)
			dropped = append(dropped, entry)
		}
	}
	if len(dropped) > 0 {
		s.log.Info().Int("dropped", len(dropped)).Msg("stale queue entries swept")
	}
	return dropped
}

// Snapshot copies the queue for the debug surface.
func (s *Service) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.queue))
	for _, entry := range s.queue {
		out = append(out, *entry)
	}
	return out
}
