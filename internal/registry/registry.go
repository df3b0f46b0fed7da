// Package registry owns the in-memory directory of connected clients.
// Sessions are keyed both by transport id and by user id; the two
// indices are always updated together under one lock.
package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pairgo/backend/internal/moderation"
	"pairgo/backend/internal/models"
	"pairgo/backend/internal/profile"
)

// DefaultIdleTimeout is how long a session may stay silent before the
// sweep expires it.
const DefaultIdleTimeout = 30 * time.Minute

var (
	ErrAlreadyRegistered = errors.New("transport already has a session")
	ErrSessionNotFound   = errors.New("session not found")
)

// Service is the user session registry. All mutations run through the
// dispatcher loop; the lock additionally covers admin-surface reads.
type Service struct {
	mu          sync.RWMutex
	byTransport map[string]*models.Session
	byUser      map[string]*models.Session

	idleTimeout time.Duration
	total       int // sessions ever created
	log         zerolog.Logger
}

// NewService creates an empty registry.
func NewService(idleTimeout time.Duration, log zerolog.Logger) *Service {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Service{
		byTransport: make(map[string]*models.Session),
		byUser:      make(map[string]*models.Session),
		idleTimeout: idleTimeout,
		log:         log.With().Str("component", "registry").Logger(),
	}
}

// Create allocates a session for a new transport. The profile is
// normalized on the way in and trust starts at 1.0.
func (s *Service) Create(transportID string, raw models.RegisterPayload) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byTransport[transportID]; ok {
		return nil, ErrAlreadyRegistered
	}

	now := time.Now()
	sess := &models.Session{
		UserID:       uuid.New().String(),
		TransportID:  transportID,
		Profile:      profile.NormalizeProfile(raw),
		ConnectedAt:  now,
		LastActiveAt: now,
		TrustScore:   1.0,
	}
	s.byTransport[transportID] = sess
	s.byUser[sess.UserID] = sess
	s.total++

	s.log.Info().Str("user_id", sess.UserID).Int("online", len(s.byUser)).Msg("session created")
	return sess, nil
}

// GetByTransport returns the session bound to a transport, O(1).
func (s *Service) GetByTransport(transportID string) (*models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byTransport[transportID]
	return sess, ok
}

// GetByUser returns the session for a user id, O(1).
func (s *Service) GetByUser(userID string) (*models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byUser[userID]
	return sess, ok
}

// SnapshotUser returns a copy of a user's session taken under the
// lock. The matcher runs on its own goroutine and scores against
// copies, never against the structs the dispatcher mutates.
func (s *Service) SnapshotUser(userID string) (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byUser[userID]
	if !ok {
		return models.Session{}, false
	}
	return *sess, true
}

// Touch refreshes the activity clock of a transport's session.
func (s *Service) Touch(transportID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.byTransport[transportID]; ok {
		sess.LastActiveAt = time.Now()
	}
}

// UpdateProfile merges a partial raw profile into the session's.
func (s *Service) UpdateProfile(transportID string, raw models.RegisterPayload) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byTransport[transportID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.Profile = profile.MergeProfile(sess.Profile, raw)
	sess.LastActiveAt = time.Now()
	return sess, nil
}

// SetPreferences stores the user's latest matching preferences.
func (s *Service) SetPreferences(userID string, prefs models.Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.byUser[userID]; ok {
		sess.Preferences = prefs
	}
}

// BindRoom marks a user as being in a room.
func (s *Service) BindRoom(userID, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byUser[userID]
	if !ok {
		return ErrSessionNotFound
	}
	sess.CurrentRoomID = roomID
	return nil
}

// UnbindRoom clears a user's room reference.
func (s *Service) UnbindRoom(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.byUser[userID]; ok {
		sess.CurrentRoomID = ""
	}
}

// Flag appends a violation, decays trust by 0.1 (floored at 0) and
// auto-bans once the session crosses either ban threshold. Trust only
// ever goes down here; nothing in the registry raises it.
func (s *Service) Flag(userID, kind string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byUser[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.Violations = append(sess.Violations, models.Violation{Kind: kind, At: time.Now()})
	sess.ViolationCount = len(sess.Violations)
	sess.TrustScore -= moderation.TrustPenalty
	if sess.TrustScore < 0 {
		sess.TrustScore = 0
	}
	if kind == moderation.ViolationReported {
		sess.Reported = true
	}

	if !sess.Banned &&
		(sess.ViolationCount >= moderation.BanViolationCount || sess.TrustScore <= moderation.BanTrustThreshold) {
		sess.Banned = true
		s.log.Warn().Str("user_id", userID).
			Int("violations", sess.ViolationCount).
			Float64("trust", sess.TrustScore).
			Msg("user auto-banned")
	}
	return sess, nil
}

// Remove deletes both indices for a transport and returns the removed
// session so the dispatcher can clean up rooms and queue entries.
func (s *Service) Remove(transportID string) (*models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byTransport[transportID]
	if !ok {
		return nil, false
	}
	delete(s.byTransport, transportID)
	delete(s.byUser, sess.UserID)
	s.log.Info().Str("user_id", sess.UserID).Int("online", len(s.byUser)).Msg("session removed")
	return sess, true
}

// Count returns the number of connected sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUser)
}

// TotalConnections counts every session ever created, removed or not.
func (s *Service) TotalConnections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// SweepExpired collects sessions idle past the timeout. The caller
// (dispatcher maintenance tick) tears down their rooms and transports.
func (s *Service) SweepExpired() []*models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var expired []*models.Session
	for _, sess := range s.byUser {
		if sess.IdleFor(now) > s.idleTimeout {
			expired = append(expired, sess)
		}
	}
	return expired
}

// Snapshot returns a copy of all sessions for the debug surface.
func (s *Service) Snapshot() []models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Session, 0, len(s.byUser))
	for _, sess := range s.byUser {
		out = append(out, *sess)
	}
	return out
}
