// Package rooms owns the lifecycle of active 1-on-1 chat rooms:
// creation, message ordering, activity tracking, timeouts and
// termination. Closed rooms survive only as summaries in the history
// ring.
package rooms

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pairgo/backend/internal/history"
	"pairgo/backend/internal/models"
)

// Defaults for room timers.
const (
	DefaultMaxDuration       = time.Hour
	DefaultInactiveThreshold = 30 * time.Minute

	// Gaps shorter than this count as active conversation time; longer
	// gaps increment the silent-period counter instead.
	silentGap = 60 * time.Second
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomClosed     = errors.New("room is closed")
	ErrNotParticipant = errors.New("user is not a participant of the room")
	ErrMessageLimit   = errors.New("room message limit reached")
	ErrAlreadyInRoom  = errors.New("user is already in a room")
)

// Binder is the slice of the registry the room manager needs: keeping
// current_room_id in step with room membership.
type Binder interface {
	BindRoom(userID, roomID string) error
	UnbindRoom(userID string)
}

// EndedRoom describes a room closed by a sweep, with enough context
// for the dispatcher to notify both participants.
type EndedRoom struct {
	RoomID       string
	Participants [2]string
	Reason       string
}

// Service is the chat room manager.
type Service struct {
	mu     sync.RWMutex
	rooms  map[string]*models.ChatRoom
	byUser map[string]string // user_id -> room_id

	binder      Binder
	history     *history.Ring
	maxDuration time.Duration
	log         zerolog.Logger
}

// NewService creates a room manager. Closed-room summaries are pushed
// into ring, which also backs End's idempotence.
func NewService(binder Binder, ring *history.Ring, maxDuration time.Duration, log zerolog.Logger) *Service {
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}
	return &Service{
		rooms:       make(map[string]*models.ChatRoom),
		byUser:      make(map[string]string),
		binder:      binder,
		history:     ring,
		maxDuration: maxDuration,
		log:         log.With().Str("component", "rooms").Logger(),
	}
}

// Create pairs two users into a fresh room. Neither may already be in
// one; both registry bindings are written before the room is visible.
func (s *Service) Create(userA, userB, roomType string) (*models.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUser[userA]; ok {
		return nil, ErrAlreadyInRoom
	}
	if _, ok := s.byUser[userB]; ok {
		return nil, ErrAlreadyInRoom
	}

	now := time.Now()
	room := &models.ChatRoom{
		RoomID:         uuid.New().String(),
		Participants:   [2]string{userA, userB},
		Type:           roomType,
		State:          models.RoomStateActive,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	if err := s.binder.BindRoom(userA, room.RoomID); err != nil {
		return nil, err
	}
	if err := s.binder.BindRoom(userB, room.RoomID); err != nil {
		s.binder.UnbindRoom(userA)
		return nil, err
	}

	s.rooms[room.RoomID] = room
	s.byUser[userA] = room.RoomID
	s.byUser[userB] = room.RoomID

	s.log.Info().Str("room_id", room.RoomID).Str("type", roomType).
		Str("user_a", userA).Str("user_b", userB).Msg("room created")
	return room, nil
}

// GetByRoom returns an active room by id.
func (s *Service) GetByRoom(roomID string) (*models.ChatRoom, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	return room, ok
}

// GetByUser returns the active room a user is in, if any.
func (s *Service) GetByUser(userID string) (*models.ChatRoom, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roomID, ok := s.byUser[userID]
	if !ok {
		return nil, false
	}
	room, ok := s.rooms[roomID]
	return room, ok
}

// Count returns the number of active rooms.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// AppendMessage stores a message with the next sequence number and
// updates the room's analytics. The 1001st message is refused with
// ErrMessageLimit; the dispatcher then ends the room.
func (s *Service) AppendMessage(roomID, senderID, text string) (*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok || room.State != models.RoomStateActive {
		return nil, ErrRoomClosed
	}
	if !room.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}
	if len(room.Messages) >= models.MaxRoomMessages {
		return nil, ErrMessageLimit
	}

	now := time.Now()
	msg := models.ChatMessage{
		MessageID: uuid.New().String(),
		RoomID:    roomID,
		SenderID:  senderID,
		Sequence:  len(room.Messages) + 1,
		Text:      text,
		Timestamp: now,
		Type:      models.MessageTypeUser,
	}
	room.Messages = append(room.Messages, msg)

	recordGap(&room.Analytics, now.Sub(room.LastActivityAt))
	room.LastActivityAt = now

	return &msg, nil
}

// Activity kinds accepted by RecordActivity.
const (
	ActivitySignal           = "signal"
	ActivityTyping           = "typing"
	ActivityWebRTCConnect    = "webrtc_connected"
	ActivityWebRTCDisconnect = "webrtc_disconnected"
	ActivityQualityIssue     = "quality_issue"
)

// RecordActivity refreshes the room's activity clock and maintains the
// WebRTC duration accumulator and the bounded quality-issue list.
func (s *Service) RecordActivity(roomID, kind, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok || room.State != models.RoomStateActive {
		return ErrRoomClosed
	}

	now := time.Now()
	room.LastActivityAt = now

	switch kind {
	case ActivityWebRTCConnect:
		if room.Analytics.WebRTCConnectedAt == nil {
			t := now
			room.Analytics.WebRTCConnectedAt = &t
		}
	case ActivityWebRTCDisconnect:
		if at := room.Analytics.WebRTCConnectedAt; at != nil {
			room.Analytics.WebRTCDuration += now.Sub(*at)
			room.Analytics.WebRTCConnectedAt = nil
		}
	case ActivityQualityIssue:
		if len(room.Analytics.QualityIssues) < models.QualityIssueLimit {
			room.Analytics.QualityIssues = append(room.Analytics.QualityIssues, detail)
		}
	}
	return nil
}

// End transitions a room to ended, clears both registry bindings,
// computes the final summary and pushes it into the history ring.
// Calling End twice returns the first call's summary unchanged.
func (s *Service) End(roomID, reason, endedBy string) (models.RoomSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endLocked(roomID, reason, endedBy)
}

func (s *Service) endLocked(roomID, reason, endedBy string) (models.RoomSummary, error) {
	room, ok := s.rooms[roomID]
	if !ok {
		if summary, found := s.history.Get(roomID); found {
			return summary, nil
		}
		return models.RoomSummary{}, ErrRoomNotFound
	}

	now := time.Now()

	// Bindings are cleared before the ended state becomes visible.
	s.binder.UnbindRoom(room.Participants[0])
	s.binder.UnbindRoom(room.Participants[1])
	delete(s.byUser, room.Participants[0])
	delete(s.byUser, room.Participants[1])
	delete(s.rooms, roomID)

	if at := room.Analytics.WebRTCConnectedAt; at != nil {
		room.Analytics.WebRTCDuration += now.Sub(*at)
		room.Analytics.WebRTCConnectedAt = nil
	}

	room.State = models.RoomStateEnded
	room.EndedAt = &now
	room.EndReason = reason
	room.EndedBy = endedBy

	summary := models.RoomSummary{
		RoomID:          roomID,
		Type:            room.Type,
		Duration:        now.Sub(room.CreatedAt),
		MessageCount:    len(room.Messages),
		EndReason:       reason,
		EndedBy:         endedBy,
		EngagementScore: engagementScore(room, now),
		WebRTCDuration:  room.Analytics.WebRTCDuration,
		CreatedAt:       room.CreatedAt,
		EndedAt:         now,
	}
	s.history.Add(summary)

	s.log.Info().Str("room_id", roomID).Str("reason", reason).
		Int("messages", summary.MessageCount).
		Float64("engagement", summary.EngagementScore).Msg("room ended")
	return summary, nil
}

// SweepInactive ends rooms whose last activity is older than threshold
// (reason inactive_timeout) and rooms past the absolute duration cap
// (reason timeout). Returns what was closed so peers can be notified.
func (s *Service) SweepInactive(threshold time.Duration) []EndedRoom {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var ended []EndedRoom
	for id, room := range s.rooms {
		var reason string
		switch {
		case now.Sub(room.CreatedAt) > s.maxDuration:
			reason = models.EndReasonTimeout
		case now.Sub(room.LastActivityAt) > threshold:
			reason = models.EndReasonInactive
		default:
			continue
		}
		participants := room.Participants
		if _, err := s.endLocked(id, reason, ""); err == nil {
			ended = append(ended, EndedRoom{RoomID: id, Participants: participants, Reason: reason})
		}
	}
	return ended
}

// EndAll closes every active room with the given reason. Used during
// graceful shutdown.
func (s *Service) EndAll(reason string) []EndedRoom {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ended []EndedRoom
	for id, room := range s.rooms {
		participants := room.Participants
		if _, err := s.endLocked(id, reason, ""); err == nil {
			ended = append(ended, EndedRoom{RoomID: id, Participants: participants, Reason: reason})
		}
	}
	return ended
}
