// Package chathub is the event dispatcher: one goroutine owns the
// client table and routes every inbound frame, match pairing and
// maintenance tick. Subsystem state lives behind the Core services;
// the hub is the only writer of the Clients map.
package chathub

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pairgo/backend/internal/matching"
	"pairgo/backend/internal/metrics"
	"pairgo/backend/internal/models"
	"pairgo/backend/internal/rooms"
)

// Maintenance cadence. Overridable per instance for tests.
const (
	statsInterval     = 30 * time.Second
	sweepInterval     = time.Minute
	roomSweepInterval = 5 * time.Minute
)

// ManagerService is the hub. Clients is keyed by transport id and is
// touched only from Run's goroutine.
type ManagerService struct {
	Clients map[string]Client

	// Channels
	RegisterCh   chan Client
	UnregisterCh chan Client
	EventCh      chan InboundEvent

	Core *Core

	// Tick intervals, set before Run. Zero means the default.
	StatsInterval     time.Duration
	SweepInterval     time.Duration
	RoomSweepInterval time.Duration

	log zerolog.Logger
}

// NewManagerService creates a hub over the given core.
func NewManagerService(core *Core, log zerolog.Logger) *ManagerService {
	return &ManagerService{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		EventCh:      make(chan InboundEvent, 256),
		Core:         core,
		log:          log.With().Str("component", "chathub").Logger(),
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Run is the dispatcher loop. It exits after ctx is cancelled, ending
// every room and closing every connection.
func (m *ManagerService) Run(ctx context.Context) {
	statsTicker := time.NewTicker(orDefault(m.StatsInterval, statsInterval))
	sweepTicker := time.NewTicker(orDefault(m.SweepInterval, sweepInterval))
	roomTicker := time.NewTicker(orDefault(m.RoomSweepInterval, roomSweepInterval))
	defer statsTicker.Stop()
	defer sweepTicker.Stop()
	defer roomTicker.Stop()

	m.log.Info().Msg("dispatcher started")
	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return

		case client := <-m.RegisterCh:
			m.Clients[client.TransportID()] = client
			client.Run()

		case client := <-m.UnregisterCh:
			m.disconnect(client)

		case in := <-m.EventCh:
			m.handleEvent(in.Client, in.Event)

		case pair := <-m.Core.Matcher.Pairs():
			m.startRoom(pair)

		case <-statsTicker.C:
			m.broadcastStats()

		case <-sweepTicker.C:
			m.sweepSessions()
			m.sweepQueue()

		case <-roomTicker.C:
			m.sweepRooms()
		}
	}
}

// send delivers an event to one client, disconnecting it when the
// outbound buffer is full. Slow consumers are not worth blocking the
// dispatcher for.
func (m *ManagerService) send(c Client, ev models.ServerEvent) {
	if !c.TrySend(ev) {
		m.log.Warn().Str("transport_id", c.TransportID()).Str("event", ev.Type).
			Msg("send buffer full, dropping client")
		m.disconnect(c)
	}
}

// sendToUser resolves a user id to its transport and sends. It reports
// whether the user still has a session; a session without a live
// transport just drops the event.
func (m *ManagerService) sendToUser(userID string, ev models.ServerEvent) bool {
	sess, ok := m.Core.Registry.GetByUser(userID)
	if !ok {
		return false
	}
	if c, ok := m.Clients[sess.TransportID]; ok {
		m.send(c, ev)
	}
	return true
}

// relayToPeer forwards an event to the sender's room peer. A peer with
// no session means the room outlived a participant; that inconsistency
// ends the room with internal_error.
func (m *ManagerService) relayToPeer(room *models.ChatRoom, senderID string, ev models.ServerEvent) bool {
	if m.sendToUser(room.PeerOf(senderID), ev) {
		return true
	}
	m.log.Error().Str("room_id", room.RoomID).Str("sender", senderID).
		Msg("room peer has no session, ending room")
	m.endRoomNotify(room.RoomID, models.EndReasonInternal, "", nil)
	return false
}

func (m *ManagerService) sendError(c Client, code, msg string) {
	m.send(c, models.ServerEvent{
		Type:    models.EventError,
		Payload: models.ErrorPayload{Code: code, Message: msg},
	})
}

// broadcast fans an event out to every registered session.
func (m *ManagerService) broadcast(ev models.ServerEvent) {
	for _, sess := range m.Core.Registry.Snapshot() {
		if c, ok := m.Clients[sess.TransportID]; ok {
			m.send(c, ev)
		}
	}
}

func (m *ManagerService) broadcastOnlineCount() {
	m.broadcast(models.ServerEvent{
		Type:    models.EventOnlineCount,
		Payload: models.OnlineCountPayload{OnlineCount: m.Core.Registry.Count()},
	})
}

func (m *ManagerService) broadcastStats() {
	m.updateGauges()
	m.broadcast(models.ServerEvent{
		Type: models.EventStats,
		Payload: models.StatsPayload{
			OnlineUsers: m.Core.Registry.Count(),
			ActiveRooms: m.Core.Rooms.Count(),
		},
	})
}

func (m *ManagerService) updateGauges() {
	metrics.OnlineUsers.Set(float64(m.Core.Registry.Count()))
	metrics.ActiveRooms.Set(float64(m.Core.Rooms.Count()))
	metrics.QueueDepth.Set(float64(m.Core.Matcher.Len()))
}

// disconnect is the single teardown path for a connection, whatever
// triggered it: transport close, idle expiry or a full send buffer.
func (m *ManagerService) disconnect(c Client) {
	tid := c.TransportID()
	if _, ok := m.Clients[tid]; !ok {
		return
	}
	delete(m.Clients, tid)
	c.Close()

	sess, ok := m.Core.Registry.Remove(tid)
	if !ok {
		return
	}
	m.Core.Matcher.Cancel(sess.UserID)

	if sess.CurrentRoomID != "" {
		m.endRoomNotify(sess.CurrentRoomID, models.EndReasonDisconnected, sess.UserID, map[string]string{
			// The survivor learns the peer vanished, not who ended it.
			"*": models.EndReasonDisconnected,
		})
	}

	m.broadcastOnlineCount()
	m.updateGauges()
}

// endRoomNotify ends a room and tells the remaining participants. The
// reasons map selects the wire-level reason per user id; "*" is the
// fallback. excludeUser suppresses the notice for a user already gone.
func (m *ManagerService) endRoomNotify(roomID, reason, endedBy string, reasons map[string]string) {
	room, ok := m.Core.Rooms.GetByRoom(roomID)
	if !ok {
		return
	}
	participants := room.Participants

	if _, err := m.Core.Rooms.End(roomID, reason, endedBy); err != nil {
		return
	}
	metrics.RoomsEndedTotal.WithLabelValues(reason).Inc()

	for _, uid := range participants {
		if uid == endedBy && reason == models.EndReasonDisconnected {
			continue // their transport is gone
		}
		wireReason := reasons["*"]
		if r, ok := reasons[uid]; ok {
			wireReason = r
		}
		if wireReason == "" {
			wireReason = reason
		}
		m.sendToUser(uid, models.ServerEvent{
			Type:    models.EventEnded,
			Payload: models.EndedPayload{RoomID: roomID, Reason: wireReason},
		})
	}
}

// startRoom turns a matcher pairing into a live room and announces it
// to both peers. If either session vanished between pairing and now,
// the survivor goes back into the queue.
func (m *ManagerService) startRoom(pair models.MatchPair) {
	sessA, okA := m.Core.Registry.GetByUser(pair.UserA)
	sessB, okB := m.Core.Registry.GetByUser(pair.UserB)
	if !okA || !okB {
		if okA {
			m.Core.Matcher.Enqueue(sessA, sessA.Preferences)
		}
		if okB {
			m.Core.Matcher.Enqueue(sessB, sessB.Preferences)
		}
		return
	}

	room, err := m.Core.Rooms.Create(pair.UserA, pair.UserB, pair.RoomType)
	if err != nil {
		m.log.Error().Err(err).Str("user_a", pair.UserA).Str("user_b", pair.UserB).
			Msg("room creation after match failed")
		return
	}
	metrics.MatchesTotal.Inc()

	m.sendToUser(pair.UserA, models.ServerEvent{
		Type: models.EventMatchFound,
		Payload: models.MatchFoundPayload{
			RoomID:   room.RoomID,
			ChatType: room.Type,
			Peer:     peerInfo(sessB),
		},
	})
	m.sendToUser(pair.UserB, models.ServerEvent{
		Type: models.EventMatchFound,
		Payload: models.MatchFoundPayload{
			RoomID:   room.RoomID,
			ChatType: room.Type,
			Peer:     peerInfo(sessA),
		},
	})
	m.updateGauges()
}

func peerInfo(sess *models.Session) models.PeerInfo {
	return models.PeerInfo{
		Gender:   sess.Profile.Gender,
		Age:      sess.Profile.Age,
		Location: sess.Profile.Location,
		Keywords: sess.Profile.Keywords,
	}
}

// sweepSessions expires idle sessions and tears down their transports.
func (m *ManagerService) sweepSessions() {
	for _, sess := range m.Core.Registry.SweepExpired() {
		if c, ok := m.Clients[sess.TransportID]; ok {
			m.disconnect(c)
			continue
		}
		// No live transport; clean up registry state directly.
		if _, ok := m.Core.Registry.Remove(sess.TransportID); ok {
			m.Core.Matcher.Cancel(sess.UserID)
			if sess.CurrentRoomID != "" {
				m.endRoomNotify(sess.CurrentRoomID, models.EndReasonDisconnected, sess.UserID, map[string]string{
					"*": models.EndReasonDisconnected,
				})
			}
		}
	}
}

// sweepQueue drops entries past the wait cap and tells their owners.
func (m *ManagerService) sweepQueue() {
	for _, entry := range m.Core.Matcher.SweepStale(matching.DefaultMaxWait) {
		m.sendToUser(entry.UserID, models.ServerEvent{Type: models.EventQueueTimeout})
	}
	m.updateGauges()
}

// sweepRooms closes rooms past the inactivity or absolute duration caps.
func (m *ManagerService) sweepRooms() {
	for _, ended := range m.Core.Rooms.SweepInactive(rooms.DefaultInactiveThreshold) {
		metrics.RoomsEndedTotal.WithLabelValues(ended.Reason).Inc()
		for _, uid := range ended.Participants {
			m.sendToUser(uid, models.ServerEvent{
				Type:    models.EventEnded,
				Payload: models.EndedPayload{RoomID: ended.RoomID, Reason: ended.Reason},
			})
		}
	}
	m.updateGauges()
}

// shutdown ends all rooms, notifies everyone and closes every client.
func (m *ManagerService) shutdown() {
	m.log.Info().Int("clients", len(m.Clients)).Msg("dispatcher shutting down")

	for _, ended := range m.Core.Rooms.EndAll(models.EndReasonServerShutdown) {
		metrics.RoomsEndedTotal.WithLabelValues(ended.Reason).Inc()
		for _, uid := range ended.Participants {
			m.sendToUser(uid, models.ServerEvent{
				Type:    models.EventEnded,
				Payload: models.EndedPayload{RoomID: ended.RoomID, Reason: ended.Reason},
			})
		}
	}
	for tid, c := range m.Clients {
		delete(m.Clients, tid)
		c.Close()
		m.Core.Registry.Remove(tid)
	}
}
