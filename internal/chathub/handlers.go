package chathub

import (
	"encoding/json"
	"errors"

	"pairgo/backend/internal/filter"
	"pairgo/backend/internal/matching"
	"pairgo/backend/internal/metrics"
	"pairgo/backend/internal/moderation"
	"pairgo/backend/internal/models"
	"pairgo/backend/internal/profile"
	"pairgo/backend/internal/rooms"
)

// handleEvent routes one inbound frame. Unknown types get a validation
// error instead of a dropped frame so misbehaving clients notice.
func (m *ManagerService) handleEvent(c Client, ev models.ClientEvent) {
	metrics.EventsTotal.WithLabelValues(ev.Type).Inc()

	switch ev.Type {
	case models.EventRegister:
		m.handleRegister(c, ev)
	case models.EventUpdateProfile:
		m.handleUpdateProfile(c, ev)
	case models.EventFindMatch:
		m.handleFindMatch(c, ev)
	case models.EventChatMessage:
		m.handleChatMessage(c, ev)
	case models.EventWebRTCOffer, models.EventWebRTCAnswer, models.EventICECandidate:
		m.handleSignal(c, ev)
	case models.EventWebRTCConnected, models.EventWebRTCDisconnected, models.EventQualityIssue:
		m.handleCallState(c, ev)
	case models.EventTypingStart, models.EventTypingStop:
		m.handleTyping(c, ev)
	case models.EventEndChat:
		m.handleEndChat(c)
	case models.EventReport:
		m.handleReport(c, ev)
	default:
		m.sendError(c, models.ErrCodeValidation, "unknown event type: "+ev.Type)
	}
}

// session resolves the caller or replies with a precondition error.
func (m *ManagerService) session(c Client) (*models.Session, bool) {
	sess, ok := m.Core.Registry.GetByTransport(c.TransportID())
	if !ok {
		m.sendError(c, models.ErrCodePrecondition, "register first")
		return nil, false
	}
	return sess, true
}

// room resolves the caller's active room or replies with a
// precondition error.
func (m *ManagerService) room(c Client, sess *models.Session) (*models.ChatRoom, bool) {
	room, ok := m.Core.Rooms.GetByUser(sess.UserID)
	if !ok {
		m.sendError(c, models.ErrCodePrecondition, "not in a chat")
		return nil, false
	}
	return room, true
}

func (m *ManagerService) handleRegister(c Client, ev models.ClientEvent) {
	var raw models.RegisterPayload
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &raw); err != nil {
			m.sendError(c, models.ErrCodeValidation, "malformed register payload")
			return
		}
	}

	sess, err := m.Core.Registry.Create(c.TransportID(), raw)
	if err != nil {
		m.sendError(c, models.ErrCodePrecondition, "already registered")
		return
	}

	m.send(c, models.ServerEvent{
		Type: models.EventRegistered,
		Payload: models.RegisteredPayload{
			UserID:      sess.UserID,
			OnlineCount: m.Core.Registry.Count(),
		},
	})
	m.broadcastOnlineCount()
	m.updateGauges()
}

func (m *ManagerService) handleUpdateProfile(c Client, ev models.ClientEvent) {
	var raw models.RegisterPayload
	if err := json.Unmarshal(ev.Payload, &raw); err != nil {
		m.sendError(c, models.ErrCodeValidation, "malformed profile payload")
		return
	}
	sess, err := m.Core.Registry.UpdateProfile(c.TransportID(), raw)
	if err != nil {
		m.sendError(c, models.ErrCodePrecondition, "register first")
		return
	}
	m.send(c, models.ServerEvent{Type: models.EventProfileSaved, Payload: sess.Profile})
}

func (m *ManagerService) handleFindMatch(c Client, ev models.ClientEvent) {
	sess, ok := m.session(c)
	if !ok {
		return
	}
	if sess.Banned {
		m.sendError(c, models.ErrCodePrecondition, "account is banned")
		return
	}
	if sess.CurrentRoomID != "" {
		m.sendError(c, models.ErrCodePrecondition, "already in a chat")
		return
	}

	var raw models.FindMatchPayload
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &raw); err != nil {
			m.sendError(c, models.ErrCodeValidation, "malformed find_match payload")
			return
		}
	}
	prefs := profile.NormalizePreferences(raw)
	m.Core.Registry.SetPreferences(sess.UserID, prefs)
	m.Core.Registry.Touch(c.TransportID())

	if _, err := m.Core.Matcher.Enqueue(sess, prefs); err != nil {
		if errors.Is(err, matching.ErrQueueFull) {
			m.sendError(c, models.ErrCodeCapacity, "match queue is full, try again later")
			return
		}
		m.sendError(c, models.ErrCodeInternal, "could not join the queue")
		return
	}

	// An instant pairing skips the background loop entirely.
	if entry, peer, matched := m.Core.Matcher.TryMatchNow(sess.UserID); matched {
		m.startRoom(models.MatchPair{
			UserA:    entry.UserID,
			UserB:    peer.UserID,
			RoomType: entry.Preferences.ChatType,
		})
		return
	}

	m.send(c, models.ServerEvent{
		Type: models.EventQueued,
		Payload: models.QueuedPayload{
			Position:    m.Core.Matcher.Position(sess.UserID),
			OnlineCount: m.Core.Registry.Count(),
		},
	})
	m.updateGauges()
}

func (m *ManagerService) handleChatMessage(c Client, ev models.ClientEvent) {
	sess, ok := m.session(c)
	if !ok {
		return
	}
	room, ok := m.room(c, sess)
	if !ok {
		return
	}

	var payload models.ChatMessagePayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		m.sendError(c, models.ErrCodeValidation, "malformed chat_message payload")
		return
	}

	if err := filter.Validate(payload.Text, m.Core.Filter.MaxLen()); err != nil {
		// Rejected input is a spam signal against the sender.
		flagged, _ := m.Core.Registry.Flag(sess.UserID, moderation.ViolationSpam)
		metrics.ViolationsTotal.WithLabelValues(moderation.ViolationSpam).Inc()
		m.sendError(c, models.ErrCodeValidation, err.Error())
		if flagged != nil && flagged.Banned {
			// The sender stays connected but banned; their room ends
			// and any later find_match is refused.
			m.endRoomNotify(room.RoomID, models.EndReasonDisconnected, sess.UserID, nil)
		}
		return
	}

	cleaned := m.Core.Filter.Clean(payload.Text)
	msg, err := m.Core.Rooms.AppendMessage(room.RoomID, sess.UserID, cleaned)
	if err != nil {
		switch {
		case errors.Is(err, rooms.ErrMessageLimit):
			m.sendError(c, models.ErrCodeCapacity, "message limit reached")
			m.endRoomNotify(room.RoomID, models.EndReasonMessageLimit, "", nil)
		case errors.Is(err, rooms.ErrRoomClosed), errors.Is(err, rooms.ErrNotParticipant):
			m.sendError(c, models.ErrCodePrecondition, "not in a chat")
		default:
			m.sendError(c, models.ErrCodeInternal, "could not deliver the message")
		}
		return
	}

	m.Core.Registry.Touch(c.TransportID())
	metrics.MessagesTotal.Inc()

	if !m.relayToPeer(room, sess.UserID, models.ServerEvent{
		Type: models.EventChatMessage,
		Payload: models.PeerMessagePayload{
			MessageID:  msg.MessageID,
			SenderType: "stranger",
			Text:       msg.Text,
			Sequence:   msg.Sequence,
			Timestamp:  msg.Timestamp,
		},
	}) {
		return
	}
	m.send(c, models.ServerEvent{
		Type: models.EventMessageSent,
		Payload: models.MessageSentPayload{
			MessageID: msg.MessageID,
			Sequence:  msg.Sequence,
			Timestamp: msg.Timestamp,
		},
	})
}

// handleSignal relays WebRTC negotiation blobs verbatim. The payload is
// never parsed; only the envelope and the sender tag are ours.
func (m *ManagerService) handleSignal(c Client, ev models.ClientEvent) {
	sess, ok := m.session(c)
	if !ok {
		return
	}
	room, ok := m.room(c, sess)
	if !ok {
		return
	}

	m.Core.Rooms.RecordActivity(room.RoomID, rooms.ActivitySignal, ev.Type)
	m.Core.Registry.Touch(c.TransportID())

	m.relayToPeer(room, sess.UserID, models.ServerEvent{
		Type: ev.Type,
		Payload: models.SignalPayload{
			SenderID: sess.UserID,
			Signal:   ev.Payload,
		},
	})
}

// handleCallState feeds WebRTC connection notifications into room
// analytics. Nothing is forwarded to the peer.
func (m *ManagerService) handleCallState(c Client, ev models.ClientEvent) {
	sess, ok := m.session(c)
	if !ok {
		return
	}
	room, ok := m.room(c, sess)
	if !ok {
		return
	}

	var kind, detail string
	switch ev.Type {
	case models.EventWebRTCConnected:
		kind = rooms.ActivityWebRTCConnect
	case models.EventWebRTCDisconnected:
		kind = rooms.ActivityWebRTCDisconnect
	case models.EventQualityIssue:
		kind = rooms.ActivityQualityIssue
		var payload struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(ev.Payload, &payload) == nil {
			detail = payload.Detail
		}
	}
	m.Core.Rooms.RecordActivity(room.RoomID, kind, detail)
	m.Core.Registry.Touch(c.TransportID())
}

func (m *ManagerService) handleTyping(c Client, ev models.ClientEvent) {
	sess, ok := m.session(c)
	if !ok {
		return
	}
	room, ok := m.room(c, sess)
	if !ok {
		return
	}

	m.Core.Rooms.RecordActivity(room.RoomID, rooms.ActivityTyping, "")
	m.Core.Registry.Touch(c.TransportID())

	m.relayToPeer(room, sess.UserID, models.ServerEvent{
		Type:    models.EventPeerTyping,
		Payload: models.PeerTypingPayload{Typing: ev.Type == models.EventTypingStart},
	})
}

func (m *ManagerService) handleEndChat(c Client) {
	sess, ok := m.session(c)
	if !ok {
		return
	}
	room, ok := m.room(c, sess)
	if !ok {
		return
	}

	peer := room.PeerOf(sess.UserID)
	m.endRoomNotify(room.RoomID, models.EndReasonUserAction, sess.UserID, map[string]string{
		sess.UserID: models.EndReasonUserAction,
		peer:        models.ReasonStrangerLeft,
	})
}

func (m *ManagerService) handleReport(c Client, ev models.ClientEvent) {
	sess, ok := m.session(c)
	if !ok {
		return
	}
	room, ok := m.room(c, sess)
	if !ok {
		return
	}

	var payload models.ReportPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || !moderation.ValidReason(payload.Reason) {
		m.sendError(c, models.ErrCodeValidation, "invalid report reason")
		return
	}

	peerID := room.PeerOf(sess.UserID)
	m.Core.Registry.Flag(peerID, moderation.ViolationReported)
	metrics.ViolationsTotal.WithLabelValues(moderation.ViolationReported).Inc()
	m.log.Info().Str("reporter", sess.UserID).Str("reported", peerID).
		Str("reason", payload.Reason).Msg("user reported")

	if moderation.Severe(payload.Reason) {
		m.endRoomNotify(room.RoomID, models.EndReasonReportedPrefix+payload.Reason, sess.UserID, nil)
		return
	}
	m.send(c, models.ServerEvent{Type: models.EventReportAck})
}
