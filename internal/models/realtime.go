package models

import (
	"encoding/json"
	"time"
)

// Inbound event types (client → server).
const (
	EventRegister      = "register"
	EventUpdateProfile = "update_profile"
	EventFindMatch     = "find_match"
	EventChatMessage   = "chat_message"
	EventWebRTCOffer   = "webrtc_offer"
	EventWebRTCAnswer  = "webrtc_answer"
	EventICECandidate  = "ice_candidate"
	EventTypingStart   = "typing_start"
	EventTypingStop    = "typing_stop"
	EventEndChat       = "end_chat"
	EventReport        = "report"

	// WebRTC call state notifications, fed into room analytics.
	EventWebRTCConnected    = "webrtc_connected"
	EventWebRTCDisconnected = "webrtc_disconnected"
	EventQualityIssue       = "quality_issue"
)

// Outbound event types (server → client).
const (
	EventRegistered   = "registered"
	EventOnlineCount  = "online_count"
	EventQueued       = "queued"
	EventMatchFound   = "match_found"
	EventMessageSent  = "message_sent"
	EventPeerTyping   = "peer_typing"
	EventEnded        = "ended"
	EventStats        = "stats"
	EventError        = "error"
	EventQueueTimeout = "queue_timeout"
	EventReportAck    = "report_received"
	EventProfileSaved = "profile_updated"
)

// ReasonStrangerLeft is the wire-level end reason shown to the peer
// when the other user ends the chat on purpose.
const ReasonStrangerLeft = "stranger_left"

// ClientEvent is the inbound frame envelope. Payload stays raw until
// the dispatcher knows which schema applies; WebRTC payloads are never
// parsed at all.
type ClientEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerEvent is the outbound frame envelope.
type ServerEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// RegisterPayload carries the raw, untrusted profile of a register or
// update_profile event. All values pass through the normalizer.
type RegisterPayload struct {
	Gender   string   `json:"gender"`
	Age      string   `json:"age"`
	Location string   `json:"location"`
	Keywords []string `json:"keywords"`
}

// FindMatchPayload carries raw matching preferences.
type FindMatchPayload struct {
	Gender   string   `json:"gender"`
	Age      string   `json:"age"`
	Location string   `json:"location"`
	Keywords []string `json:"keywords"`
	ChatType string   `json:"chat_type"`
}

// ChatMessagePayload carries the text of a chat_message event.
type ChatMessagePayload struct {
	Text string `json:"text"`
}

// ReportPayload carries the reason of a report event.
type ReportPayload struct {
	Reason string `json:"reason"`
}

// SignalPayload tags a forwarded WebRTC blob with its sender. Signal is
// copied verbatim from the sender's frame.
type SignalPayload struct {
	SenderID string          `json:"sender_id"`
	Signal   json.RawMessage `json:"signal"`
}

// PeerInfo is the slice of a peer's profile shared on match_found.
type PeerInfo struct {
	Gender   string   `json:"gender"`
	Age      string   `json:"age"`
	Location string   `json:"location"`
	Keywords []string `json:"keywords"`
}

// MatchPair is what the matching engine emits to the dispatcher when
// two queue entries have been paired.
type MatchPair struct {
	UserA    string `json:"user_a"`
	UserB    string `json:"user_b"`
	RoomType string `json:"room_type"`
}

// RegisteredPayload acknowledges a successful register.
type RegisteredPayload struct {
	UserID      string `json:"user_id"`
	OnlineCount int    `json:"online_count"`
}

// OnlineCountPayload is broadcast whenever a session comes or goes.
type OnlineCountPayload struct {
	OnlineCount int `json:"online_count"`
}

// QueuedPayload acknowledges a find_match that did not pair instantly.
type QueuedPayload struct {
	Position    int `json:"position"`
	OnlineCount int `json:"online_count"`
}

// MatchFoundPayload announces a pairing to both peers.
type MatchFoundPayload struct {
	RoomID   string   `json:"room_id"`
	ChatType string   `json:"chat_type"`
	Peer     PeerInfo `json:"peer"`
}

// PeerMessagePayload is a chat message as delivered to the peer.
type PeerMessagePayload struct {
	MessageID  string    `json:"message_id"`
	SenderType string    `json:"sender_type"`
	Text       string    `json:"text"`
	Sequence   int       `json:"sequence"`
	Timestamp  time.Time `json:"timestamp"`
}

// MessageSentPayload acknowledges an accepted chat message to its sender.
type MessageSentPayload struct {
	MessageID string    `json:"message_id"`
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}

// PeerTypingPayload signals the peer's typing state.
type PeerTypingPayload struct {
	Typing bool `json:"typing"`
}

// EndedPayload is the last event delivered for a room.
type EndedPayload struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"`
}

// StatsPayload is broadcast to all sessions every stats tick.
type StatsPayload struct {
	OnlineUsers int `json:"online_users"`
	ActiveRooms int `json:"active_rooms"`
}

// ErrorPayload is the body of an error event. Code is one of the
// taxonomy values: validation, precondition, capacity, internal.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error taxonomy codes surfaced to clients.
const (
	ErrCodeValidation   = "validation"
	ErrCodePrecondition = "precondition"
	ErrCodeCapacity     = "capacity"
	ErrCodeInternal     = "internal"
)
