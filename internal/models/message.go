package models

import "time"

// MessageTypeUser marks ordinary relayed chat messages.
const MessageTypeUser = "user"

// ChatMessage is one message stored in a room and relayed to the peer.
// Sequence is assigned by the room manager and is strictly monotonic
// within a room, starting at 1.
type ChatMessage struct {
	MessageID string    `json:"message_id"`
	RoomID    string    `json:"room_id"`
	SenderID  string    `json:"sender_id"`
	Sequence  int       `json:"sequence"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
}
