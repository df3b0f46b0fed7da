package models

import "time"

// Session представляє одного підключеного клієнта.
// The transport id names the physical connection; the user id is the
// anonymous identity handed out at registration. Both stay stable for
// the lifetime of the connection.
type Session struct {
	UserID      string `json:"user_id"`
	TransportID string `json:"-"`

	Profile     Profile     `json:"profile"`
	Preferences Preferences `json:"preferences"`

	ConnectedAt  time.Time `json:"connected_at"`
	LastActiveAt time.Time `json:"last_active_at"`

	CurrentRoomID string `json:"current_room_id,omitempty"`

	TrustScore     float64     `json:"trust_score"`
	Violations     []Violation `json:"violations,omitempty"`
	ViolationCount int         `json:"violation_count"`
	Banned         bool        `json:"banned"`
	Reported       bool        `json:"reported"`
}

// SessionAge is how long the client has been connected.
func (s *Session) SessionAge(now time.Time) time.Duration {
	return now.Sub(s.ConnectedAt)
}

// IdleFor is how long ago the client last did anything.
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastActiveAt)
}
