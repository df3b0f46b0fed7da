package models

import "time"

// Room lifecycle states.
const (
	RoomStateActive = "active"
	RoomStateEnded  = "ended"
)

// End reasons from the termination matrix.
const (
	EndReasonUserAction     = "user_action"
	EndReasonDisconnected   = "stranger_disconnected"
	EndReasonInactive       = "inactive_timeout"
	EndReasonTimeout        = "timeout"
	EndReasonMessageLimit   = "message_limit_reached"
	EndReasonInternal       = "internal_error"
	EndReasonServerShutdown = "server_shutdown"
	EndReasonReportedPrefix = "reported_" // + report reason
)

// Room caps.
const (
	MaxRoomMessages      = 1000
	AnalyticsSampleLimit = 50
	QualityIssueLimit    = 20
)

// ChatRoom represents a 1-on-1 chat session between two users.
// It holds the state of the chat, including participants and its
// message log, which lives only as long as the room itself.
type ChatRoom struct {
	RoomID string `json:"room_id"`
	// Exactly two participants, in pairing order.
	Participants [2]string `json:"participants"`
	Type         string    `json:"type"`
	State        string    `json:"state"`

	CreatedAt      time.Time  `json:"created_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`

	Messages  []ChatMessage `json:"messages"`
	Analytics RoomAnalytics `json:"analytics"`

	EndReason string `json:"end_reason,omitempty"`
	EndedBy   string `json:"ended_by,omitempty"`
}

// HasParticipant reports whether userID belongs to the room.
func (r *ChatRoom) HasParticipant(userID string) bool {
	return r.Participants[0] == userID || r.Participants[1] == userID
}

// PeerOf returns the other participant, or "" if userID is not in the room.
func (r *ChatRoom) PeerOf(userID string) string {
	switch userID {
	case r.Participants[0]:
		return r.Participants[1]
	case r.Participants[1]:
		return r.Participants[0]
	}
	return ""
}

// RoomAnalytics accumulates per-room engagement signals while the room
// is active. Response times keep only the most recent 50 samples.
type RoomAnalytics struct {
	ResponseTimes []time.Duration `json:"response_times"`
	SilentPeriods int             `json:"silent_periods"`
	ActiveTime    time.Duration   `json:"active_time"`

	WebRTCConnectedAt *time.Time    `json:"webrtc_connected_at,omitempty"`
	WebRTCDuration    time.Duration `json:"webrtc_duration"`

	QualityIssues []string `json:"quality_issues,omitempty"`
}

// RoomSummary is the final, immutable record of a closed room. These go
// into the in-memory history ring; nothing outlives the process.
type RoomSummary struct {
	RoomID          string        `json:"room_id"`
	Type            string        `json:"type"`
	Duration        time.Duration `json:"duration"`
	MessageCount    int           `json:"message_count"`
	EndReason       string        `json:"end_reason"`
	EndedBy         string        `json:"ended_by,omitempty"`
	EngagementScore float64       `json:"engagement_score"`
	WebRTCDuration  time.Duration `json:"webrtc_duration"`
	CreatedAt       time.Time     `json:"created_at"`
	EndedAt         time.Time     `json:"ended_at"`
}
