// Package moderation holds the report taxonomy and the thresholds that
// drive trust decay and automatic bans.
package moderation

// Report reasons accepted from clients.
const (
	ReasonHarassment    = "harassment"
	ReasonInappropriate = "inappropriate"
	ReasonSpam          = "spam"
	ReasonOther         = "other"
)

// Violation kinds recorded against a session.
const (
	ViolationSpam     = "spam"
	ViolationReported = "reported"
)

// Trust and ban thresholds. TrustScore starts at 1.0; every flag costs
// TrustPenalty. A session is banned once it crosses either threshold.
const (
	TrustPenalty      = 0.1
	BanTrustThreshold = 0.3
	BanViolationCount = 5
)

var validReasons = map[string]bool{
	ReasonHarassment:    true,
	ReasonInappropriate: true,
	ReasonSpam:          true,
	ReasonOther:         true,
}

// severe reasons terminate the room in addition to flagging the user.
var severeReasons = map[string]bool{
	ReasonHarassment:    true,
	ReasonInappropriate: true,
	ReasonSpam:          true,
}

// ValidReason reports whether the client-supplied reason is recognized.
func ValidReason(reason string) bool {
	return validReasons[reason]
}

// Severe reports whether a report reason ends the room.
func Severe(reason string) bool {
	return severeReasons[reason]
}
