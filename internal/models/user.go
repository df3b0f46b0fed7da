package models

import "time"

// Canonical attribute domains. Anything a client sends outside these
// sets is coerced by the profile normalizer, never rejected.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"

	Age18to25 = "18-25"
	Age26to35 = "26-35"
	Age36to45 = "36-45"
	Age46Plus = "46+"

	// NotSpecified is the fallback for unrecognized profile values.
	NotSpecified = "not-specified"
	// PrefAny is the preference sentinel meaning "no constraint".
	PrefAny = "any"

	ChatTypeText  = "text"
	ChatTypeVideo = "video"
)

// Profile limits enforced by the normalizer.
const (
	MaxKeywords       = 10
	MaxKeywordLength  = 50
	MaxLocationLength = 100
)

// Profile holds the sanitized attributes a user declared about themselves.
type Profile struct {
	Gender   string   `json:"gender"`
	Age      string   `json:"age"`
	Location string   `json:"location"`
	Keywords []string `json:"keywords"`
}

// Preferences describe the desired counterpart. Same domains as Profile
// with the extra "any" sentinel, plus the kind of chat requested.
type Preferences struct {
	Gender   string   `json:"gender"`
	Age      string   `json:"age"`
	Location string   `json:"location"`
	Keywords []string `json:"keywords"`
	ChatType string   `json:"chat_type"`
}

// Violation is one entry in a session's violation log.
type Violation struct {
	Kind string    `json:"kind"`
	At   time.Time `json:"at"`
}
