// Package filter cleans outbound chat text (profanity, links, emails,
// phone numbers) and validates inbound text against abuse patterns.
package filter

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxMessageLength bounds chat messages when no config is given.
const DefaultMaxMessageLength = 500

var (
	linkRe  = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+)`)
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`\d{3}[-.\s]\d{3}[-.\s]\d{4}`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// highSeverity tokens are cut out entirely.
var highSeverity = []string{
	"fuck", "shit", "bitch", "asshole", "bastard", "cunt", "whore", "slut", "dick",
}

// mediumSeverity tokens are masked only in strict mode.
var mediumSeverity = []string{
	"idiot", "stupid", "moron", "dumbass", "loser", "jerk", "crap", "douche",
}

var (
	highRe   = wordListRe(highSeverity)
	mediumRe = wordListRe(mediumSeverity)
)

func wordListRe(words []string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)
}

// Filter applies the configured cleaning pipeline to message text.
type Filter struct {
	enabled bool
	strict  bool
	maxLen  int
}

// New builds a filter. With enabled=false only whitespace collapsing
// and truncation apply.
func New(enabled, strict bool, maxLen int) *Filter {
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLength
	}
	return &Filter{enabled: enabled, strict: strict, maxLen: maxLen}
}

// MaxLen returns the configured message length cap.
func (f *Filter) MaxLen() int { return f.maxLen }

// Clean runs the pipeline in order: high-severity removal, strict
// masking, whitespace collapse, link/email/phone scrubbing, truncation.
func (f *Filter) Clean(text string) string {
	if f.enabled {
		text = highRe.ReplaceAllString(text, "[REMOVED]")
		if f.strict {
			text = mediumRe.ReplaceAllStringFunc(text, func(m string) string {
				return strings.Repeat("*", len(m))
			})
		}
	}

	text = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))

	if f.enabled {
		text = linkRe.ReplaceAllString(text, "[LINK REMOVED]")
		text = emailRe.ReplaceAllString(text, "[EMAIL REMOVED]")
		text = phoneRe.ReplaceAllString(text, "[PHONE REMOVED]")
	}

	if len(text) > f.maxLen {
		text = truncate(text, f.maxLen)
	}
	return text
}

// truncate cuts at max bytes, backing up to a rune boundary so the
// result stays valid UTF-8.
func truncate(s string, max int) string {
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
