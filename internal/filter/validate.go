package filter

import (
	"errors"
	"fmt"
	"unicode"
)

// Validation failures. All of them count as violations when the
// dispatcher flags the sender.
var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrTooLong      = errors.New("message exceeds the length limit")
	ErrSuspicious   = errors.New("message matches a suspicious pattern")
)

// Validate checks inbound text before any state change. Suspicious
// patterns: a 5+ same-character run, a 2-3 char sequence repeated to
// 10+ chars, a 10+ uppercase run, a 10+ digit run, or a 5+ symbol run.
func Validate(text string, maxLen int) error {
	if len(text) == 0 {
		return ErrEmptyMessage
	}
	if len(text) > maxLen {
		return fmt.Errorf("%w: %d > %d", ErrTooLong, len(text), maxLen)
	}

	if hasSameCharRun(text, 5) {
		return fmt.Errorf("%w: character run", ErrSuspicious)
	}
	if hasRepeatedPattern(text) {
		return fmt.Errorf("%w: repeated pattern", ErrSuspicious)
	}
	if hasRun(text, 10, unicode.IsUpper) {
		return fmt.Errorf("%w: uppercase run", ErrSuspicious)
	}
	if hasRun(text, 10, unicode.IsDigit) {
		return fmt.Errorf("%w: digit run", ErrSuspicious)
	}
	if hasRun(text, 5, isSymbol) {
		return fmt.Errorf("%w: symbol run", ErrSuspicious)
	}
	return nil
}

// hasRepeatedPattern reports whether any 1-3 rune pattern repeats back
// to back for at least 10 runes. Go regexps have no backreferences, so
// this is a direct scan.
func hasRepeatedPattern(text string) bool {
	runes := []rune(text)
	for period := 1; period <= 3; period++ {
		run := period // the first occurrence counts
		for i := period; i < len(runes); i++ {
			if runes[i] == runes[i-period] {
				run++
				if run >= 10 {
					return true
				}
			} else {
				run = period
			}
		}
	}
	return false
}

// hasSameCharRun reports one rune repeated limit or more times in a
// row. This fires well before hasRepeatedPattern's period-1 case, so
// that case never triggers in practice.
func hasSameCharRun(text string, limit int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= limit {
			return true
		}
	}
	return false
}

func hasRun(text string, limit int, match func(rune) bool) bool {
	run := 0
	for _, r := range text {
		if match(r) {
			run++
			if run >= limit {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

func isSymbol(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}
