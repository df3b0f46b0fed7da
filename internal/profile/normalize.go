// Package profile coerces untrusted client attributes into the
// canonical domain. It never rejects input: unrecognized values become
// not-specified (profiles) or any (preferences), strings are trimmed
// and truncated, keyword lists deduplicated and capped.
package profile

import (
	"strings"
	"unicode/utf8"

	"pairgo/backend/internal/models"
)

var validGenders = map[string]bool{
	models.GenderMale:   true,
	models.GenderFemale: true,
	models.GenderOther:  true,
	models.NotSpecified: true,
}

var validAges = map[string]bool{
	models.Age18to25:    true,
	models.Age26to35:    true,
	models.Age36to45:    true,
	models.Age46Plus:    true,
	models.NotSpecified: true,
}

// NormalizeProfile canonicalizes a raw profile payload.
func NormalizeProfile(raw models.RegisterPayload) models.Profile {
	return models.Profile{
		Gender:   normalizeEnum(raw.Gender, validGenders, models.NotSpecified),
		Age:      normalizeEnum(raw.Age, validAges, models.NotSpecified),
		Location: truncate(strings.TrimSpace(raw.Location), models.MaxLocationLength),
		Keywords: NormalizeKeywords(raw.Keywords),
	}
}

// NormalizePreferences canonicalizes raw matching preferences. The
// extra "any" sentinel is valid here and is also the fallback.
func NormalizePreferences(raw models.FindMatchPayload) models.Preferences {
	chatType := strings.ToLower(strings.TrimSpace(raw.ChatType))
	if chatType != models.ChatTypeVideo {
		chatType = models.ChatTypeText
	}
	return models.Preferences{
		Gender:   normalizePref(raw.Gender, validGenders),
		Age:      normalizePref(raw.Age, validAges),
		Location: truncate(strings.TrimSpace(raw.Location), models.MaxLocationLength),
		Keywords: NormalizeKeywords(raw.Keywords),
		ChatType: chatType,
	}
}

// MergeProfile applies the non-empty fields of raw over base,
// normalizing as it goes. Used by update_profile.
func MergeProfile(base models.Profile, raw models.RegisterPayload) models.Profile {
	if strings.TrimSpace(raw.Gender) != "" {
		base.Gender = normalizeEnum(raw.Gender, validGenders, models.NotSpecified)
	}
	if strings.TrimSpace(raw.Age) != "" {
		base.Age = normalizeEnum(raw.Age, validAges, models.NotSpecified)
	}
	if strings.TrimSpace(raw.Location) != "" {
		base.Location = truncate(strings.TrimSpace(raw.Location), models.MaxLocationLength)
	}
	if raw.Keywords != nil {
		base.Keywords = NormalizeKeywords(raw.Keywords)
	}
	return base
}

// NormalizeKeywords lowercases, trims, truncates and deduplicates the
// keyword list, keeping first occurrences, capped at MaxKeywords.
func NormalizeKeywords(raw []string) []string {
	out := make([]string, 0, models.MaxKeywords)
	seen := make(map[string]bool, len(raw))
	for _, kw := range raw {
		kw = truncate(strings.ToLower(strings.TrimSpace(kw)), models.MaxKeywordLength)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
		if len(out) == models.MaxKeywords {
			break
		}
	}
	return out
}

func normalizeEnum(v string, valid map[string]bool, fallback string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if valid[v] {
		return v
	}
	return fallback
}

func normalizePref(v string, valid map[string]bool) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == models.PrefAny || valid[v] {
		return v
	}
	return models.PrefAny
}

// truncate cuts at max bytes, backing up to a rune boundary so the
// result stays valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
