package matching

import (
	"strings"

	"pairgo/backend/internal/models"
)

// Attribute weights of the compatibility score. They sum to 1.0.
const (
	weightGender    = 0.30
	weightAge       = 0.20
	weightLocation  = 0.15
	weightInterests = 0.25
	weightTrust     = 0.10
)

// CompatibilityScore rates how well two sessions fit each other, in
// [0,1]. It is symmetric: Score(a,b) == Score(b,a).
func CompatibilityScore(a, b *models.Session) float64 {
	return weightGender*genderScore(a, b) +
		weightAge*ageScore(a, b) +
		weightLocation*locationScore(a.Profile.Location, b.Profile.Location) +
		weightInterests*interestScore(a.Profile.Keywords, b.Profile.Keywords) +
		weightTrust*trustScore(a.TrustScore, b.TrustScore)
}

func genderScore(a, b *models.Session) float64 {
	aPref, bPref := a.Preferences.Gender, b.Preferences.Gender
	if prefOpen(aPref) && prefOpen(bPref) {
		return 1.0
	}
	score := 0.0
	if genderSatisfied(aPref, b.Profile.Gender) {
		score += 0.5
	}
	if genderSatisfied(bPref, a.Profile.Gender) {
		score += 0.5
	}
	return score
}

func genderSatisfied(pref, actual string) bool {
	return prefOpen(pref) || pref == actual
}

func ageScore(a, b *models.Session) float64 {
	aAge, bAge := a.Profile.Age, b.Profile.Age
	// Unknown bucket on either side is neutral.
	if aAge == models.NotSpecified || aAge == "" || bAge == models.NotSpecified || bAge == "" {
		return 0.5
	}
	if aAge == bAge {
		return 1.0
	}
	score := 0.0
	if agePrefSatisfied(a.Preferences.Age, bAge) {
		score += 0.5
	}
	if agePrefSatisfied(b.Preferences.Age, aAge) {
		score += 0.5
	}
	return score
}

func agePrefSatisfied(pref, actual string) bool {
	return prefOpen(pref) || pref == actual
}

func prefOpen(pref string) bool {
	return pref == "" || pref == models.PrefAny || pref == models.NotSpecified
}

func locationScore(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	switch {
	case a == "" || b == "":
		return 0.5
	case a == b:
		return 1.0
	case country(a) == country(b):
		return 0.8
	case strings.Contains(a, b) || strings.Contains(b, a):
		return 0.6
	}
	return 0.3
}

// country is the segment before the first comma. "Kyiv, Ukraine" and
// "Kyiv, Oblast" share it; coarse but cheap.
func country(loc string) string {
	if i := strings.IndexByte(loc, ','); i >= 0 {
		return strings.TrimSpace(loc[:i])
	}
	return loc
}

func interestScore(a, b []string) float64 {
	setA := keywordSet(a)
	setB := keywordSet(b)

	switch {
	case len(setA) == 0 && len(setB) == 0:
		return 0.5
	case len(setA) == 0 || len(setB) == 0:
		return 0.4
	}

	shared := 0
	for kw := range setA {
		if setB[kw] {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared

	score := float64(shared)/float64(union) + min(0.3, 0.1*float64(shared))
	if score > 1.0 {
		return 1.0
	}
	return score
}

func keywordSet(kws []string) map[string]bool {
	set := make(map[string]bool, len(kws))
	for _, kw := range kws {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			set[kw] = true
		}
	}
	return set
}

func trustScore(a, b float64) float64 {
	mean := (a + b) / 2
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return mean * (1 - 0.5*diff)
}
