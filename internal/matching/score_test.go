package matching_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pairgo/backend/internal/matching"
	"pairgo/backend/internal/models"
)

func sessionWith(gender, age, location string, keywords []string, trust float64, prefGender, prefAge string) *models.Session {
	return &models.Session{
		UserID: "u-" + gender + age,
		Profile: models.Profile{
			Gender:   gender,
			Age:      age,
			Location: location,
			Keywords: keywords,
		},
		Preferences: models.Preferences{
			Gender: prefGender,
			Age:    prefAge,
		},
		TrustScore: trust,
	}
}

func TestCompatibilityScore_IsSymmetric(t *testing.T) {
	pairs := [][2]*models.Session{
		{
			sessionWith("male", "18-25", "Kyiv, Ukraine", []string{"music", "chess"}, 1.0, "female", "any"),
			sessionWith("female", "26-35", "Lviv, Ukraine", []string{"music"}, 0.8, "any", "18-25"),
		},
		{
			sessionWith("other", "not-specified", "", nil, 0.5, "any", "any"),
			sessionWith("male", "46+", "Berlin", []string{"travel"}, 1.0, "male", "46+"),
		},
		{
			sessionWith("female", "36-45", "Odesa", []string{"a", "b", "c"}, 0.3, "female", ""),
			sessionWith("female", "36-45", "Odesa", []string{"a", "b", "c"}, 0.3, "female", ""),
		},
	}

	for _, p := range pairs {
		ab := matching.CompatibilityScore(p[0], p[1])
		ba := matching.CompatibilityScore(p[1], p[0])
		assert.InDelta(t, ab, ba, 1e-9, "score must be symmetric")
		assert.GreaterOrEqual(t, ab, 0.0)
		assert.LessOrEqual(t, ab, 1.0)
	}
}

func TestCompatibilityScore_PerfectMatch(t *testing.T) {
	a := sessionWith("male", "18-25", "kyiv", []string{"music", "chess", "art"}, 1.0, "any", "any")
	b := sessionWith("female", "18-25", "kyiv", []string{"music", "chess", "art"}, 1.0, "any", "any")

	// gender 1.0 (both any), age 1.0, location 1.0, interests 1.0
	// (jaccard 1.0 + bonus, clamped), trust 1.0
	assert.InDelta(t, 1.0, matching.CompatibilityScore(a, b), 1e-9)
}

func TestCompatibilityScore_GenderComponent(t *testing.T) {
	tests := []struct {
		name              string
		aPref, bPref      string
		aGender, bGender  string
		wantGenderScore   float64
	}{
		{"both any", "any", "any", "male", "female", 1.0},
		{"both satisfied", "female", "male", "male", "female", 1.0},
		{"one satisfied", "female", "female", "male", "female", 0.5},
		{"neither satisfied", "female", "female", "male", "male", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Hold every non-gender component fixed and recover the
			// gender contribution from the total.
			a := sessionWith(tt.aGender, "18-25", "kyiv", []string{"x"}, 1.0, tt.aPref, "any")
			b := sessionWith(tt.bGender, "18-25", "kyiv", []string{"x"}, 1.0, tt.bPref, "any")
			base := 0.20*1.0 + 0.15*1.0 + 0.25*1.0 + 0.10*1.0

			got := matching.CompatibilityScore(a, b)
			assert.InDelta(t, base+0.30*tt.wantGenderScore, got, 1e-9)
		})
	}
}

func TestCompatibilityScore_AgeNeutralWhenUnknown(t *testing.T) {
	a := sessionWith("male", "not-specified", "kyiv", []string{"x"}, 1.0, "any", "18-25")
	b := sessionWith("male", "18-25", "kyiv", []string{"x"}, 1.0, "any", "18-25")

	base := 0.30*1.0 + 0.15*1.0 + 0.25*1.0 + 0.10*1.0
	assert.InDelta(t, base+0.20*0.5, matching.CompatibilityScore(a, b), 1e-9)
}

func TestCompatibilityScore_LocationTiers(t *testing.T) {
	tests := []struct {
		name     string
		locA     string
		locB     string
		wantTier float64
	}{
		{"exact", "Kyiv, Ukraine", "kyiv, ukraine", 1.0},
		{"same country segment", "Kyiv, Ukraine", "Kyiv, Oblast", 0.8},
		{"substring overlap", "kyiv", "kyiv region", 0.6},
		{"unrelated", "kyiv", "lima", 0.3},
		{"missing one side", "", "kyiv", 0.5},
		{"missing both", "", "", 0.5},
	}

	base := 0.30*1.0 + 0.20*1.0 + 0.25*1.0 + 0.10*1.0
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := sessionWith("male", "18-25", tt.locA, []string{"x"}, 1.0, "any", "any")
			b := sessionWith("male", "18-25", tt.locB, []string{"x"}, 1.0, "any", "any")
			assert.InDelta(t, base+0.15*tt.wantTier, matching.CompatibilityScore(a, b), 1e-9)
		})
	}
}

func TestCompatibilityScore_InterestTiers(t *testing.T) {
	base := 0.30*1.0 + 0.20*1.0 + 0.15*1.0 + 0.10*1.0
	tests := []struct {
		name string
		kwA  []string
		kwB  []string
		want float64
	}{
		{"both empty", nil, nil, 0.5},
		{"one empty", []string{"chess"}, nil, 0.4},
		// jaccard 1/3 + bonus 0.1
		{"partial overlap", []string{"a", "b"}, []string{"b", "c"}, 1.0/3.0 + 0.1},
		// jaccard 1 + bonus capped, clamped to 1.0
		{"identical sets", []string{"a", "b", "c", "d"}, []string{"a", "b", "c", "d"}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := sessionWith("male", "18-25", "kyiv", tt.kwA, 1.0, "any", "any")
			b := sessionWith("male", "18-25", "kyiv", tt.kwB, 1.0, "any", "any")
			assert.InDelta(t, base+0.25*tt.want, matching.CompatibilityScore(a, b), 1e-9)
		})
	}
}

func TestCompatibilityScore_TrustComponent(t *testing.T) {
	base := 0.30*1.0 + 0.20*1.0 + 0.15*1.0 + 0.25*1.0

	// equal trust: mean * 1
	a := sessionWith("male", "18-25", "kyiv", []string{"x"}, 0.6, "any", "any")
	b := sessionWith("male", "18-25", "kyiv", []string{"x"}, 0.6, "any", "any")
	assert.InDelta(t, base+0.10*0.6, matching.CompatibilityScore(a, b), 1e-9)

	// skewed trust: mean 0.6, penalty 1-0.5*0.8 = 0.6
	a.TrustScore, b.TrustScore = 1.0, 0.2
	assert.InDelta(t, base+0.10*(0.6*0.6), matching.CompatibilityScore(a, b), 1e-9)
}
