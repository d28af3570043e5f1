// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "The Office", "The Office", 1},
		{"normalization", "Shōgun", "Shogun", 1},
		{"ampersand", "His & Hers", "His and Hers", 1},
		{"containment", "The Office", "The Office (US)", ContainmentScore},
		{"overlap beats containment", "Star Wars The Clone Wars", "Star Wars The Clone Wars 2008", 5.0 / 6.0},
		{"containment needs word boundary", "Cars", "Oscars", 0},
		{"half overlap", "Movie Name", "Other Name", 0.5},
		{"empty", "", "Movie", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 0.0001)
		})
	}
}

func TestYearMatches(t *testing.T) {
	t.Parallel()

	assert.True(t, YearMatches(2019, 2019))
	assert.True(t, YearMatches(2019, 2020))
	assert.False(t, YearMatches(2019, 2021))
	assert.True(t, YearMatches(0, 2020))
	assert.True(t, YearMatches(2020, 0))
}

func TestKeyWordsPresent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     string
		candidate string
		want      bool
	}{
		{"stop words ignored", "The Office", "Office Space", true},
		{"typo tolerated", "Breaking Bad", "Braking Bad", true},
		{"missing word", "Breaking Bad", "Breaking News", false},
		{"short words are exact", "Lost", "Last", false},
		{"only stop words", "The", "Anything", true},
		{"empty candidate", "Show", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, KeyWordsPresent(tt.query, tt.candidate))
		})
	}
}

func TestValidatorEvaluate(t *testing.T) {
	t.Parallel()

	v := NewValidator(0)
	assert.InDelta(t, DefaultSimilarityFloor, v.Floor, 0.0001)

	tests := []struct {
		name      string
		query     Query
		candidate Candidate
		rule      Rule
	}{
		{"exact", Query{Name: "Kurukshetra", Year: 2022}, Candidate{Title: "Kurukshetra", Year: 2022}, RuleAccepted},
		{"year mismatch", Query{Name: "Kurukshetra", Year: 2022}, Candidate{Title: "Kurukshetra", Year: 2008}, RuleYearMismatch},
		{"season skips year", Query{Name: "Kurukshetra", Year: 2022, HasSeason: true}, Candidate{Title: "Kurukshetra", Year: 2008}, RuleAccepted},
		{"unknown candidate year", Query{Name: "Kurukshetra", Year: 2022}, Candidate{Title: "Kurukshetra"}, RuleAccepted},
		{"below floor", Query{Name: "Kurukshetra"}, Candidate{Title: "Totally Different"}, RuleBelowFloor},
		{"key word missing", Query{Name: "Movie Name Returns"}, Candidate{Title: "Movie Name"}, RuleKeyWords},
		{"empty title", Query{Name: "Movie"}, Candidate{}, RuleEmptyTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := v.Evaluate(tt.query, tt.candidate)
			assert.Equal(t, tt.rule, got.Rule)
			assert.Equal(t, tt.rule == RuleAccepted, got.Accepted)
		})
	}
}

func TestBest(t *testing.T) {
	t.Parallel()

	verdicts := []Verdict{
		{Score: 0.8, Accepted: true},
		{Score: 0.8, Accepted: true, YearMatch: true},
		{Score: 0.9, Accepted: false},
	}
	assert.Equal(t, 1, Best(verdicts))

	assert.Equal(t, -1, Best([]Verdict{{Score: 1}}))
	assert.Equal(t, -1, Best(nil))
}
