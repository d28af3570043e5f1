// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/feedarr/internal/parser"
)

func TestIsAdmissible(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()

	tests := []struct {
		title string
		want  bool
	}{
		{"Movie.Name.2019.1080p.WEB-DL.DDP5.1.x264", true},
		{"Movie.Name.2019.2160p.WEB-DL.x265", true},
		{"Movie.Name.2019.720p.WEB-DL.x265", false},
		{"Movie.Name.2019.720p.WEB-DL.x264", true},
		{"Movie.Name.2019.480p.WEB-DL.x264", false},
		{"Movie.Name.2019.WEB-DL.x264", false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsAdmissible(parser.Parse(tt.title, ""), policy))
		})
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()
	rel := parser.Parse("Movie.Name.2019.1080p.WEB-DL.DDP5.1.x264", "")

	// 30 resolution + 15 source + 8 codec + 6 audio + 10 preferred codec
	assert.InDelta(t, 69, Score(rel, policy, Signals{}), 0.001)
	assert.InDelta(t, 74, Score(rel, policy, Signals{PreferredLanguage: true}), 0.001)
	assert.InDelta(t, 49, Score(rel, policy, Signals{IsDubbed: true}), 0.001)

	rel.SizeMB = 1550
	assert.InDelta(t, 84.5, Score(rel, policy, Signals{}), 0.001)

	rel.SizeMB = 9000
	assert.InDelta(t, 99, Score(rel, policy, Signals{}), 0.001)

	policy.SizeBonusEnabled = false
	assert.InDelta(t, 69, Score(rel, policy, Signals{}), 0.001)
}

func TestScore_DiscouragedCodecPenalty(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()
	rel := parser.Parse("Movie.Name.2019.720p.HDTV.x265", "")

	// 15 resolution + 5 source + 10 codec - 15 discouraged
	assert.InDelta(t, 15, Score(rel, policy, Signals{}), 0.001)
}

func TestScore_AudioFirstMatchWins(t *testing.T) {
	t.Parallel()

	policy := Policy{
		AudioWeights: []SubstringWeight{
			{Match: "DDP", Points: 6},
			{Match: "5.1", Points: 3},
		},
	}
	rel := parser.Release{AudioTrack: "DDP 5.1"}
	assert.InDelta(t, 6, Score(rel, policy, Signals{}), 0.001)

	rel.AudioTrack = parser.Unknown
	assert.InDelta(t, 0, Score(rel, policy, Signals{}), 0.001)
}

func TestScore_RoundsToTwoDecimals(t *testing.T) {
	t.Parallel()

	policy := Policy{SizeBonusEnabled: true}
	rel := parser.Release{SizeMB: 123.4567}
	assert.Equal(t, 1.23, Score(rel, policy, Signals{}))
}

func TestIsDubbed(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDubbed("hi", []string{"en"}))
	assert.False(t, IsDubbed("hi", []string{"en", "hi"}))
	assert.False(t, IsDubbed("", []string{"en"}))
	assert.False(t, IsDubbed("hi", nil))
	assert.False(t, IsDubbed("EN", []string{"en"}))
}

func TestHasPreferredLanguage(t *testing.T) {
	t.Parallel()

	assert.True(t, HasPreferredLanguage([]string{"ta", "en"}, []string{"en"}))
	assert.False(t, HasPreferredLanguage([]string{"ta"}, []string{"en"}))
	assert.False(t, HasPreferredLanguage(nil, []string{"en"}))
}

func TestDecideUpgrade(t *testing.T) {
	t.Parallel()

	policy := Policy{UpgradeThreshold: 10, MinSizeIncreasePercentForUpgrade: 25}

	tests := []struct {
		name         string
		newScore     float64
		existing     float64
		newSize      float64
		existingSize float64
		minSize      float64
		upgrade      bool
	}{
		{"score ok but size too small", 52, 40, 5150, 5000, 25, false},
		{"score and size ok", 52, 40, 7000, 5000, 25, true},
		{"score delta too small", 45, 40, 7000, 5000, 25, false},
		{"unknown sizes", 80, 40, 0, 5000, 25, false},
		{"unknown new size without size margin", 80, 40, 0, 5000, 0, false},
		{"unknown held size without size margin", 80, 40, 5000, 0, 0, false},
		{"no size margin and known sizes", 80, 40, 4000, 5000, 0, false},
		{"no size margin and same size", 80, 40, 5000, 5000, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := Policy{UpgradeThreshold: 10, MinSizeIncreasePercentForUpgrade: tt.minSize}
			d := DecideUpgrade(tt.newScore, tt.existing, tt.newSize, tt.existingSize, p)
			assert.Equal(t, tt.upgrade, d.Upgrade)
		})
	}

	d := DecideUpgrade(52, 40, 5150, 5000, policy)
	assert.InDelta(t, 12, d.ScoreDelta, 0.001)
	assert.InDelta(t, 3, d.SizeDeltaPercent, 0.001)
	assert.True(t, d.SizeKnown)
}

func TestEstimateExistingScore(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()

	// 15 resolution + 5 source + 8 codec
	assert.InDelta(t, 28, EstimateExistingScore("Movie.2010.720p.HDTV.x264.mkv", 0, policy), 0.001)

	policy.SizeBonusEnabled = false
	assert.InDelta(t, 25, EstimateExistingScore("random.mkv", 2500, policy), 0.001)
	assert.InDelta(t, 30, EstimateExistingScore("random.mkv", 5000, policy), 0.001)
	assert.InDelta(t, 0, EstimateExistingScore("random.mkv", 0, policy), 0.001)
}

func TestPolicyValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultPolicy().Validate())

	assert.Error(t, Policy{}.Validate())

	bad := DefaultPolicy()
	bad.Resolutions["1440p"] = ResolutionRule{Allowed: true}
	assert.Error(t, bad.Validate())

	bad = DefaultPolicy()
	bad.AudioWeights = append(bad.AudioWeights, SubstringWeight{Match: " "})
	assert.Error(t, bad.Validate())
}
