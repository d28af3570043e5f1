// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package quality decides whether a release is acceptable and how it ranks
// against the copy already held.
package quality

import (
	"fmt"
	"strings"

	"github.com/autobrr/feedarr/internal/parser"
)

// ResolutionRule is the policy for one resolution. A resolution without a
// rule is never admissible.
type ResolutionRule struct {
	Allowed           bool     `toml:"allowed" mapstructure:"allowed" yaml:"allowed" json:"allowed"`
	PreferredCodecs   []string `toml:"preferredCodecs" mapstructure:"preferredCodecs" yaml:"preferredCodecs" json:"preferredCodecs"`
	DiscouragedCodecs []string `toml:"discouragedCodecs" mapstructure:"discouragedCodecs" yaml:"discouragedCodecs" json:"discouragedCodecs"`
}

// SubstringWeight awards Points when Match occurs in a label, ignoring case.
type SubstringWeight struct {
	Match  string  `toml:"match" mapstructure:"match" yaml:"match" json:"match"`
	Points float64 `toml:"points" mapstructure:"points" yaml:"points" json:"points"`
}

// Policy is the quality configuration read once per run.
//
// Weight map keys are matched case-insensitively since the config loader
// lower-cases them.
type Policy struct {
	Resolutions       map[string]ResolutionRule `toml:"resolutions" mapstructure:"resolutions" json:"resolutions"`
	ResolutionWeights map[string]float64        `toml:"resolutionWeights" mapstructure:"resolutionWeights" json:"resolutionWeights"`
	SourceWeights     map[string]float64        `toml:"sourceWeights" mapstructure:"sourceWeights" json:"sourceWeights"`
	CodecWeights      map[string]float64        `toml:"codecWeights" mapstructure:"codecWeights" json:"codecWeights"`
	// AudioWeights are tried in order, the first match counts.
	AudioWeights []SubstringWeight `toml:"audioWeights" mapstructure:"audioWeights" json:"audioWeights"`

	SizeBonusEnabled        bool     `toml:"sizeBonusEnabled" mapstructure:"sizeBonusEnabled" json:"sizeBonusEnabled"`
	PreferredAudioLanguages []string `toml:"preferredAudioLanguages" mapstructure:"preferredAudioLanguages" json:"preferredAudioLanguages"`
	PreferredLanguageBonus  float64  `toml:"preferredLanguageBonus" mapstructure:"preferredLanguageBonus" json:"preferredLanguageBonus"`
	// DubbedPenalty is subtracted from the score of dubbed releases.
	DubbedPenalty float64 `toml:"dubbedPenalty" mapstructure:"dubbedPenalty" json:"dubbedPenalty"`

	UpgradeThreshold                 float64 `toml:"upgradeThreshold" mapstructure:"upgradeThreshold" json:"upgradeThreshold"`
	MinSizeIncreasePercentForUpgrade float64 `toml:"minSizeIncreasePercentForUpgrade" mapstructure:"minSizeIncreasePercentForUpgrade" json:"minSizeIncreasePercentForUpgrade"`
}

const (
	PreferredCodecBonus     = 10.0
	DiscouragedCodecPenalty = 15.0
	MaxSizeBonus            = 30.0
)

// DefaultPolicy allows 2160p, 1080p and 720p, preferring x265 at the top end.
func DefaultPolicy() Policy {
	return Policy{
		Resolutions: map[string]ResolutionRule{
			string(parser.Resolution2160p): {Allowed: true, PreferredCodecs: []string{"x265"}},
			string(parser.Resolution1080p): {Allowed: true, PreferredCodecs: []string{"x265", "x264"}},
			string(parser.Resolution720p):  {Allowed: true, DiscouragedCodecs: []string{"x265"}},
			string(parser.Resolution480p):  {Allowed: false},
		},
		ResolutionWeights: map[string]float64{
			"2160p": 40,
			"1080p": 30,
			"720p":  15,
			"480p":  5,
		},
		SourceWeights: map[string]float64{
			"bluray": 20,
			"web-dl": 15,
			"amzn":   14,
			"nf":     14,
			"dsnp":   13,
			"hmax":   13,
			"atvp":   13,
			"webrip": 10,
			"web":    8,
			"hdtv":   5,
			"dvd":    3,
		},
		CodecWeights: map[string]float64{
			"x265": 10,
			"x264": 8,
		},
		AudioWeights: []SubstringWeight{
			{Match: "atmos", Points: 10},
			{Match: "truehd", Points: 9},
			{Match: "dts-hd", Points: 8},
			{Match: "ddp", Points: 6},
			{Match: "dts", Points: 5},
			{Match: "dd", Points: 4},
			{Match: "aac", Points: 2},
			{Match: "5.1", Points: 3},
			{Match: "2.0", Points: 1},
		},
		SizeBonusEnabled:                 true,
		PreferredAudioLanguages:          []string{"en"},
		PreferredLanguageBonus:           5,
		DubbedPenalty:                    20,
		UpgradeThreshold:                 10,
		MinSizeIncreasePercentForUpgrade: 25,
	}
}

// Validate checks the policy for values that would make every decision
// meaningless.
func (p Policy) Validate() error {
	if len(p.Resolutions) == 0 {
		return fmt.Errorf("quality policy: no resolution rules configured")
	}
	for res := range p.Resolutions {
		switch parser.Resolution(strings.ToLower(res)) {
		case parser.Resolution2160p, parser.Resolution1080p, parser.Resolution720p, parser.Resolution480p:
		default:
			return fmt.Errorf("quality policy: unknown resolution %q", res)
		}
	}
	for i, w := range p.AudioWeights {
		if strings.TrimSpace(w.Match) == "" {
			return fmt.Errorf("quality policy: audio weight %d has an empty match", i)
		}
	}
	if p.UpgradeThreshold < 0 {
		return fmt.Errorf("quality policy: upgradeThreshold must not be negative")
	}
	return nil
}

// rule returns the resolution rule for res, if any.
func (p Policy) rule(res parser.Resolution) (ResolutionRule, bool) {
	for key, r := range p.Resolutions {
		if strings.EqualFold(key, string(res)) {
			return r, true
		}
	}
	return ResolutionRule{}, false
}

func lookupFold(weights map[string]float64, key string) float64 {
	if key == "" {
		return 0
	}
	if w, ok := weights[key]; ok {
		return w
	}
	for k, w := range weights {
		if strings.EqualFold(k, key) {
			return w
		}
	}
	return 0
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}
