// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package quality

import (
	"math"
	"strings"

	"github.com/autobrr/feedarr/internal/parser"
)

// Signals are the catalog-derived facts the score depends on.
type Signals struct {
	IsDubbed          bool
	PreferredLanguage bool
}

// IsAdmissible reports whether the policy accepts the release at all: its
// resolution needs an allowing rule and its codec must not be discouraged there.
func IsAdmissible(r parser.Release, p Policy) bool {
	rule, ok := p.rule(r.Resolution)
	if !ok || !rule.Allowed {
		return false
	}
	return !containsFold(rule.DiscouragedCodecs, string(r.Codec))
}

// Score ranks a release under the policy. Higher is better; the result is
// rounded to two decimals.
func Score(r parser.Release, p Policy, s Signals) float64 {
	total := lookupFold(p.ResolutionWeights, string(r.Resolution)) +
		lookupFold(p.SourceWeights, r.SourceTag) +
		lookupFold(p.CodecWeights, string(r.Codec)) +
		audioWeight(r.AudioTrack, p.AudioWeights)

	if rule, ok := p.rule(r.Resolution); ok {
		if containsFold(rule.PreferredCodecs, string(r.Codec)) {
			total += PreferredCodecBonus
		}
		if containsFold(rule.DiscouragedCodecs, string(r.Codec)) {
			total -= DiscouragedCodecPenalty
		}
	}

	if p.SizeBonusEnabled && r.HasSize() {
		total += SizeBonus(r.SizeMB)
	}
	if s.PreferredLanguage {
		total += p.PreferredLanguageBonus
	}
	if s.IsDubbed {
		total -= p.DubbedPenalty
	}

	return round2(total)
}

// ScoreFor derives the signals from the catalog's original language and
// scores the release.
func ScoreFor(r parser.Release, p Policy, originalLanguage string) float64 {
	return Score(r, p, Signals{
		IsDubbed:          IsDubbed(originalLanguage, r.AudioLanguages),
		PreferredLanguage: HasPreferredLanguage(r.AudioLanguages, p.PreferredAudioLanguages),
	})
}

// SizeBonus is one point per 100 MB, capped at MaxSizeBonus.
func SizeBonus(sizeMB float64) float64 {
	if sizeMB <= 0 {
		return 0
	}
	return math.Min(sizeMB/100, MaxSizeBonus)
}

func audioWeight(label string, weights []SubstringWeight) float64 {
	if label == "" || label == parser.Unknown {
		return 0
	}
	lower := strings.ToLower(label)
	for _, w := range weights {
		if strings.Contains(lower, strings.ToLower(w.Match)) {
			return w.Points
		}
	}
	return 0
}

// IsDubbed reports whether the release audio is in a language other than the
// catalog item's original one. It needs a known original language and at
// least one detected audio language.
func IsDubbed(originalLanguage string, audioLanguages []string) bool {
	original := languagePrefix(originalLanguage)
	if original == "" || len(audioLanguages) == 0 {
		return false
	}
	for _, lang := range audioLanguages {
		if languagePrefix(lang) == original {
			return false
		}
	}
	return true
}

// HasPreferredLanguage reports whether any detected language is preferred.
func HasPreferredLanguage(audioLanguages, preferred []string) bool {
	for _, lang := range audioLanguages {
		for _, want := range preferred {
			if prefix := languagePrefix(want); prefix != "" && languagePrefix(lang) == prefix {
				return true
			}
		}
	}
	return false
}

func languagePrefix(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) < 2 {
		return ""
	}
	return code[:2]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
