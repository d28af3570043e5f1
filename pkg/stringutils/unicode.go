// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package stringutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	unicodeNormalizer  = NewNormalizer(normalizerTTL, normalizeUnicodeInner)
	matchingNormalizer = NewNormalizer(normalizerTTL, normalizedForMatching)
)

// letters NFKD leaves alone because they are distinct letters, not composed characters
var nordicReplacer = strings.NewReplacer(
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O",
	"ß", "ss",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "TH",
)

var punctuationReplacer = strings.NewReplacer(
	"'", "",
	"’", "",
	"‘", "",
	"`", "",
	":", " ",
	"&", " and ",
	"-", " ",
	".", " ",
	"_", " ",
	",", " ",
	"!", "",
	"?", "",
	"(", " ",
	")", " ",
	"[", " ",
	"]", " ",
)

func normalizeUnicodeInner(s string) string {
	s = nordicReplacer.Replace(s)

	// transform.Chain is not safe for concurrent use, build it per call
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

func normalizedForMatching(s string) string {
	s = unicodeNormalizer.Normalize(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = punctuationReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeUnicode removes diacritics and decomposes ligatures.
//   - "Shōgun" → "Shogun"
//   - "Amélie" → "Amelie"
func NormalizeUnicode(s string) string {
	return unicodeNormalizer.Normalize(s)
}

// NormalizeForMatching applies the full comparison normalization used for
// title similarity and identity keys:
//   - "Shōgun S01" → "shogun s01"
//   - "Bob's Burgers" → "bobs burgers"
//   - "CSI: Miami" → "csi miami"
//   - "Spider-Man" → "spider man"
//   - "His & Hers" → "his and hers"
func NormalizeForMatching(s string) string {
	return matchingNormalizer.Normalize(s)
}

// Words splits a normalized string into its words.
func Words(s string) []string {
	return strings.Fields(NormalizeForMatching(s))
}
