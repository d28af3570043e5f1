// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package match scores catalog candidates against a release name.
package match

import (
	"math"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/autobrr/feedarr/pkg/stringutils"
)

const (
	// DefaultSimilarityFloor is the minimum Similarity a catalog candidate
	// needs to be considered. Tunable through resolver.similarityFloor.
	DefaultSimilarityFloor = 0.5

	// ContainmentScore is the score awarded when one normalized title contains
	// the other, unless plain word overlap already scores higher.
	ContainmentScore = 0.8

	// YearTolerance is how far apart two years may be and still match. Catalog
	// release dates and scene tags routinely disagree by one year.
	YearTolerance = 1
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "and": {}, "in": {}, "on": {},
	"to": {}, "for": {}, "at": {}, "by": {}, "de": {}, "la": {}, "le": {},
}

// Similarity returns a score in [0, 1] for how alike two titles are.
//
// Both titles are normalized for matching. Identical titles score 1. When one
// title contains the other the score is at least ContainmentScore. Otherwise
// the score is the number of shared words divided by the word count of the
// longer title.
func Similarity(a, b string) float64 {
	na := stringutils.NormalizeForMatching(a)
	nb := stringutils.NormalizeForMatching(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	wa := strings.Fields(na)
	wb := strings.Fields(nb)
	overlap := wordOverlap(wa, wb)

	if containsWords(na, nb) || containsWords(nb, na) {
		return math.Max(ContainmentScore, overlap)
	}
	return overlap
}

func wordOverlap(wa, wb []string) float64 {
	set := make(map[string]int, len(wb))
	for _, w := range wb {
		set[w]++
	}
	shared := 0
	for _, w := range wa {
		if set[w] > 0 {
			set[w]--
			shared++
		}
	}
	longest := max(len(wa), len(wb))
	if longest == 0 {
		return 0
	}
	return float64(shared) / float64(longest)
}

// containsWords reports whether needle occurs in haystack on word boundaries,
// so "cars" is not contained in "oscars".
func containsWords(haystack, needle string) bool {
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

// YearMatches reports whether a candidate year is compatible with the
// expected one. An unknown year (zero) on either side always matches.
func YearMatches(expected, candidate int) bool {
	if expected == 0 || candidate == 0 {
		return true
	}
	diff := expected - candidate
	if diff < 0 {
		diff = -diff
	}
	return diff <= YearTolerance
}

// KeyWords returns the significant words of a title: normalized, without
// stop words and without single letters.
func KeyWords(title string) []string {
	var out []string
	for _, w := range stringutils.Words(title) {
		if _, stop := stopWords[w]; stop {
			continue
		}
		if len(w) < 2 {
			continue
		}
		out = append(out, w)
	}
	return out
}

// KeyWordsPresent reports whether every key word of name appears in
// candidate. Words of five or more letters tolerate a single typo. A name
// made only of stop words has nothing to check and passes.
func KeyWordsPresent(name, candidate string) bool {
	keys := KeyWords(name)
	if len(keys) == 0 {
		return true
	}
	words := stringutils.Words(candidate)
	if len(words) == 0 {
		return false
	}
	for _, key := range keys {
		if !wordPresent(key, words) {
			return false
		}
	}
	return true
}

func wordPresent(key string, words []string) bool {
	for _, w := range words {
		if w == key {
			return true
		}
		if len(key) >= 5 && len(w) >= 5 && fuzzy.LevenshteinDistance(key, w) <= 1 {
			return true
		}
	}
	return false
}
