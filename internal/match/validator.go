// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package match

import "fmt"

// Rule names the check that decided a Verdict.
type Rule string

const (
	RuleAccepted      Rule = "accepted"
	RuleBelowFloor    Rule = "below_similarity_floor"
	RuleKeyWords      Rule = "key_words_missing"
	RuleYearMismatch  Rule = "year_mismatch"
	RuleEmptyTitle    Rule = "empty_title"
	RuleNoCandidates  Rule = "no_candidates"
	RuleManual        Rule = "manual_override"
	RuleLibrary       Rule = "library_match"
	RuleCrossMismatch Rule = "cross_reference_mismatch"
	RuleCrossAgree    Rule = "cross_reference_agrees"
	RuleUnconfirmed   Rule = "single_source"
	RuleEmbeddedID    Rule = "embedded_id"
	RuleLinkedID      Rule = "linked_id"
	RuleWebSearch     Rule = "web_search"
	RuleLookupFailed  Rule = "lookup_failed"
)

// Query is what a candidate is validated against.
type Query struct {
	Name string
	Year int
	// HasSeason disables the year check: seasons of long running shows
	// carry the season's year, not the show's.
	HasSeason bool
}

// Candidate is one catalog search hit.
type Candidate struct {
	Title string
	Year  int
}

// Verdict is the outcome of validating one candidate.
type Verdict struct {
	Score     float64
	Accepted  bool
	Rule      Rule
	YearMatch bool
}

func (v Verdict) String() string {
	return fmt.Sprintf("%s (similarity %.2f)", v.Rule, v.Score)
}

// Validator applies the similarity floor, key word and year rules.
type Validator struct {
	Floor float64
}

// NewValidator returns a Validator, using DefaultSimilarityFloor when floor
// is not positive.
func NewValidator(floor float64) Validator {
	if floor <= 0 {
		floor = DefaultSimilarityFloor
	}
	return Validator{Floor: floor}
}

// Evaluate scores c against q and reports which rule, if any, rejected it.
func (v Validator) Evaluate(q Query, c Candidate) Verdict {
	if c.Title == "" {
		return Verdict{Rule: RuleEmptyTitle}
	}

	verdict := Verdict{
		Score:     Similarity(q.Name, c.Title),
		YearMatch: q.Year > 0 && c.Year > 0 && YearMatches(q.Year, c.Year),
	}

	switch {
	case verdict.Score < v.Floor:
		verdict.Rule = RuleBelowFloor
	case !KeyWordsPresent(q.Name, c.Title):
		verdict.Rule = RuleKeyWords
	case q.Year > 0 && !q.HasSeason && !YearMatches(q.Year, c.Year):
		verdict.Rule = RuleYearMismatch
	default:
		verdict.Rule = RuleAccepted
		verdict.Accepted = true
	}
	return verdict
}

// Best returns the index of the accepted candidate with the highest score,
// ties going to the one whose year matches, then to the earlier one.
// It returns -1 when nothing was accepted.
func Best(verdicts []Verdict) int {
	best := -1
	for i, v := range verdicts {
		if !v.Accepted {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		cur := verdicts[best]
		if v.Score > cur.Score || (v.Score == cur.Score && v.YearMatch && !cur.YearMatch) {
			best = i
		}
	}
	return best
}
