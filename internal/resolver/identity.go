// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package resolver

import (
	"fmt"

	"github.com/autobrr/feedarr/internal/catalog"
	"github.com/autobrr/feedarr/internal/match"
	"github.com/autobrr/feedarr/internal/parser"
	"github.com/autobrr/feedarr/pkg/releases"
)

// Confidence says how an Identity was established.
type Confidence string

const (
	ConfidenceManual         Confidence = "manual-override"
	ConfidenceLibrary        Confidence = "local-library-match"
	ConfidenceCrossValidated Confidence = "cross-validated"
	ConfidenceSingleSource   Confidence = "single-source"
	ConfidenceUnresolved     Confidence = "unresolved"
)

// Identity is the catalog item a release was resolved to. An unresolved
// Identity has no ids and is not an error.
type Identity struct {
	TVDBID           string
	TMDBID           string
	IMDBID           string
	Title            string
	Year             int
	OriginalLanguage string
	PrimaryPoster    string
	SecondaryPoster  string
	Confidence       Confidence

	// Library is the matching local library item, if one was found.
	Library *catalog.LibraryItem
}

// Resolved reports whether any id was found.
func (i Identity) Resolved() bool {
	return i.TVDBID != "" || i.TMDBID != "" || i.IMDBID != ""
}

// ManualIDs are ids set by the user. They are trusted outright and never
// replaced by lookups.
type ManualIDs struct {
	TVDBID string
	TMDBID string
	IMDBID string
}

// Empty reports whether no manual id is set.
func (m ManualIDs) Empty() bool {
	return m.TVDBID == "" && m.TMDBID == "" && m.IMDBID == ""
}

// Input is one resolution request.
type Input struct {
	Name             string
	Kind             releases.Kind
	Season           *int
	Year             int
	ExpectedLanguage string
	Manual           ManualIDs
	// Embedded ids found in the title, description or feed attributes.
	Embedded parser.ExternalIDs
}

func (in Input) kind() releases.Kind {
	switch {
	case in.Kind == releases.KindMovie || in.Kind == releases.KindTV:
		return in.Kind
	case in.Season != nil:
		return releases.KindTV
	default:
		return releases.KindMovie
	}
}

func (in Input) query() match.Query {
	return match.Query{Name: in.Name, Year: in.Year, HasSeason: in.Season != nil}
}

func (in Input) filters() catalog.SearchFilters {
	f := catalog.SearchFilters{Kind: in.kind()}
	if in.Season == nil {
		f.Year = in.Year
	}
	return f
}

// Step names a stage of the waterfall.
type Step string

const (
	StepManual    Step = "manual"
	StepLibrary   Step = "library"
	StepPrimary   Step = "primary"
	StepSecondary Step = "secondary"
	StepCross     Step = "cross-validate"
	StepWebSearch Step = "web-search"
)

// Decision records why a candidate was accepted or rejected.
type Decision struct {
	Step     Step       `json:"step"`
	Source   string     `json:"source,omitempty"`
	ID       string     `json:"id,omitempty"`
	Title    string     `json:"title,omitempty"`
	Score    float64    `json:"score,omitempty"`
	Rule     match.Rule `json:"rule"`
	Accepted bool       `json:"accepted"`
	Note     string     `json:"note,omitempty"`
}

func (d Decision) String() string {
	verb := "rejected"
	if d.Accepted {
		verb = "accepted"
	}
	s := fmt.Sprintf("%s %s %s:%s %q %s (%.2f)", d.Step, verb, d.Source, d.ID, d.Title, d.Rule, d.Score)
	if d.Note != "" {
		s += ": " + d.Note
	}
	return s
}

// Result is an Identity plus the decisions that led to it.
type Result struct {
	Identity Identity
	Trail    []Decision
}

// linkage compares the ids two catalog records cross-reference.
type linkage int

const (
	linkUnknown linkage = iota
	linkAgree
	linkConflict
)

// crossCheck compares a primary catalog record with a secondary one. Any
// disagreement wins over any agreement.
func crossCheck(primary, secondary *catalog.Detail) (linkage, string) {
	agree := false
	if secondary.TVDBID != "" {
		if secondary.TVDBID != primary.ID {
			return linkConflict, fmt.Sprintf("secondary links tvdb %s, primary candidate is %s", secondary.TVDBID, primary.ID)
		}
		agree = true
	}
	if primary.TMDBID != "" {
		if primary.TMDBID != secondary.ID {
			return linkConflict, fmt.Sprintf("primary links tmdb %s, secondary result is %s", primary.TMDBID, secondary.ID)
		}
		agree = true
	}
	if primary.IMDBID != "" && secondary.IMDBID != "" {
		if primary.IMDBID != secondary.IMDBID {
			return linkConflict, fmt.Sprintf("imdb %s vs %s", primary.IMDBID, secondary.IMDBID)
		}
		agree = true
	}
	if agree {
		return linkAgree, ""
	}
	return linkUnknown, "no cross references to compare"
}
