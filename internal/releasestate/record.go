// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package releasestate decides the status of a release and how a fresh
// evaluation is merged into the stored record.
package releasestate

import (
	"fmt"
	"strings"
	"time"

	"github.com/autobrr/feedarr/internal/resolver"
	"github.com/autobrr/feedarr/pkg/releases"
	"github.com/autobrr/feedarr/pkg/stringutils"
)

// Status is the lifecycle state of a release.
type Status string

const (
	StatusNew              Status = "NEW"
	StatusNewShow          Status = "NEW_SHOW"
	StatusNewSeason        Status = "NEW_SEASON"
	StatusIgnored          Status = "IGNORED"
	StatusUpgradeCandidate Status = "UPGRADE_CANDIDATE"
	StatusAdded            Status = "ADDED"
)

var allStatuses = []Status{
	StatusNew, StatusNewShow, StatusNewSeason, StatusIgnored, StatusUpgradeCandidate, StatusAdded,
}

// ParseStatus accepts a status name in any case, with '-' or '_'.
func ParseStatus(s string) (Status, error) {
	norm := Status(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	for _, st := range allStatuses {
		if st == norm {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// IsNew reports whether s is one of the freshly observed states.
func (s Status) IsNew() bool {
	return s == StatusNew || s == StatusNewShow || s == StatusNewSeason
}

// Record is the stored view of one feed entry, keyed by GUID.
type Record struct {
	GUID        string
	Feed        string
	Kind        releases.Kind
	PublishedAt time.Time

	// parsed
	Title           string
	CleanTitle      string
	NormalizedTitle string
	Year            int
	Resolution      string
	Codec           string
	SourceTag       string
	AudioTrack      string
	SizeMB          float64
	AudioLanguages  []string
	EmbeddedTMDBID  string
	EmbeddedIMDBID  string
	EmbeddedTVDBID  string
	ShowName        string
	SeasonNumber    *int

	// resolved
	TVDBID           string
	TMDBID           string
	IMDBID           string
	ManualTVDBID     bool
	ManualTMDBID     bool
	ManualIMDBID     bool
	CanonicalTitle   string
	OriginalLanguage string
	PrimaryPoster    string
	SecondaryPoster  string
	Confidence       resolver.Confidence
	DecisionTrail    []resolver.Decision

	// local library linkage
	LibraryItemID *int
	LibraryTitle  string
	// LinkageMisses counts consecutive runs the linkage was kept although
	// the identity came back unresolved.
	LinkageMisses int

	Admissible    bool
	Score         float64
	ExistingScore *float64

	Status          Status
	StatusReason    Reason
	ManuallyIgnored bool

	FirstSeenAt   time.Time
	LastCheckedAt time.Time
}

// ManualIDs returns the user-set ids of r for the resolver.
func (r *Record) ManualIDs() resolver.ManualIDs {
	var m resolver.ManualIDs
	if r == nil {
		return m
	}
	if r.ManualTVDBID {
		m.TVDBID = r.TVDBID
	}
	if r.ManualTMDBID {
		m.TMDBID = r.TMDBID
	}
	if r.ManualIMDBID {
		m.IMDBID = r.IMDBID
	}
	return m
}

// IdentityKey is the ignore list key of r.
func (r *Record) IdentityKey() string {
	name := r.NormalizedTitle
	if r.Kind == releases.KindTV && r.ShowName != "" {
		name = r.ShowName
	}
	return IdentityKey(r.TVDBID, r.TMDBID, name)
}

// IdentityKey builds the ignore list key of a show or movie. The first known
// component wins: TVDB id, then TMDB id, then the normalized name. It returns
// "" when all are empty.
func IdentityKey(tvdbID, tmdbID, name string) string {
	switch {
	case strings.TrimSpace(tvdbID) != "":
		return "tvdb:" + strings.TrimSpace(tvdbID)
	case strings.TrimSpace(tmdbID) != "":
		return "tmdb:" + strings.TrimSpace(tmdbID)
	}
	if n := stringutils.NormalizeForMatching(name); n != "" {
		return "name:" + n
	}
	return ""
}
