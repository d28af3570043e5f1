// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releasestate

import (
	"time"

	"github.com/autobrr/feedarr/internal/parser"
	"github.com/autobrr/feedarr/internal/quality"
	"github.com/autobrr/feedarr/internal/resolver"
	"github.com/autobrr/feedarr/pkg/releases"
)

// Evaluation is one pass of the pipeline over a feed entry.
type Evaluation struct {
	GUID        string
	Feed        string
	PublishedAt time.Time
	Release     parser.Release
	// Resolution is the zero value when resolution was skipped.
	Resolution resolver.Result
	Policy     quality.Policy
	// IgnoreList is the ignore list snapshot of the run.
	IgnoreList map[string]struct{}
	Now        time.Time
}

// KindOf returns the kind a release is handled as: movie unless it is a TV
// release or carries a season.
func KindOf(rel parser.Release) releases.Kind {
	switch {
	case rel.Kind == releases.KindTV || rel.Season != nil:
		return releases.KindTV
	default:
		return releases.KindMovie
	}
}

// Evaluate builds the record to store for ev given the previous record, and
// the outcome that chose its status.
func Evaluate(prev *Record, ev Evaluation) (Record, Outcome) {
	rel := ev.Release
	id := ev.Resolution.Identity
	kind := KindOf(rel)

	confidence := id.Confidence
	if confidence == "" {
		confidence = resolver.ConfidenceUnresolved
	}

	next := Record{
		GUID:             ev.GUID,
		Feed:             ev.Feed,
		Kind:             kind,
		PublishedAt:      ev.PublishedAt,
		Title:            rel.Title,
		CleanTitle:       rel.CleanTitle,
		NormalizedTitle:  rel.NormalizedTitle,
		Year:             rel.Year,
		Resolution:       string(rel.Resolution),
		Codec:            string(rel.Codec),
		SourceTag:        rel.SourceTag,
		AudioTrack:       rel.AudioTrack,
		SizeMB:           rel.SizeMB,
		AudioLanguages:   rel.AudioLanguages,
		EmbeddedTMDBID:   rel.Embedded.TMDBID,
		EmbeddedIMDBID:   rel.Embedded.IMDBID,
		EmbeddedTVDBID:   rel.Embedded.TVDBID,
		TVDBID:           id.TVDBID,
		TMDBID:           id.TMDBID,
		IMDBID:           id.IMDBID,
		CanonicalTitle:   id.Title,
		OriginalLanguage: id.OriginalLanguage,
		PrimaryPoster:    id.PrimaryPoster,
		SecondaryPoster:  id.SecondaryPoster,
		Confidence:       confidence,
		DecisionTrail:    ev.Resolution.Trail,
		Admissible:       quality.IsAdmissible(rel, ev.Policy),
		Score:            quality.ScoreFor(rel, ev.Policy, id.OriginalLanguage),
		LastCheckedAt:    ev.Now,
	}
	if kind == releases.KindTV {
		next.ShowName = rel.ShowName
		next.SeasonNumber = rel.Season
	}
	if id.Library != nil {
		libID := id.Library.ID
		next.LibraryItemID = &libID
		next.LibraryTitle = id.Library.Title
	}

	merged := Merge(prev, next)

	_, ignored := ev.IgnoreList[merged.IdentityKey()]
	merged.ManuallyIgnored = merged.ManuallyIgnored || ignored

	outcome := Transition(prev, Facts{
		Kind:       kind,
		Season:     next.SeasonNumber,
		Resolved:   id.Resolved(),
		Admissible: next.Admissible,
		Ignored:    ignored,
		Library:    id.Library,
		NewScore:   next.Score,
		NewSizeMB:  rel.SizeMB,
		Policy:     ev.Policy,
	})

	merged.Status = outcome.Status
	merged.StatusReason = outcome.Reason
	merged.ExistingScore = nil
	if outcome.Upgrade != nil {
		existing := outcome.Upgrade.ExistingScore
		merged.ExistingScore = &existing
	}
	return merged, outcome
}
