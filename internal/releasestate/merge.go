// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releasestate

import (
	"github.com/rs/zerolog/log"

	"github.com/autobrr/feedarr/internal/resolver"
)

// maxLinkageMisses is how many unresolved runs keep an old library linkage.
const maxLinkageMisses = 1

// Merge folds a fresh evaluation into the previous record and returns the
// record to store. Parsed attributes and status always come from next; ids
// follow the preservation rules:
//
//   - a user-set id is never replaced, and an empty incoming id never
//     clears a stored one
//   - ManuallyIgnored only ever turns on here
//   - library linkage follows next, except that it is cleared when the
//     TVDB id changed and kept for one run when next is unresolved
func Merge(prev *Record, next Record) Record {
	if prev == nil {
		if next.FirstSeenAt.IsZero() {
			next.FirstSeenAt = next.LastCheckedAt
		}
		return next
	}

	out := next
	out.FirstSeenAt = prev.FirstSeenAt
	if out.FirstSeenAt.IsZero() {
		out.FirstSeenAt = next.LastCheckedAt
	}

	out.TVDBID, out.ManualTVDBID = mergeID(prev.TVDBID, prev.ManualTVDBID, next.TVDBID)
	out.TMDBID, out.ManualTMDBID = mergeID(prev.TMDBID, prev.ManualTMDBID, next.TMDBID)
	out.IMDBID, out.ManualIMDBID = mergeID(prev.IMDBID, prev.ManualIMDBID, next.IMDBID)
	out.ManuallyIgnored = prev.ManuallyIgnored || next.ManuallyIgnored

	out.CanonicalTitle = keepIfEmpty(next.CanonicalTitle, prev.CanonicalTitle)
	out.OriginalLanguage = keepIfEmpty(next.OriginalLanguage, prev.OriginalLanguage)
	out.PrimaryPoster = keepIfEmpty(next.PrimaryPoster, prev.PrimaryPoster)
	out.SecondaryPoster = keepIfEmpty(next.SecondaryPoster, prev.SecondaryPoster)

	identityChanged := prev.TVDBID != "" && out.TVDBID != prev.TVDBID
	switch {
	case identityChanged:
		log.Debug().
			Str("guid", next.GUID).
			Str("from", prev.TVDBID).
			Str("to", out.TVDBID).
			Msg("releasestate: identity changed, relinking library")
		// re-derived linkage only; nothing from the old identity survives
		out.CanonicalTitle = next.CanonicalTitle
		out.PrimaryPoster = next.PrimaryPoster
		out.SecondaryPoster = next.SecondaryPoster
		if !out.ManualTMDBID {
			out.TMDBID = next.TMDBID
		}
		if !out.ManualIMDBID {
			out.IMDBID = next.IMDBID
		}
		out.LinkageMisses = 0
	case next.LibraryItemID != nil:
		out.LinkageMisses = 0
	case next.Confidence == resolver.ConfidenceUnresolved && prev.LibraryItemID != nil && prev.LinkageMisses < maxLinkageMisses:
		out.LibraryItemID = prev.LibraryItemID
		out.LibraryTitle = prev.LibraryTitle
		out.LinkageMisses = prev.LinkageMisses + 1
	default:
		out.LinkageMisses = 0
	}

	return out
}

func mergeID(prev string, manual bool, next string) (string, bool) {
	if manual && prev != "" {
		return prev, true
	}
	if next != "" {
		return next, false
	}
	return prev, false
}

func keepIfEmpty(next, prev string) string {
	if next != "" {
		return next
	}
	return prev
}
