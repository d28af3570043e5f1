// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"strings"

	"github.com/moistari/rls"
)

// Kind is the coarse content classification a feed item is routed by.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindTV      Kind = "tv"
	KindUnknown Kind = "unknown"
)

var videoCodecHints = []string{"x264", "x265", "h264", "h265", "hevc", "av1", "xvid", "divx"}

// looksLikeVideoRelease catches video releases rls filed as music because of
// dash-separated names.
func looksLikeVideoRelease(release *rls.Release) bool {
	if release.Resolution != "" || len(release.HDR) > 0 {
		return true
	}
	for _, codec := range release.Codec {
		lower := strings.ToLower(codec)
		for _, hint := range videoCodecHints {
			if strings.Contains(lower, hint) {
				return true
			}
		}
	}
	lowerSource := strings.ToLower(release.Source)
	for _, hint := range []string{"bluray", "blu-ray", "web-dl", "webdl", "webrip", "hdtv", "remux", "uhd"} {
		if strings.Contains(lowerSource, hint) {
			return true
		}
	}
	return false
}

// DetermineKind classifies a parsed release as movie, tv or unknown.
func DetermineKind(release *rls.Release) Kind {
	if release == nil {
		return KindUnknown
	}

	switch release.Type {
	case rls.Movie:
		return KindMovie
	case rls.Episode, rls.Series:
		return KindTV
	case rls.Music:
		if !looksLikeVideoRelease(release) {
			return KindUnknown
		}
	}

	switch {
	case release.Series > 0 || release.Episode > 0:
		return KindTV
	case release.Year > 0 || looksLikeVideoRelease(release):
		return KindMovie
	default:
		return KindUnknown
	}
}
