// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package parser

import (
	"regexp"
	"strings"
)

// ExternalIDs holds catalog ids embedded in a release title or feed description.
type ExternalIDs struct {
	TMDBID string
	IMDBID string
	TVDBID string
}

// Empty reports whether no id was found.
func (ids ExternalIDs) Empty() bool {
	return ids.TMDBID == "" && ids.IMDBID == "" && ids.TVDBID == ""
}

// alternatives are tried in order, first match wins: naming-convention tags,
// then service URLs, then generic "label: value" text.
var (
	tmdbIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\{tmdb-(\d+)\}`),
		regexp.MustCompile(`(?i)themoviedb\.org/(?:movie|tv)/(\d+)`),
		regexp.MustCompile(`(?i)\btmdb(?:\s*id)?\s*[:#=]\s*(\d+)`),
	}
	imdbIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\{imdb-(tt\d{5,})\}`),
		regexp.MustCompile(`(?i)imdb\.com/title/(tt\d{5,})`),
		regexp.MustCompile(`(?i)\bimdb(?:\s*id)?\s*[:#=]\s*(tt\d{5,})`),
		regexp.MustCompile(`\b(tt\d{7,8})\b`),
	}
	tvdbIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\[tvdb(?:id)?-(\d+)\]`),
		regexp.MustCompile(`(?i)thetvdb\.com/\?tab=series&id=(\d+)`),
		regexp.MustCompile(`(?i)thetvdb\.com/dereferrer/series/(\d+)`),
		regexp.MustCompile(`(?i)\btvdb(?:\s*id)?\s*[:#=]\s*(\d+)`),
	}

	idTagRe = regexp.MustCompile(`(?i)\{(?:tmdb|imdb|edition)-[^}]*\}|\[tvdb(?:id)?-\d+\]`)
)

func firstSubmatch(patterns []*regexp.Regexp, texts ...string) string {
	for _, re := range patterns {
		for _, text := range texts {
			if text == "" {
				continue
			}
			if m := re.FindStringSubmatch(text); len(m) > 1 {
				return strings.ToLower(m[1])
			}
		}
	}
	return ""
}

// ExtractIDs pulls embedded catalog ids out of the given texts.
func ExtractIDs(texts ...string) ExternalIDs {
	return ExternalIDs{
		TMDBID: firstSubmatch(tmdbIDPatterns, texts...),
		IMDBID: firstSubmatch(imdbIDPatterns, texts...),
		TVDBID: firstSubmatch(tvdbIDPatterns, texts...),
	}
}

// stripIDTags removes naming-convention id tags from a title.
func stripIDTags(s string) string {
	return idTagRe.ReplaceAllString(s, " ")
}
