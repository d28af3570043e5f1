// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// TVTitle is the show-oriented view of a release title.
type TVTitle struct {
	ShowName string
	Season   *int
	Year     int
}

var (
	bracketYearRe  = regexp.MustCompile(`[(\[]((?:19|20)\d{2})[)\]]`)
	bareYearRe     = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	markerBeforeRe = regexp.MustCompile(`(?i)(?:\b(?:season|episode|ep|part)\s*|\b[SE]\d*\s*)$`)

	seasonPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bS(\d{1,3})(?:\s?E\d{1,4}(?:-?E?\d{1,4})*)?\b`),
		regexp.MustCompile(`(?i)\bSeason\s*(\d{1,3})\b`),
		regexp.MustCompile(`(?i)\bS(\d{1,3})\s*$`),
	}
)

// ParseTV extracts show name, season and year from a TV release title.
//
// The year is located first (bracketed years win over bare ones, and a bare
// year directly after a season or episode marker is ignored) and removed; the
// season is then matched on the dot-normalized remainder and everything in
// front of it is the show name. Without a season marker the whole remainder,
// cut before any quality tag, is the show name.
func ParseTV(title string) TVTitle {
	s := spaceSeparators(stripIDTags(title))

	var out TVTitle
	stripped := s
	if year, loc := findTVYear(s); year > 0 {
		candidate := strings.Join(strings.Fields(s[:loc[0]]+" "+s[loc[1]:]), " ")
		if yearStripSane(s, loc, candidate) {
			out.Year = year
			stripped = candidate
		}
	}

	for _, re := range seasonPatterns {
		m := re.FindStringSubmatchIndex(stripped)
		if m == nil {
			continue
		}
		season, err := strconv.Atoi(stripped[m[2]:m[3]])
		if err != nil {
			continue
		}
		out.Season = &season
		out.ShowName = tidyShowName(stripped[:m[0]])
		if out.ShowName != "" {
			return out
		}
		out.Season = nil
	}

	name := stripped
	if idx := qualityIndex(name); idx > 0 {
		name = name[:idx]
	}
	out.ShowName = tidyShowName(name)
	return out
}

// findTVYear returns the year and its [start, end) span including brackets.
func findTVYear(s string) (int, []int) {
	if m := bracketYearRe.FindStringSubmatchIndex(s); m != nil {
		year, _ := strconv.Atoi(s[m[2]:m[3]])
		return year, []int{m[0], m[1]}
	}
	for _, m := range bareYearRe.FindAllStringSubmatchIndex(s, -1) {
		if m[0] == 0 || markerBeforeRe.MatchString(s[:m[0]]) {
			continue
		}
		year, _ := strconv.Atoi(s[m[2]:m[3]])
		return year, []int{m[0], m[1]}
	}
	return 0, nil
}

// yearStripSane rejects year removals that would mangle the name, such as the
// "1990" in "Kids of the 1990's" or a year that is the whole name.
func yearStripSane(original string, loc []int, stripped string) bool {
	if loc[1] < len(original) {
		switch original[loc[1]] {
		case '\'', 's', 'S':
			return false
		}
		if strings.HasPrefix(original[loc[1]:], "’") {
			return false
		}
	}
	name := stripped
	for _, re := range seasonPatterns {
		if m := re.FindStringIndex(name); m != nil {
			name = name[:m[0]]
			break
		}
	}
	return len(strings.TrimSpace(name)) >= 2
}

func tidyShowName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, " -:,")
	return strings.Join(strings.Fields(s), " ")
}
