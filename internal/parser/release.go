// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package parser turns raw scene release titles into structured attributes.
//
// Parsing is heuristic and total: categories nothing matched come back as the
// "unknown" sentinel instead of an error, so callers never branch on failure.
package parser

import (
	"regexp"
	"strings"

	"github.com/autobrr/feedarr/pkg/releases"
	"github.com/autobrr/feedarr/pkg/stringutils"
)

// Release is the parsed view of one feed entry.
type Release struct {
	GUID            string
	Title           string
	CleanTitle      string
	NormalizedTitle string
	Year            int
	Resolution      Resolution
	Codec           Codec
	SourceTag       string
	AudioTrack      string
	SizeMB          float64
	AudioLanguages  []string
	Embedded        ExternalIDs
	Group           string
	Kind            releases.Kind

	// TV view of the same title; ShowName is empty for releases without one.
	ShowName string
	Season   *int
}

// HasSize reports whether a size was parsed.
func (r *Release) HasSize() bool {
	return r.SizeMB > 0
}

// Parser parses release titles. The zero value is not usable, use New.
type Parser struct {
	rls *releases.Parser
}

// New returns a Parser backed by the given rls parser (a default one when nil).
func New(rlsParser *releases.Parser) *Parser {
	if rlsParser == nil {
		rlsParser = releases.NewDefaultParser()
	}
	return &Parser{rls: rlsParser}
}

var defaultParser = New(nil)

// Parse parses title with the package default parser.
func Parse(title, description string) Release {
	return defaultParser.Parse(title, description)
}

// Parse extracts every release attribute from title, using description for
// embedded ids and size. Audio languages come from the title alone.
func (p *Parser) Parse(title, description string) Release {
	title = strings.TrimSpace(title)
	rel := p.rls.Parse(stripIDTags(title))

	r := Release{
		Title:      title,
		Resolution: ParseResolution(title),
		Codec:      ParseCodec(title),
		SourceTag:  ParseSource(title),
		AudioTrack: ParseAudio(title),
		Embedded:   ExtractIDs(title, description),
		Group:      rel.Group,
		Kind:       releases.DetermineKind(rel),
	}

	if r.SizeMB = ParseSizeMB(title); r.SizeMB == 0 {
		r.SizeMB = ParseSizeMB(description)
	}

	spaced := spaceSeparators(stripIDTags(title))
	r.Year = ParseYear(spaced)
	r.CleanTitle, r.AudioLanguages = cleanTitleAndTail(spaced)
	if r.CleanTitle == "" {
		r.CleanTitle = strings.TrimSpace(rel.Title)
	}
	if r.CleanTitle == "" {
		r.CleanTitle = title
	}
	r.NormalizedTitle = stringutils.NormalizeForMatching(r.CleanTitle)

	tv := ParseTV(title)
	if tv.Season != nil || r.Kind == releases.KindTV {
		r.ShowName = tv.ShowName
		r.Season = tv.Season
		if r.Kind == releases.KindUnknown {
			r.Kind = releases.KindTV
		}
	}
	if r.Kind == releases.KindUnknown && r.Year > 0 {
		r.Kind = releases.KindMovie
	}

	return r
}

var (
	separatorRe    = regexp.MustCompile(`[._]+`)
	parentheticRe  = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	openRemainder  = regexp.MustCompile(`\s*[(\[].*$`)
	andWordRe      = regexp.MustCompile(`(?i)\band\b`)
	trailingJunkRe = regexp.MustCompile(`[\s\-:,]+$`)
)

// spaceSeparators turns dot and underscore separated names into spaced text.
func spaceSeparators(s string) string {
	return strings.Join(strings.Fields(separatorRe.ReplaceAllString(s, " ")), " ")
}

// cleanTitleAndTail derives the clean title and returns the audio languages
// found in the tag tail after it, where short language codes are unambiguous.
//
// The title is cut at the year (or the first quality tag when there is no
// year), parenthetical groups and any unclosed trailing bracket are dropped,
// "and" becomes "&" and whitespace is collapsed.
func cleanTitleAndTail(spaced string) (string, []string) {
	cut := -1
	if _, idx := locateYear(spaced); idx > 0 {
		cut = idx
		if cut > 0 && (spaced[cut-1] == '(' || spaced[cut-1] == '[') {
			cut--
		}
	}
	if cut < 0 {
		cut = qualityIndex(spaced)
	}

	head, tail := spaced, ""
	if cut > 0 {
		head, tail = spaced[:cut], spaced[cut:]
	}

	clean := parentheticRe.ReplaceAllString(head, " ")
	clean = openRemainder.ReplaceAllString(clean, "")
	clean = andWordRe.ReplaceAllString(clean, "&")
	clean = strings.Join(strings.Fields(clean), " ")
	clean = trailingJunkRe.ReplaceAllString(clean, "")

	return clean, ParseAudioLanguages(tail)
}
