// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package parser

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Resolution is the normalized vertical resolution of a release.
type Resolution string

const (
	Resolution2160p   Resolution = "2160p"
	Resolution1080p   Resolution = "1080p"
	Resolution720p    Resolution = "720p"
	Resolution480p    Resolution = "480p"
	ResolutionUnknown Resolution = "unknown"
)

// Codec is the normalized video codec family of a release.
type Codec string

const (
	CodecX265    Codec = "x265"
	CodecX264    Codec = "x264"
	CodecUnknown Codec = "unknown"
)

// Unknown is the sentinel stored for free-form categories nothing matched.
const Unknown = "unknown"

// tok builds a case-insensitive pattern bounded by release separators. A
// hyphen may close a token ("720p-GRP") but not open one, so "DTS-HD" never
// reads as the HD resolution tag.
func tok(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[\s._\[\](){},/+])(?:` + pattern + `)(?:$|[\s._\[\](){},/+-])`)
}

type labeled[T any] struct {
	value T
	re    *regexp.Regexp
}

var resolutionPatterns = []labeled[Resolution]{
	{Resolution2160p, tok(`2160p|4k|uhd`)},
	{Resolution1080p, tok(`1080[pi]|fhd`)},
	{Resolution720p, tok(`720p|hd`)},
	{Resolution480p, tok(`480p|sd`)},
}

var codecPatterns = []labeled[Codec]{
	{CodecX265, tok(`[xh]\.?265|hevc`)},
	{CodecX264, tok(`[xh]\.?264|avc`)},
}

// physical media first, then web, then broadcast, then streaming services
var sourcePatterns = []labeled[string]{
	{"Bluray", tok(`blu-?ray|bdrip|brrip|bdremux|bd(?:25|50)`)},
	{"DVD", tok(`dvd(?:rip|9|5)?`)},
	{"WEB-DL", tok(`web-?dl`)},
	{"WEBRip", tok(`web-?rip`)},
	{"WEB", tok(`web`)},
	{"HDTV", tok(`hdtv|pdtv`)},
	{"AMZN", tok(`amzn`)},
	{"NF", tok(`nf|netflix`)},
	{"DSNP", tok(`dsnp|dsny`)},
	{"HS", tok(`hs|hotstar`)},
	{"HMAX", tok(`hmax`)},
	{"ATVP", tok(`atvp`)},
	{"HULU", tok(`hulu`)},
	{"PCOK", tok(`pcok`)},
	{"PMTP", tok(`pmtp`)},
	{"ZEE5", tok(`zee5`)},
	{"SONYLIV", tok(`sonyliv|sliv`)},
	{"JC", tok(`jc|jiocinema`)},
	{"SUNNXT", tok(`sunnxt|snxt`)},
	{"AHA", tok(`aha`)},
}

// most specific first; the generic channel layouts are the last resort
var audioPatterns = []labeled[string]{
	{"TrueHD Atmos", tok(`true-?hd[\s.]?(?:7[\s.]1[\s.]?)?atmos`)},
	{"DDP Atmos", tok(`(?:ddp|dd\+|e-?ac-?3)[\s.]?(?:[57][\s.]1[\s.]?)?atmos`)},
	{"Atmos", tok(`atmos`)},
	{"DTS-HD MA", tok(`dts-?hd[\s.-]?ma(?:[\s.]?[57][\s.]1)?`)},
	{"DTS-X", tok(`dts-?x`)},
	{"TrueHD", tok(`true-?hd(?:[\s.]?[57][\s.]1)?`)},
	{"DDP 7.1", tok(`(?:ddp|dd\+|e-?ac-?3)[\s.]?7[\s.]1`)},
	{"DDP 5.1", tok(`(?:ddp|dd\+|e-?ac-?3)[\s.]?5[\s.]1`)},
	{"DDP", tok(`ddp|dd\+|e-?ac-?3`)},
	{"DD 5.1", tok(`(?:dd|ac-?3)[\s.]?5[\s.]1`)},
	{"DD", tok(`dd|ac-?3`)},
	{"DTS", tok(`dts(?:[\s.]?[57][\s.]1)?`)},
	{"AAC 5.1", tok(`aac[\s.]?5[\s.]1`)},
	{"AAC", tok(`aac(?:[\s.]?2[\s.]0)?`)},
	{"5.1", tok(`[57][\s.]1`)},
	{"2.0", tok(`2[\s.]0|stereo`)},
}

var languagePatterns = []labeled[string]{
	{"en", tok(`eng|english`)},
	{"hi", tok(`hin|hindi`)},
	{"ta", tok(`tam|tamil`)},
	{"te", tok(`tel|telugu`)},
	{"ml", tok(`mal|malayalam`)},
	{"kn", tok(`kan|kannada`)},
	{"bn", tok(`ben|bengali`)},
	{"mr", tok(`mar|marathi`)},
	{"de", tok(`ger|german|deu`)},
	{"fr", tok(`fre|french|fra|truefrench|vff`)},
	{"it", tok(`ita|italian`)},
	{"es", tok(`spa|spanish|esp|latino`)},
	{"pt", tok(`por|portuguese`)},
	{"ja", tok(`jpn|japanese`)},
	{"ko", tok(`kor|korean`)},
	{"ru", tok(`rus|russian`)},
	{"zh", tok(`chi|chinese|mandarin`)},
}

var (
	sizeRe      = regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:[.,]\d+)?)\s*(GiB|GB|MiB|MB)\b`)
	// a comma followed by exactly three digits groups thousands
	thousandsRe = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
	yearRe      = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
)

func firstMatch[T any](patterns []labeled[T], s string, fallback T) T {
	for _, p := range patterns {
		if p.re.MatchString(s) {
			return p.value
		}
	}
	return fallback
}

// ParseResolution maps resolution tokens to a Resolution.
func ParseResolution(s string) Resolution {
	return firstMatch(resolutionPatterns, s, ResolutionUnknown)
}

// ParseCodec maps HEVC/AVC family tokens to a Codec.
func ParseCodec(s string) Codec {
	return firstMatch(codecPatterns, s, CodecUnknown)
}

// ParseSource returns the source label, physical media first.
func ParseSource(s string) string {
	return firstMatch(sourcePatterns, s, Unknown)
}

// ParseAudio returns the most specific audio label found in s.
func ParseAudio(s string) string {
	return firstMatch(audioPatterns, s, Unknown)
}

// ParseAudioLanguages returns the 2-letter codes of every language token in s,
// in table order and without duplicates.
func ParseAudioLanguages(parts ...string) []string {
	var out []string
	for _, p := range languagePatterns {
		for _, s := range parts {
			if p.re.MatchString(s) {
				out = append(out, p.value)
				break
			}
		}
	}
	return out
}

// AddLanguages appends the languages named in hints that langs does not hold
// yet.
func AddLanguages(langs []string, hints ...string) []string {
	for _, code := range ParseAudioLanguages(hints...) {
		if !slices.Contains(langs, code) {
			langs = append(langs, code)
		}
	}
	return langs
}

// ParseSizeMB extracts the first "<number><unit>" size. GB and GiB are
// multiplied by 1024, MB and MiB are taken as is. Returns 0 when no size is found.
func ParseSizeMB(s string) float64 {
	m := sizeRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	number := m[1]
	if thousandsRe.MatchString(number) {
		number = strings.ReplaceAll(number, ",", "")
	} else {
		number = strings.Replace(number, ",", ".", 1)
	}
	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0
	}
	switch strings.ToUpper(m[2]) {
	case "GB", "GIB":
		value *= 1024
	}
	return value
}

// ParseYear returns the last 19xx/20xx token that is not at the very start of
// the title, so "2012.2009.1080p" yields 2009. Returns 0 when absent.
func ParseYear(s string) int {
	year, _ := locateYear(s)
	return year
}

func locateYear(s string) (int, int) {
	matches := yearRe.FindAllStringSubmatchIndex(s, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		start := matches[i][2]
		if start == 0 && len(matches) > 1 {
			continue
		}
		year, err := strconv.Atoi(s[matches[i][2]:matches[i][3]])
		if err != nil {
			continue
		}
		return year, start
	}
	return 0, -1
}

// qualityIndex returns the offset of the first resolution, codec or source
// token, or -1.
func qualityIndex(s string) int {
	best := -1
	consider := func(re *regexp.Regexp) {
		if loc := re.FindStringIndex(s); loc != nil && (best == -1 || loc[0] < best) {
			best = loc[0]
		}
	}
	for _, p := range resolutionPatterns {
		consider(p.re)
	}
	for _, p := range codecPatterns {
		consider(p.re)
	}
	for _, p := range sourcePatterns[:6] {
		consider(p.re)
	}
	return best
}
