// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import "strings"

// videoCodecAliases maps equivalent video codec spellings to the codec family
// label used in quality policies.
var videoCodecAliases = map[string]string{
	"X264":  "x264",
	"H.264": "x264",
	"H264":  "x264",
	"AVC":   "x264",
	"X265":  "x265",
	"H.265": "x265",
	"H265":  "x265",
	"HEVC":  "x265",
}

// NormalizeVideoCodec converts a codec token to its family ("x264"/"x265").
// Returns "" when the token is not a known AVC or HEVC spelling.
func NormalizeVideoCodec(codec string) string {
	upper := strings.ToUpper(strings.TrimSpace(codec))
	return videoCodecAliases[upper]
}

// FirstVideoCodec returns the first recognised codec family in codecs.
func FirstVideoCodec(codecs []string) string {
	for _, c := range codecs {
		if n := NormalizeVideoCodec(c); n != "" {
			return n
		}
	}
	return ""
}

// sourceAliases maps source names to a canonical form for comparison.
// Plain "WEB" stays as "WEB" and is treated as ambiguous.
var sourceAliases = map[string]string{
	"WEB-DL":  "WEBDL",
	"WEBDL":   "WEBDL",
	"WEBRIP":  "WEBRIP",
	"WEB":     "WEB",
	"BLURAY":  "BLURAY",
	"BLU-RAY": "BLURAY",
	"BDRIP":   "BLURAY",
	"BRRIP":   "BLURAY",
}

// NormalizeSource converts a source string to its canonical form.
// Returns the original (uppercased) string if no alias mapping exists.
func NormalizeSource(source string) string {
	upper := strings.ToUpper(strings.TrimSpace(source))
	if canonical, ok := sourceAliases[upper]; ok {
		return canonical
	}
	return upper
}
