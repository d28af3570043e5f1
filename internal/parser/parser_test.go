// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/feedarr/pkg/releases"
)

func TestParse_MovieScenario(t *testing.T) {
	t.Parallel()

	r := Parse("Movie.Name.2019.1080p.WEB-DL.DDP5.1.x264", "")

	assert.Equal(t, Resolution1080p, r.Resolution)
	assert.Equal(t, CodecX264, r.Codec)
	assert.Equal(t, "WEB-DL", r.SourceTag)
	assert.Equal(t, "DDP 5.1", r.AudioTrack)
	assert.Equal(t, 2019, r.Year)
	assert.Equal(t, "Movie Name", r.CleanTitle)
	assert.Equal(t, "movie name", r.NormalizedTitle)
	assert.Equal(t, releases.KindMovie, r.Kind)
	assert.Nil(t, r.Season)
}

func TestParse_TVScenario(t *testing.T) {
	t.Parallel()

	r := Parse("Show.Name.S02E01.1080p", "")

	require.NotNil(t, r.Season)
	assert.Equal(t, 2, *r.Season)
	assert.Equal(t, "Show Name", r.ShowName)
	assert.Equal(t, releases.KindTV, r.Kind)
	assert.Equal(t, Resolution1080p, r.Resolution)
}

func TestParse_UnknownSentinels(t *testing.T) {
	t.Parallel()

	r := Parse("Some Home Video", "")

	assert.Equal(t, ResolutionUnknown, r.Resolution)
	assert.Equal(t, CodecUnknown, r.Codec)
	assert.Equal(t, Unknown, r.SourceTag)
	assert.Equal(t, Unknown, r.AudioTrack)
	assert.False(t, r.HasSize())
	assert.Equal(t, "Some Home Video", r.CleanTitle)
}

func TestParse_EmptyTitleDoesNotPanic(t *testing.T) {
	t.Parallel()

	r := Parse("", "")
	assert.Equal(t, ResolutionUnknown, r.Resolution)
	assert.Empty(t, r.CleanTitle)
}

func TestParseSizeMB(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  float64
	}{
		{"3.5 GiB", 3584},
		{"700 MB", 700},
		{"Size: 1,5 GB", 1536},
		{"1,234 MB", 1234},
		{"Size: 2,048.5 MiB", 2048.5},
		{"1,25 GB", 1280},
		{"12.4MiB", 12.4},
		{"no size here", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, ParseSizeMB(tt.input), 0.0001)
		})
	}
}

func TestParse_SizeFromDescription(t *testing.T) {
	t.Parallel()

	r := Parse("Movie.2020.720p.BluRay.x265", "Size: 3.5 GiB")
	assert.InDelta(t, 3584, r.SizeMB, 0.0001)
	assert.True(t, r.HasSize())
}

func TestParseResolution(t *testing.T) {
	t.Parallel()

	tests := map[string]Resolution{
		"Film.2021.2160p.UHD.BluRay":  Resolution2160p,
		"Film.2021.4K.WEB":            Resolution2160p,
		"Film.2021.FHD.WEB":           Resolution1080p,
		"Film.2021.HD.WEB":            Resolution720p,
		"Film.2021.SD.WEB":            Resolution480p,
		"Film.2021.BluRay.DTS-HD.MA":  ResolutionUnknown,
		"Film.2021.HDR.WEB":           ResolutionUnknown,
		"Film.2021.720p-GRP":          Resolution720p,
		"Film (2021) [1080p] [WEB]":   Resolution1080p,
	}

	for input, want := range tests {
		assert.Equal(t, want, ParseResolution(input), input)
	}
}

func TestParseCodecAndSource(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CodecX265, ParseCodec("Film.2021.1080p.HEVC"))
	assert.Equal(t, CodecX265, ParseCodec("Film.2021.1080p.H.265-GRP"))
	assert.Equal(t, CodecX264, ParseCodec("Film.2021.1080p.AVC"))
	assert.Equal(t, CodecUnknown, ParseCodec("Film.2021.1080p.AV1"))

	assert.Equal(t, "Bluray", ParseSource("Film.2021.1080p.AMZN.BluRay"))
	assert.Equal(t, "WEB-DL", ParseSource("Film.2021.1080p.AMZN.WEB-DL"))
	assert.Equal(t, "WEBRip", ParseSource("Film.2021.1080p.WEBRip"))
	assert.Equal(t, "AMZN", ParseSource("Film.2021.1080p.AMZN.x264"))
	assert.Equal(t, "ZEE5", ParseSource("Film.2021.1080p.ZEE5.x264"))
}

func TestParseAudio(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Film.2021.2160p.TrueHD.7.1.Atmos": "TrueHD Atmos",
		"Film.2021.DDP5.1.Atmos":           "DDP Atmos",
		"Film.2021.DTS-HD.MA.5.1":          "DTS-HD MA",
		"Film.2021.DD+7.1":                 "DDP 7.1",
		"Film.2021.EAC3":                   "DDP",
		"Film.2021.AC3.5.1":                "DD 5.1",
		"Film.2021.AAC2.0":                 "AAC",
		"Film.2021.5.1":                    "5.1",
		"Film.2021.Stereo":                 "2.0",
		"Film.2021.1080p":                  Unknown,
	}

	for input, want := range tests {
		assert.Equal(t, want, ParseAudio(input), input)
	}
}

func TestParse_AudioLanguages(t *testing.T) {
	t.Parallel()

	r := Parse("Ben.Is.Back.2018.1080p.WEB-DL.Hindi.English.DDP5.1.x264", "")
	assert.Equal(t, []string{"en", "hi"}, r.AudioLanguages)

	r = Parse("Movie.2018.1080p.WEB-DL.x264", "A German-language drama. Audio: Tamil, Telugu")
	assert.Empty(t, r.AudioLanguages)

	assert.Equal(t, []string{"en", "ta", "te"}, AddLanguages([]string{"en"}, "Tamil", "English, Telugu"))
	assert.Empty(t, AddLanguages(nil))
}

func TestParseYear(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2019, ParseYear("Movie Name 2019 1080p"))
	assert.Equal(t, 2009, ParseYear("2012 2009 1080p"))
	assert.Equal(t, 0, ParseYear("Movie Name 1080p"))
	assert.Equal(t, 0, ParseYear("Movie 2160p"))
}

func TestCleanTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  string
	}{
		{"Movie.Name.2019.1080p.WEB-DL", "Movie Name"},
		{"Fast and Furious (2009) [1080p]", "Fast & Furious"},
		{"Movie Name (Extended Cut) 2010 720p", "Movie Name"},
		{"Movie Name (Director's 2010 BluRay", "Movie Name"},
		{"Movie_Name_1080p_x264", "Movie Name"},
		{"Movie Name {tmdb-603} 1999 1080p", "Movie Name"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Parse(tt.title, "").CleanTitle)
		})
	}
}

func TestExtractIDs(t *testing.T) {
	t.Parallel()

	t.Run("service urls", func(t *testing.T) {
		t.Parallel()

		ids := ExtractIDs("https://www.themoviedb.org/movie/603-the-matrix https://www.imdb.com/title/tt0133093/ https://thetvdb.com/?tab=series&id=81189")
		assert.Equal(t, "603", ids.TMDBID)
		assert.Equal(t, "tt0133093", ids.IMDBID)
		assert.Equal(t, "81189", ids.TVDBID)
	})

	t.Run("label patterns", func(t *testing.T) {
		t.Parallel()

		ids := ExtractIDs("TMDB ID: 1234\nIMDb: tt7654321\nTVDB: 99")
		assert.Equal(t, "1234", ids.TMDBID)
		assert.Equal(t, "tt7654321", ids.IMDBID)
		assert.Equal(t, "99", ids.TVDBID)
	})

	t.Run("url wins over label", func(t *testing.T) {
		t.Parallel()

		ids := ExtractIDs("tmdb: 1 themoviedb.org/tv/2")
		assert.Equal(t, "2", ids.TMDBID)
	})

	t.Run("naming tags in title", func(t *testing.T) {
		t.Parallel()

		r := Parse("Show {tmdb-42} [tvdb-7] S01E01 1080p", "")
		assert.Equal(t, "42", r.Embedded.TMDBID)
		assert.Equal(t, "7", r.Embedded.TVDBID)
	})

	t.Run("none", func(t *testing.T) {
		t.Parallel()

		assert.True(t, ExtractIDs("", "nothing").Empty())
	})
}

func TestParseTV(t *testing.T) {
	t.Parallel()

	season := func(n int) *int { return &n }

	tests := []struct {
		title string
		want  TVTitle
	}{
		{"Show.Name.S02E01.1080p", TVTitle{ShowName: "Show Name", Season: season(2)}},
		{"Show Name (2021) S01E05 720p", TVTitle{ShowName: "Show Name", Season: season(1), Year: 2021}},
		{"Show.Name.2021.S03.1080p.WEB", TVTitle{ShowName: "Show Name", Season: season(3), Year: 2021}},
		{"Show Name Season 4 Complete", TVTitle{ShowName: "Show Name", Season: season(4)}},
		{"Show Name S05", TVTitle{ShowName: "Show Name", Season: season(5)}},
		{"Show Name 1080p WEB", TVTitle{ShowName: "Show Name"}},
		{"Kids of the 1990's S01E01", TVTitle{ShowName: "Kids of the 1990's", Season: season(1)}},
		{"1992 S01E01", TVTitle{ShowName: "1992", Season: season(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			t.Parallel()
			got := ParseTV(tt.title)
			assert.Equal(t, tt.want.ShowName, got.ShowName)
			assert.Equal(t, tt.want.Year, got.Year)
			if tt.want.Season == nil {
				assert.Nil(t, got.Season)
				return
			}
			require.NotNil(t, got.Season)
			assert.Equal(t, *tt.want.Season, *got.Season)
		})
	}
}
