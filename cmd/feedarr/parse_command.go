// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autobrr/feedarr/internal/parser"
	"github.com/autobrr/feedarr/internal/quality"
	"github.com/autobrr/feedarr/internal/releasestate"
	"github.com/autobrr/feedarr/pkg/releases"
)

type parseOutput struct {
	Title           string        `json:"title"`
	CleanTitle      string        `json:"cleanTitle"`
	NormalizedTitle string        `json:"normalizedTitle"`
	Kind            releases.Kind `json:"kind"`
	Year            int           `json:"year,omitempty"`
	ShowName        string        `json:"showName,omitempty"`
	Season          *int          `json:"season,omitempty"`
	Resolution      string        `json:"resolution"`
	Codec           string        `json:"codec"`
	SourceTag       string        `json:"sourceTag"`
	AudioTrack      string        `json:"audioTrack"`
	SizeMB          float64       `json:"sizeMb,omitempty"`
	AudioLanguages  []string      `json:"audioLanguages,omitempty"`
	Group           string        `json:"group,omitempty"`
	TMDBID          string        `json:"tmdbId,omitempty"`
	IMDBID          string        `json:"imdbId,omitempty"`
	TVDBID          string        `json:"tvdbId,omitempty"`
	Admissible      bool          `json:"admissible"`
	Score           float64       `json:"score"`
}

// RunParseCommand parses release titles offline and scores them against the
// default quality policy.
func RunParseCommand() *cobra.Command {
	var (
		description string
		tv          bool
	)

	cmd := &cobra.Command{
		Use:   "parse <title>...",
		Short: "Parse release titles and print the extracted attributes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := parser.New(releases.NewDefaultParser())
			policy := quality.DefaultPolicy()

			out := make([]parseOutput, 0, len(args))
			for _, title := range args {
				rel := p.Parse(strings.TrimSpace(title), description)
				if tv {
					rel.Kind = releases.KindTV
					if rel.ShowName == "" {
						rel.ShowName = rel.CleanTitle
					}
				}
				out = append(out, parseOutput{
					Title:           rel.Title,
					CleanTitle:      rel.CleanTitle,
					NormalizedTitle: rel.NormalizedTitle,
					Kind:            releasestate.KindOf(rel),
					Year:            rel.Year,
					ShowName:        rel.ShowName,
					Season:          rel.Season,
					Resolution:      string(rel.Resolution),
					Codec:           string(rel.Codec),
					SourceTag:       rel.SourceTag,
					AudioTrack:      rel.AudioTrack,
					SizeMB:          rel.SizeMB,
					AudioLanguages:  rel.AudioLanguages,
					Group:           rel.Group,
					TMDBID:          rel.Embedded.TMDBID,
					IMDBID:          rel.Embedded.IMDBID,
					TVDBID:          rel.Embedded.TVDBID,
					Admissible:      quality.IsAdmissible(rel, policy),
					Score:           quality.ScoreFor(rel, policy, ""),
				})
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Feed item description, searched for size and external ids")
	cmd.Flags().BoolVar(&tv, "tv", false, "Treat the titles as TV releases")

	return cmd
}
