// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/autobrr/feedarr/internal/domain"
	"github.com/autobrr/feedarr/internal/models"
	"github.com/autobrr/feedarr/internal/releasestate"
	"github.com/autobrr/feedarr/internal/resolver"
)

func RunReleasesCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "releases",
		Short: "Inspect and decide on stored releases",
	}

	cmd.AddCommand(
		runReleasesListCommand(configPath),
		runReleasesSetStatusCommand(configPath),
		runReleasesSetIDCommand(configPath),
	)
	return cmd
}

func runReleasesListCommand(configPath *string) *cobra.Command {
	var (
		status string
		kind   string
		feed   string
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List releases, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := models.ReleaseFilter{Feed: feed, Limit: limit}
			if status != "" {
				st, err := releasestate.ParseStatus(status)
				if err != nil {
					return err
				}
				filter.Status = st
			}
			if kind != "" {
				k, err := domain.FeedConfig{Kind: kind}.FeedKind()
				if err != nil {
					return err
				}
				filter.Kind = k
			}

			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			recs, err := a.release.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(recs)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "GUID\tSTATUS\tKIND\tTITLE\tRES\tSCORE\tTVDB\tTMDB\tCONFIDENCE")
			for _, r := range recs {
				title := r.CleanTitle
				if r.CanonicalTitle != "" {
					title = r.CanonicalTitle
				}
				if r.SeasonNumber != nil {
					title = fmt.Sprintf("%s S%02d", title, *r.SeasonNumber)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\t%s\t%s\n",
					r.GUID, r.Status, r.Kind, title, r.Resolution, r.Score, dash(r.TVDBID), dash(r.TMDBID), r.Confidence)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only list releases with this status")
	cmd.Flags().StringVar(&kind, "kind", "", "Only list movie or tv releases")
	cmd.Flags().StringVar(&feed, "feed", "", "Only list releases from this feed")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of releases (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")

	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func runReleasesSetStatusCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <guid> <status>",
		Short: "Set a release status by hand",
		Long: `Set a release status by hand. IGNORED marks the release as manually
ignored so later syncs keep it ignored; any other status clears that flag.
ADDED is sticky across syncs.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := releasestate.ParseStatus(args[1])
			if err != nil {
				return err
			}

			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.release.SetStatus(cmd.Context(), args[0], status, status == releasestate.StatusIgnored); err != nil {
				if errors.Is(err, models.ErrReleaseNotFound) {
					return fmt.Errorf("release %q not found", args[0])
				}
				return err
			}
			cmd.Printf("Release %s set to %s\n", args[0], status)
			return nil
		},
	}
}

func runReleasesSetIDCommand(configPath *string) *cobra.Command {
	var ids resolver.ManualIDs

	cmd := &cobra.Command{
		Use:   "set-id <guid>",
		Short: "Pin catalog ids for a release",
		Long: `Pin catalog ids for a release. Pinned ids are trusted by the resolver on
the next sync and never overwritten by catalog lookups.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids.TVDBID = strings.TrimSpace(ids.TVDBID)
			ids.TMDBID = strings.TrimSpace(ids.TMDBID)
			ids.IMDBID = strings.TrimSpace(ids.IMDBID)
			if ids.Empty() {
				return errors.New("set at least one of --tvdb, --tmdb or --imdb")
			}

			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.release.SetManualIDs(cmd.Context(), args[0], ids); err != nil {
				if errors.Is(err, models.ErrReleaseNotFound) {
					return fmt.Errorf("release %q not found", args[0])
				}
				return err
			}
			cmd.Printf("Pinned ids for release %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&ids.TVDBID, "tvdb", "", "TVDB id")
	cmd.Flags().StringVar(&ids.TMDBID, "tmdb", "", "TMDB id")
	cmd.Flags().StringVar(&ids.IMDBID, "imdb", "", "IMDb id (tt...)")

	return cmd
}
