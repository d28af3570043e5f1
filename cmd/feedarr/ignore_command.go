// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/autobrr/feedarr/internal/models"
	"github.com/autobrr/feedarr/internal/releasestate"
)

// ignoreFile is the YAML document used by import and export.
type ignoreFile struct {
	Ignore []models.IgnoreEntry `yaml:"ignore"`
}

func RunIgnoreCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ignore",
		Short: "Manage the show and movie ignore list",
	}

	cmd.AddCommand(
		runIgnoreAddCommand(configPath),
		runIgnoreRemoveCommand(configPath),
		runIgnoreListCommand(configPath),
		runIgnoreImportCommand(configPath),
		runIgnoreExportCommand(configPath),
	)
	return cmd
}

func runIgnoreAddCommand(configPath *string) *cobra.Command {
	var tvdbID, tmdbID, name, display string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Ignore a show or movie by TVDB id, TMDB id or name",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key := releasestate.IdentityKey(tvdbID, tmdbID, name)
			if key == "" {
				return errors.New("set one of --tvdb, --tmdb or --name")
			}
			if display == "" {
				display = name
			}

			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.ignore.Add(cmd.Context(), models.IgnoreEntry{Key: key, DisplayName: display})
			if errors.Is(err, models.ErrIgnoreEntryExists) {
				cmd.Printf("%s is already ignored\n", key)
				return nil
			}
			if err != nil {
				return err
			}
			cmd.Printf("Ignoring %s\n", entry.Key)
			return nil
		},
	}

	cmd.Flags().StringVar(&tvdbID, "tvdb", "", "TVDB id")
	cmd.Flags().StringVar(&tmdbID, "tmdb", "", "TMDB id")
	cmd.Flags().StringVar(&name, "name", "", "Show or movie name")
	cmd.Flags().StringVar(&display, "display", "", "Display name (defaults to --name)")

	return cmd
}

func runIgnoreRemoveCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>",
		Short: "Remove an ignore list entry by key, e.g. tvdb:81189",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ignore.Remove(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, models.ErrIgnoreEntryNotFound) {
					return fmt.Errorf("%s is not on the ignore list", args[0])
				}
				return err
			}
			cmd.Printf("Removed %s\n", args[0])
			return nil
		},
	}
}

func runIgnoreListCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the ignore list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.ignore.List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tNAME\tADDED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Key, dash(e.DisplayName), e.CreatedAt.Format(time.DateOnly))
			}
			return w.Flush()
		},
	}
}

func runIgnoreImportCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Add the entries of a YAML ignore list, skipping known keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			var doc ignoreFile
			if err := yaml.Unmarshal(raw, &doc); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			added, err := a.ignore.Import(cmd.Context(), doc.Ignore)
			if err != nil {
				return err
			}
			cmd.Printf("Imported %d of %d entries\n", added, len(doc.Ignore))
			return nil
		},
	}
}

func runIgnoreExportCommand(configPath *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ignore list as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.ignore.List(cmd.Context())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.OpenFile(output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(ignoreFile{Ignore: entries}); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}
