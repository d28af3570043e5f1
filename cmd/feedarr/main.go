// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/autobrr/feedarr/internal/buildinfo"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("feedarr failed")
		os.Exit(1)
	}
}

// NewRootCommand assembles the feedarr command tree.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "feedarr",
		Short:         "Turn indexer feeds into actionable movie and show releases",
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml or the directory holding it")

	root.AddCommand(
		RunSyncCommand(&configPath),
		RunParseCommand(),
		RunReleasesCommand(&configPath),
		RunIgnoreCommand(&configPath),
		RunConfigCommand(&configPath),
		RunVersionCommand(),
	)
	return root
}

func RunVersionCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !asJSON {
				cmd.Print(buildinfo.String())
				return nil
			}
			out, err := buildinfo.JSON()
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
