// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"github.com/spf13/cobra"

	"github.com/autobrr/feedarr/internal/config"
)

func RunConfigCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and update the configuration",
	}

	cmd.AddCommand(runConfigShowCommand(configPath), runConfigSetLogCommand(configPath))
	return cmd
}

func runConfigShowCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(*configPath)
			if err != nil {
				return err
			}
			out, err := cfg.Dump()
			if err != nil {
				return err
			}
			cmd.Printf("# %s\n%s", cfg.ConfigPath(), out)
			return nil
		},
	}
}

func runConfigSetLogCommand(configPath *string) *cobra.Command {
	var (
		level      string
		path       string
		maxSize    int
		maxBackups int
	)

	cmd := &cobra.Command{
		Use:   "set-log",
		Short: "Persist log settings to config.toml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(*configPath)
			if err != nil {
				return err
			}

			current := cfg.Config
			if !cmd.Flags().Changed("level") {
				level = current.LogLevel
			}
			if !cmd.Flags().Changed("path") {
				path = current.LogPath
			}
			if !cmd.Flags().Changed("max-size") {
				maxSize = current.LogMaxSize
			}
			if !cmd.Flags().Changed("max-backups") {
				maxBackups = current.LogMaxBackups
			}

			if err := cfg.PersistLogSettings(level, path, maxSize, maxBackups); err != nil {
				return err
			}
			cmd.Printf("Log settings written to %s\n", cfg.ConfigPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&level, "level", "", "Log level: TRACE, DEBUG, INFO, WARN or ERROR")
	cmd.Flags().StringVar(&path, "path", "", "Log file path")
	cmd.Flags().IntVar(&maxSize, "max-size", 0, "Log file size in MB before rotation")
	cmd.Flags().IntVar(&maxBackups, "max-backups", 0, "Rotated log files to keep")

	return cmd
}
