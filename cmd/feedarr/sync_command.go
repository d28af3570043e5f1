// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/feedarr/internal/database"
	"github.com/autobrr/feedarr/internal/metrics"
	"github.com/autobrr/feedarr/internal/services/feedsync"
)

func RunSyncCommand(configPath *string) *cobra.Command {
	var (
		once     bool
		resume   bool
		interval time.Duration
		feeds    []string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync configured feeds into release records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := a.cfg.Config
			if interval == 0 {
				interval, err = cfg.SyncEvery()
				if err != nil {
					return err
				}
			}

			sources, err := buildSources(cfg, feeds)
			if err != nil {
				return err
			}

			manager := metrics.NewManager(database.NewMetricsCollector())
			svc, err := buildSyncService(a, manager.Sync())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			runCtx, cancelRun := context.WithCancel(gctx)
			defer cancelRun()

			g.Go(func() error {
				defer cancelRun()
				if !once {
					a.cfg.Watch(nil)
					log.Info().Int("feeds", len(sources)).Dur("interval", interval).Msg("starting feed sync loop")
					return svc.Loop(runCtx, sources, interval)
				}

				summaries, err := svc.RunAll(runCtx, sources, feedsync.RunOptions{Resume: resume})
				printSummaries(cmd, summaries)
				return err
			})

			if cfg.MetricsEnabled {
				server := metrics.NewMetricsServer(manager, cfg.MetricsHost, cfg.MetricsPort, cfg.MetricsBasicAuthUsers)
				g.Go(server.ListenAndServe)
				g.Go(func() error {
					<-runCtx.Done()
					return server.Stop()
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Sync every feed once and exit")
	cmd.Flags().BoolVar(&resume, "resume", false, "With --once, skip items an interrupted run already stored")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Time between syncs (default: syncInterval from config)")
	cmd.Flags().StringSliceVar(&feeds, "feed", nil, "Only sync the named feeds")

	return cmd
}

func printSummaries(cmd *cobra.Command, summaries []*feedsync.RunSummary) {
	for _, s := range summaries {
		if s == nil {
			continue
		}
		cmd.Printf("%s: processed=%d new=%d ignored=%d upgrade=%d added=%d unchanged=%d errored=%d skipped=%d (%s)\n",
			s.Feed, s.Processed, s.New, s.Ignored, s.Upgrade, s.Added, s.Unchanged, s.Errored, s.Skipped, s.Duration.Round(time.Millisecond))
		for _, itemErr := range s.Errors {
			cmd.Printf("  error: %s\n", itemErr.Error())
		}
	}
}
