// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package feedsync

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/feedarr/internal/feed"
)

// RunAll syncs every source in order. A failing feed does not stop the
// others; the returned error joins the per-feed failures.
func (s *Service) RunAll(ctx context.Context, sources []feed.Source, opts RunOptions) ([]*RunSummary, error) {
	summaries := make([]*RunSummary, 0, len(sources))
	var errs []error

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		summary, err := s.Run(ctx, src, opts)
		summaries = append(summaries, summary)
		if err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
	}

	return summaries, errors.Join(errs...)
}

// Loop syncs all sources immediately and then every interval until ctx is
// done. The first pass resumes interrupted runs; later passes start over.
func (s *Service) Loop(ctx context.Context, sources []feed.Source, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("feedsync: interval must be positive")
	}

	s.runPass(ctx, sources, RunOptions{Resume: true})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runPass(ctx, sources, RunOptions{})
		}
	}
}

func (s *Service) runPass(ctx context.Context, sources []feed.Source, opts RunOptions) {
	if _, err := s.RunAll(ctx, sources, opts); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("feedsync: sync pass failed")
	}
}
