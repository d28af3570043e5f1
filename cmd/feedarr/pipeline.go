// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/feedarr/internal/arr"
	"github.com/autobrr/feedarr/internal/catalog"
	"github.com/autobrr/feedarr/internal/catalog/tmdb"
	"github.com/autobrr/feedarr/internal/catalog/tvdb"
	"github.com/autobrr/feedarr/internal/catalog/websearch"
	"github.com/autobrr/feedarr/internal/domain"
	"github.com/autobrr/feedarr/internal/feed"
	"github.com/autobrr/feedarr/internal/metrics"
	"github.com/autobrr/feedarr/internal/resolver"
	"github.com/autobrr/feedarr/internal/services/feedsync"
)

// buildResolver wires every configured catalog and library behind one
// shared rate gate. Services without credentials are left out of the
// waterfall. The arr clients are returned so a sync can relist them per run.
func buildResolver(cfg *domain.Config, gate *catalog.Gate) (*resolver.Resolver, []feedsync.LibraryCache, error) {
	var libraries []feedsync.LibraryCache
	rc := resolver.Config{
		SimilarityFloor: cfg.Resolver.SimilarityFloor,
		LibraryFirst:    cfg.Resolver.LibraryFirst,
	}

	if cfg.TVDB.APIKey != "" {
		c, err := tvdb.New(tvdb.Config{APIKey: cfg.TVDB.APIKey, PIN: cfg.TVDB.PIN, BaseURL: cfg.TVDB.BaseURL})
		if err != nil {
			return nil, nil, err
		}
		rc.Primary = catalog.NewGated(c, gate)
	} else {
		log.Warn().Msg("tvdb api key not set, primary catalog disabled")
	}

	if cfg.TMDB.APIKey != "" {
		c, err := tmdb.New(tmdb.Config{APIKey: cfg.TMDB.APIKey, BaseURL: cfg.TMDB.BaseURL, Language: cfg.TMDB.Language})
		if err != nil {
			return nil, nil, err
		}
		rc.Secondary = catalog.NewGated(c, gate)
	} else {
		log.Warn().Msg("tmdb api key not set, secondary catalog disabled")
	}

	if cfg.Sonarr.Enabled() {
		c, err := newArrClient(arr.TypeSonarr, cfg.Sonarr)
		if err != nil {
			return nil, nil, err
		}
		rc.ShowLibrary = catalog.NewGatedLibrary(string(arr.TypeSonarr), c, gate)
		libraries = append(libraries, c)
	}
	if cfg.Radarr.Enabled() {
		c, err := newArrClient(arr.TypeRadarr, cfg.Radarr)
		if err != nil {
			return nil, nil, err
		}
		rc.MovieLibrary = catalog.NewGatedLibrary(string(arr.TypeRadarr), c, gate)
		libraries = append(libraries, c)
	}

	if cfg.WebSearch.Enabled {
		rc.WebSearch = catalog.NewGatedWebSearch("websearch", websearch.New(websearch.Config{BaseURL: cfg.WebSearch.BaseURL}), gate)
	}

	return resolver.New(rc), libraries, nil
}

func newArrClient(t arr.Type, c domain.ArrConfig) (*arr.Client, error) {
	return arr.New(arr.Config{
		Type:          t,
		BaseURL:       c.BaseURL,
		APIKey:        c.APIKey,
		BasicUsername: c.BasicUsername,
		BasicPassword: c.BasicPassword,
		Timeout:       time.Duration(c.TimeoutSeconds) * time.Second,
	})
}

// buildSources returns the configured feeds, limited to names when given.
func buildSources(cfg *domain.Config, names []string) ([]feed.Source, error) {
	selected := cfg.Feeds
	if len(names) > 0 {
		selected = selected[:0:0]
		for _, name := range names {
			fc, ok := cfg.FindFeed(strings.TrimSpace(name))
			if !ok {
				return nil, fmt.Errorf("unknown feed %q", name)
			}
			selected = append(selected, fc)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no feeds configured")
	}

	sources := make([]feed.Source, 0, len(selected))
	for _, fc := range selected {
		kind, err := fc.FeedKind()
		if err != nil {
			return nil, err
		}
		client, err := feed.New(feed.Config{
			Name:    fc.Name,
			URL:     fc.URL,
			APIKey:  fc.APIKey,
			Timeout: time.Duration(fc.TimeoutSeconds) * time.Second,
			Kind:    kind,
		})
		if err != nil {
			return nil, err
		}
		sources = append(sources, client)
	}
	return sources, nil
}

func buildSyncService(a *app, collector *metrics.SyncCollector) (*feedsync.Service, error) {
	cfg := a.cfg.Config
	gate := catalog.NewGate(cfg.RequestsPerSecond, catalog.WithObserver(collector))

	res, libraries, err := buildResolver(cfg, gate)
	if err != nil {
		return nil, err
	}

	return feedsync.NewService(feedsync.Config{
		Policy:             cfg.Quality,
		CheckpointInterval: cfg.CheckpointInterval,
	}, feedsync.Deps{
		Store:       a.release,
		IgnoreList:  a.ignore,
		Checkpoints: a.cps,
		Resolver:    res,
		Libraries:   libraries,
		Observer:    collector,
	})
}
