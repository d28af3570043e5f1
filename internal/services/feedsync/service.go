// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package feedsync drives feed items through parsing, identity resolution,
// scoring and the release state machine, and stores the resulting records.
package feedsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/feedarr/internal/feed"
	"github.com/autobrr/feedarr/internal/models"
	"github.com/autobrr/feedarr/internal/parser"
	"github.com/autobrr/feedarr/internal/quality"
	"github.com/autobrr/feedarr/internal/releasestate"
	"github.com/autobrr/feedarr/internal/resolver"
	"github.com/autobrr/feedarr/pkg/releases"
)

// ReleaseStore persists release records keyed by guid.
type ReleaseStore interface {
	Get(ctx context.Context, guid string) (*releasestate.Record, error)
	Upsert(ctx context.Context, rec *releasestate.Record) (models.UpsertResult, error)
	CountByStatus(ctx context.Context) (map[releasestate.Status]int, error)
}

// IgnoreList provides the ignore list snapshot taken at the start of a run.
type IgnoreList interface {
	Snapshot(ctx context.Context) (map[string]struct{}, error)
}

// Checkpoints stores run progress per feed.
type Checkpoints interface {
	Save(ctx context.Context, cp models.Checkpoint) error
	Get(ctx context.Context, feed string) (*models.Checkpoint, error)
}

// Resolver resolves a release name to a catalog identity.
type Resolver interface {
	Resolve(ctx context.Context, in resolver.Input) (resolver.Result, error)
}

// LibraryCache is a local library index listed lazily and dropped at the
// start of every run.
type LibraryCache interface {
	Invalidate()
}

// Observer receives per-item and per-run outcomes. The metrics sync
// collector implements it.
type Observer interface {
	ObserveItem(feed, outcome string)
	ObserveRun(feed string, d time.Duration, failed bool)
	SetStatusCounts(counts map[string]int)
}

// kinded is implemented by sources pinned to a release kind.
type kinded interface {
	Kind() releases.Kind
}

const (
	outcomeErrored   = "errored"
	outcomeUnchanged = "unchanged"
	outcomeSkipped   = "skipped"
)

// Service runs feed syncs.
type Service struct {
	cfg         Config
	parser      *parser.Parser
	store       ReleaseStore
	ignoreList  IgnoreList
	checkpoints Checkpoints
	resolver    Resolver
	libraries   []LibraryCache
	observer    Observer
}

// Deps are the collaborators of a Service. Observer and Libraries are
// optional.
type Deps struct {
	Parser      *parser.Parser
	Store       ReleaseStore
	IgnoreList  IgnoreList
	Checkpoints Checkpoints
	Resolver    Resolver
	Libraries   []LibraryCache
	Observer    Observer
}

// NewService creates a sync service.
func NewService(cfg Config, deps Deps) (*Service, error) {
	if deps.Store == nil || deps.IgnoreList == nil || deps.Checkpoints == nil || deps.Resolver == nil {
		return nil, errors.New("feedsync: store, ignore list, checkpoints and resolver are required")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("feedsync: %w", err)
	}
	if cfg.CheckpointInterval <= 0 {
		cfg.CheckpointInterval = DefaultConfig().CheckpointInterval
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	p := deps.Parser
	if p == nil {
		p = parser.New(releases.NewDefaultParser())
	}

	return &Service{
		cfg:         cfg,
		parser:      p,
		store:       deps.Store,
		ignoreList:  deps.IgnoreList,
		checkpoints: deps.Checkpoints,
		resolver:    deps.Resolver,
		libraries:   deps.Libraries,
		observer:    deps.Observer,
	}, nil
}

// RunOptions tune a single run.
type RunOptions struct {
	// Resume skips the items an interrupted run already stored.
	Resume bool
}

// ItemError is a failure isolated to one feed item.
type ItemError struct {
	GUID  string
	Title string
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.GUID, e.Title, e.Err)
}

func (e ItemError) Unwrap() error { return e.Err }

// RunSummary aggregates the per-item outcomes of a run.
type RunSummary struct {
	RunID     string
	Feed      string
	Processed int
	New       int
	Ignored   int
	Upgrade   int
	Added     int
	Unchanged int
	Errored   int
	Skipped   int
	Errors    []ItemError
	Duration  time.Duration
}

func (s *RunSummary) count(status releasestate.Status) {
	switch {
	case status.IsNew():
		s.New++
	case status == releasestate.StatusIgnored:
		s.Ignored++
	case status == releasestate.StatusUpgradeCandidate:
		s.Upgrade++
	case status == releasestate.StatusAdded:
		s.Added++
	}
}

// Run fetches src once and processes its items in feed order. Item failures
// are collected in the summary; only fetch failures, store failures outside
// of an item and cancellation fail the run.
func (s *Service) Run(ctx context.Context, src feed.Source, opts RunOptions) (*RunSummary, error) {
	start := time.Now()
	summary := &RunSummary{RunID: uuid.NewString(), Feed: src.Name()}
	logger := log.With().Str("feed", summary.Feed).Str("run", summary.RunID).Logger()

	for _, lib := range s.libraries {
		lib.Invalidate()
	}

	err := s.run(ctx, src, opts, summary)
	summary.Duration = time.Since(start)

	if s.observer != nil {
		s.observer.ObserveRun(summary.Feed, summary.Duration, err != nil)
		s.publishStatusCounts(ctx)
	}

	event := logger.Info()
	if err != nil {
		event = logger.Error().Err(err)
	}
	event.
		Int("processed", summary.Processed).
		Int("new", summary.New).
		Int("ignored", summary.Ignored).
		Int("upgrade", summary.Upgrade).
		Int("added", summary.Added).
		Int("unchanged", summary.Unchanged).
		Int("errored", summary.Errored).
		Int("skipped", summary.Skipped).
		Dur("duration", summary.Duration).
		Msg("feed sync finished")

	return summary, err
}

func (s *Service) run(ctx context.Context, src feed.Source, opts RunOptions, summary *RunSummary) error {
	items, err := src.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch feed %s: %w", summary.Feed, err)
	}

	ignore, err := s.ignoreList.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load ignore list: %w", err)
	}

	start := 0
	if opts.Resume {
		start, err = s.resumeIndex(ctx, summary.Feed, items)
		if err != nil {
			return err
		}
		summary.Skipped = start
	}

	kind := releases.KindUnknown
	if k, ok := src.(kinded); ok {
		kind = k.Kind()
	}

	var lastGUID string
	for i := start; i < len(items); i++ {
		if err := ctx.Err(); err != nil {
			s.saveCheckpoint(summary, lastGUID, false)
			return err
		}

		item := items[i]
		rec, result, err := s.processItem(ctx, summary.Feed, kind, item, ignore)
		summary.Processed++
		switch {
		case err != nil && ctx.Err() != nil:
			s.saveCheckpoint(summary, lastGUID, false)
			return ctx.Err()
		case err != nil:
			summary.Errored++
			summary.Errors = append(summary.Errors, ItemError{GUID: item.GUID, Title: item.Title, Err: err})
			log.Warn().Err(err).Str("feed", summary.Feed).Str("guid", item.GUID).Str("title", item.Title).Msg("feed item failed")
			s.observe(summary.Feed, outcomeErrored)
		default:
			summary.count(rec.Status)
			if result == models.UpsertUnchanged {
				summary.Unchanged++
				s.observe(summary.Feed, outcomeUnchanged)
			} else {
				s.observe(summary.Feed, strings.ToLower(string(rec.Status)))
			}
		}

		lastGUID = item.GUID
		if summary.Processed%s.cfg.CheckpointInterval == 0 {
			s.saveCheckpoint(summary, lastGUID, false)
		}
	}

	s.saveCheckpoint(summary, lastGUID, true)
	return nil
}

// resumeIndex returns the index of the first item after the last one an
// unfinished run of the feed checkpointed. Items already past the
// checkpoint are reported to the observer as skipped.
func (s *Service) resumeIndex(ctx context.Context, feedName string, items []feed.Item) (int, error) {
	cp, err := s.checkpoints.Get(ctx, feedName)
	if errors.Is(err, models.ErrCheckpointNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load checkpoint: %w", err)
	}
	if cp.Completed || cp.LastGUID == "" {
		return 0, nil
	}

	for i, item := range items {
		if item.GUID == cp.LastGUID {
			log.Info().Str("feed", feedName).Str("run", cp.RunID).Int("skipped", i+1).Msg("resuming interrupted feed sync")
			for range i + 1 {
				s.observe(feedName, outcomeSkipped)
			}
			return i + 1, nil
		}
	}

	log.Debug().Str("feed", feedName).Str("guid", cp.LastGUID).Msg("checkpoint guid no longer in feed, processing all items")
	return 0, nil
}

// saveCheckpoint runs detached from the run context so an interrupted run
// still records how far it got.
func (s *Service) saveCheckpoint(summary *RunSummary, lastGUID string, completed bool) {
	if lastGUID == "" && !completed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cp := models.Checkpoint{
		Feed:      summary.Feed,
		RunID:     summary.RunID,
		LastGUID:  lastGUID,
		Processed: summary.Processed,
		Completed: completed,
		UpdatedAt: s.cfg.Now(),
	}
	if err := s.checkpoints.Save(ctx, cp); err != nil {
		log.Warn().Err(err).Str("feed", summary.Feed).Msg("failed to save sync checkpoint")
	}
}

func (s *Service) processItem(ctx context.Context, feedName string, kind releases.Kind, item feed.Item, ignore map[string]struct{}) (*releasestate.Record, models.UpsertResult, error) {
	if strings.TrimSpace(item.GUID) == "" {
		return nil, models.UpsertUnchanged, errors.New("feed item has no guid")
	}

	rel := s.parseItem(kind, item)

	prev, err := s.store.Get(ctx, item.GUID)
	if errors.Is(err, models.ErrReleaseNotFound) {
		prev = nil
	} else if err != nil {
		return nil, models.UpsertUnchanged, fmt.Errorf("load release: %w", err)
	}

	var resolution resolver.Result
	if s.shouldResolve(rel) {
		resolution, err = s.resolver.Resolve(ctx, resolverInput(rel, prev))
		if err != nil {
			return nil, models.UpsertUnchanged, fmt.Errorf("resolve %q: %w", rel.CleanTitle, err)
		}
	}

	rec, outcome := releasestate.Evaluate(prev, releasestate.Evaluation{
		GUID:        item.GUID,
		Feed:        feedName,
		PublishedAt: item.PublishedAt,
		Release:     rel,
		Resolution:  resolution,
		Policy:      s.cfg.Policy,
		IgnoreList:  ignore,
		Now:         s.cfg.Now(),
	})

	result, err := s.store.Upsert(ctx, &rec)
	if err != nil {
		return nil, models.UpsertUnchanged, fmt.Errorf("store release: %w", err)
	}

	log.Debug().
		Str("feed", feedName).
		Str("guid", item.GUID).
		Str("title", item.Title).
		Str("status", string(outcome.Status)).
		Str("reason", string(outcome.Reason)).
		Str("confidence", string(rec.Confidence)).
		Stringer("result", result).
		Msg("processed feed item")

	return &rec, result, nil
}

// parseItem parses the item title with its size and description, filling
// in feed-provided ids and languages and the kind the feed is pinned to.
func (s *Service) parseItem(kind releases.Kind, item feed.Item) parser.Release {
	description := item.Description
	if size := item.SizeText(); size != "" {
		description = size + "\n" + description
	}

	rel := s.parser.Parse(item.Title, description)
	rel.GUID = item.GUID
	rel.AudioLanguages = parser.AddLanguages(rel.AudioLanguages, item.Languages...)

	if rel.Embedded.TMDBID == "" {
		rel.Embedded.TMDBID = item.IDs.TMDBID
	}
	if rel.Embedded.IMDBID == "" {
		rel.Embedded.IMDBID = item.IDs.IMDBID
	}
	if rel.Embedded.TVDBID == "" {
		rel.Embedded.TVDBID = item.IDs.TVDBID
	}

	if kind == releases.KindUnknown && rel.Kind == releases.KindUnknown {
		kind = item.KindHint()
	}
	switch kind {
	case releases.KindMovie:
		rel.Kind = releases.KindMovie
		rel.Season = nil
		rel.ShowName = ""
	case releases.KindTV:
		rel.Kind = releases.KindTV
		if rel.ShowName == "" {
			rel.ShowName = rel.CleanTitle
		}
	}
	return rel
}

// shouldResolve reports whether catalog enrichment is pursued. Inadmissible
// movies are ignored without it.
func (s *Service) shouldResolve(rel parser.Release) bool {
	if releasestate.KindOf(rel) == releases.KindMovie {
		return quality.IsAdmissible(rel, s.cfg.Policy)
	}
	return true
}

func resolverInput(rel parser.Release, prev *releasestate.Record) resolver.Input {
	kind := releasestate.KindOf(rel)
	name := rel.CleanTitle
	if kind == releases.KindTV && rel.ShowName != "" {
		name = rel.ShowName
	}

	in := resolver.Input{
		Name:     name,
		Kind:     kind,
		Season:   rel.Season,
		Year:     rel.Year,
		Manual:   prev.ManualIDs(),
		Embedded: rel.Embedded,
	}
	switch {
	case prev != nil && prev.OriginalLanguage != "":
		in.ExpectedLanguage = prev.OriginalLanguage
	case len(rel.AudioLanguages) > 0:
		in.ExpectedLanguage = rel.AudioLanguages[0]
	}
	return in
}

func (s *Service) observe(feedName, outcome string) {
	if s.observer != nil {
		s.observer.ObserveItem(feedName, outcome)
	}
}

func (s *Service) publishStatusCounts(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to count releases by status")
		return
	}
	out := make(map[string]int, len(counts))
	for status, n := range counts {
		out[string(status)] = n
	}
	s.observer.SetStatusCounts(out)
}
