// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package resolver turns a release name into a catalog identity.
//
// Resolution runs an ordered list of strategies over a shared state. A
// strategy either settles the identity, which ends the run, or leaves a
// candidate behind for the strategies after it to confirm or replace:
//
//	manual -> library -> primary -> secondary -> cross-validate -> web search
//
// Lookup failures never fail resolution. They are logged, recorded in the
// decision trail and treated as "no result".
package resolver

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/feedarr/internal/catalog"
	"github.com/autobrr/feedarr/internal/match"
	"github.com/autobrr/feedarr/pkg/releases"
)

// Config wires the capabilities a Resolver uses. Every capability is
// optional; a missing one is skipped.
type Config struct {
	// Primary is the id-rich catalog (TheTVDB).
	Primary catalog.Catalog
	// Secondary is the authoritative-title catalog (TMDB).
	Secondary    catalog.Catalog
	ShowLibrary  catalog.Library
	MovieLibrary catalog.Library
	WebSearch    catalog.WebSearch

	SimilarityFloor float64
	// LibraryFirst checks the local library before any catalog. When false
	// the library is only searched by name if every catalog failed.
	LibraryFirst bool
}

// Resolver resolves identities. It is safe for sequential use only.
type Resolver struct {
	cfg        Config
	validator  match.Validator
	strategies []strategy
}

type strategy struct {
	step Step
	run  func(ctx context.Context, st *state) error
}

// New returns a Resolver for cfg.
func New(cfg Config) *Resolver {
	r := &Resolver{cfg: cfg, validator: match.NewValidator(cfg.SimilarityFloor)}

	library := strategy{StepLibrary, r.fromLibrary}
	r.strategies = []strategy{{StepManual, r.fromManual}}
	if cfg.LibraryFirst {
		r.strategies = append(r.strategies, library)
	}
	r.strategies = append(r.strategies,
		strategy{StepPrimary, r.fromPrimary},
		strategy{StepSecondary, r.fromSecondary},
		strategy{StepCross, r.crossValidate},
		strategy{StepWebSearch, r.fromWebSearch},
	)
	if !cfg.LibraryFirst {
		r.strategies = append(r.strategies, library)
	}
	return r
}

// state is threaded through the strategies.
type state struct {
	in    Input
	trail []Decision

	// primary is the current primary catalog candidate; unconfirmed until
	// the cross-validation step has seen it.
	primary   *catalog.Detail
	secondary *catalog.Detail
	library   *catalog.LibraryItem

	settled    bool
	confidence Confidence
}

func (st *state) record(d Decision) {
	st.trail = append(st.trail, d)
}

func (st *state) settle(c Confidence) {
	st.settled = true
	st.confidence = c
}

// Resolve runs the waterfall for in. The only error it returns is the
// context's, when ctx ends mid-run.
func (r *Resolver) Resolve(ctx context.Context, in Input) (Result, error) {
	st := &state{in: in, confidence: ConfidenceUnresolved}

	for _, s := range r.strategies {
		if st.settled {
			break
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := s.run(ctx, st); err != nil {
			return Result{}, err
		}
	}

	if !st.settled {
		switch {
		case st.primary != nil || st.secondary != nil:
			st.confidence = ConfidenceSingleSource
		default:
			st.confidence = ConfidenceUnresolved
		}
	}

	identity := st.identity()
	if identity.Library == nil && identity.Resolved() {
		item, err := r.linkLibrary(ctx, in.kind(), identity)
		if err != nil {
			return Result{}, err
		}
		identity.Library = item
	}

	r.logTrail(in, identity, st.trail)
	return Result{Identity: identity, Trail: st.trail}, nil
}

func (st *state) identity() Identity {
	id := Identity{Confidence: st.confidence, Library: st.library}

	if lib := st.library; lib != nil {
		id.TVDBID, id.TMDBID, id.IMDBID = lib.TVDBID, lib.TMDBID, lib.IMDBID
		id.Title, id.Year = lib.Title, lib.Year
		id.PrimaryPoster = lib.PosterURL
	}
	if p := st.primary; p != nil {
		id.TVDBID = firstNonEmpty(p.ID, id.TVDBID)
		id.TMDBID = firstNonEmpty(id.TMDBID, p.TMDBID)
		id.IMDBID = firstNonEmpty(id.IMDBID, p.IMDBID)
		id.Title = firstNonEmpty(p.Title, id.Title)
		id.Year = firstNonZero(p.Year, id.Year)
		id.OriginalLanguage = p.OriginalLanguage
		id.PrimaryPoster = firstNonEmpty(p.PosterURL, id.PrimaryPoster)
	}
	if s := st.secondary; s != nil {
		// the secondary catalog's title is canonical whenever it has one
		id.TMDBID = firstNonEmpty(s.ID, id.TMDBID)
		id.TVDBID = firstNonEmpty(id.TVDBID, s.TVDBID)
		id.IMDBID = firstNonEmpty(s.IMDBID, id.IMDBID)
		id.Title = firstNonEmpty(s.Title, id.Title)
		id.Year = firstNonZero(s.Year, id.Year)
		id.OriginalLanguage = firstNonEmpty(s.OriginalLanguage, id.OriginalLanguage)
		id.SecondaryPoster = s.PosterURL
	}

	m := st.in.Manual
	id.TVDBID = firstNonEmpty(m.TVDBID, id.TVDBID)
	id.TMDBID = firstNonEmpty(m.TMDBID, id.TMDBID)
	id.IMDBID = firstNonEmpty(m.IMDBID, id.IMDBID)
	return id
}

func (r *Resolver) library(kind releases.Kind) catalog.Library {
	if kind == releases.KindTV {
		return r.cfg.ShowLibrary
	}
	return r.cfg.MovieLibrary
}

// linkLibrary finds the held library item for an identity by its ids.
func (r *Resolver) linkLibrary(ctx context.Context, kind releases.Kind, id Identity) (*catalog.LibraryItem, error) {
	lib := r.library(kind)
	if lib == nil {
		return nil, nil
	}
	for _, ext := range []catalog.ExternalID{
		{Source: catalog.SourceTVDB, Value: id.TVDBID},
		{Source: catalog.SourceTMDB, Value: id.TMDBID},
		{Source: catalog.SourceIMDB, Value: id.IMDBID},
	} {
		if ext.Value == "" {
			continue
		}
		item, err := lib.FindByExternalID(ctx, ext)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Warn().Err(err).Str("id", ext.String()).Msg("resolver: library lookup failed")
			return nil, nil
		}
		if item != nil {
			return item, nil
		}
	}
	return nil, nil
}

// lookupFailed records a failed external call. It returns the context error
// when the failure came from cancellation, so the run stops instead of
// carrying on with an empty result.
func (st *state) lookupFailed(ctx context.Context, step Step, source, id string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	log.Warn().Err(err).Str("step", string(step)).Str("source", source).Str("name", st.in.Name).Msg("resolver: lookup failed, treating as no result")
	st.record(Decision{Step: step, Source: source, ID: id, Rule: match.RuleLookupFailed, Note: err.Error()})
	return nil
}

func (r *Resolver) logTrail(in Input, id Identity, trail []Decision) {
	if !log.Debug().Enabled() {
		return
	}
	arr := zerolog.Arr()
	for _, d := range trail {
		arr.Str(d.String())
	}
	log.Debug().
		Str("name", in.Name).
		Str("confidence", string(id.Confidence)).
		Str("tvdb", id.TVDBID).
		Str("tmdb", id.TMDBID).
		Str("title", id.Title).
		Array("trail", arr).
		Msg("resolver: resolved")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
