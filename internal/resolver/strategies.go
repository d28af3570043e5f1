// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package resolver

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/feedarr/internal/catalog"
	"github.com/autobrr/feedarr/internal/match"
)

const webSearchSource = "websearch"

// fromManual trusts user-set ids and only enriches them.
func (r *Resolver) fromManual(ctx context.Context, st *state) error {
	m := st.in.Manual
	if m.Empty() {
		return nil
	}

	if m.TVDBID != "" && r.cfg.Primary != nil {
		d, err := r.detail(ctx, st, StepManual, r.cfg.Primary, m.TVDBID)
		if err != nil {
			return err
		}
		st.primary = d
	}

	tmdbID := m.TMDBID
	if tmdbID == "" && st.primary != nil {
		tmdbID = st.primary.TMDBID
	}
	if tmdbID != "" && r.cfg.Secondary != nil {
		d, err := r.detail(ctx, st, StepManual, r.cfg.Secondary, tmdbID)
		if err != nil {
			return err
		}
		st.secondary = d
	}

	if st.primary == nil && m.TVDBID == "" && st.secondary != nil && st.secondary.TVDBID != "" && r.cfg.Primary != nil {
		d, err := r.detail(ctx, st, StepManual, r.cfg.Primary, st.secondary.TVDBID)
		if err != nil {
			return err
		}
		st.primary = d
	}

	st.record(Decision{
		Step:     StepManual,
		ID:       firstNonEmpty(m.TVDBID, m.TMDBID, m.IMDBID),
		Rule:     match.RuleManual,
		Accepted: true,
	})
	st.settle(ConfidenceManual)
	return nil
}

// fromLibrary adopts the ids of a held item with the same normalized name.
func (r *Resolver) fromLibrary(ctx context.Context, st *state) error {
	lib := r.library(st.in.kind())
	if lib == nil || strings.TrimSpace(st.in.Name) == "" {
		return nil
	}

	item, err := lib.FindByNormalizedName(ctx, st.in.Name)
	if errors.Is(err, catalog.ErrNotFound) {
		item, err = nil, nil
	}
	if err != nil {
		return st.lookupFailed(ctx, StepLibrary, "library", "", err)
	}
	if item == nil {
		st.record(Decision{Step: StepLibrary, Source: "library", Rule: match.RuleNoCandidates})
		return nil
	}

	d := Decision{
		Step:   StepLibrary,
		Source: "library",
		ID:     strconv.Itoa(item.ID),
		Title:  item.Title,
		Score:  match.Similarity(st.in.Name, item.Title),
	}
	if st.in.Season == nil && !match.YearMatches(st.in.Year, item.Year) {
		d.Rule = match.RuleYearMismatch
		st.record(d)
		return nil
	}

	d.Rule = match.RuleLibrary
	d.Accepted = true
	st.record(d)
	st.library = item
	st.settle(ConfidenceLibrary)
	return nil
}

// fromPrimary finds a primary catalog candidate. The candidate stays
// unconfirmed until cross-validation.
func (r *Resolver) fromPrimary(ctx context.Context, st *state) error {
	c := r.cfg.Primary
	if c == nil {
		return nil
	}

	if id := st.in.Embedded.TVDBID; id != "" {
		d, err := r.detail(ctx, st, StepPrimary, c, id)
		if err != nil {
			return err
		}
		if d != nil {
			st.record(Decision{Step: StepPrimary, Source: c.Name(), ID: d.ID, Title: d.Title, Rule: match.RuleEmbeddedID, Accepted: true})
			st.primary = d
			return nil
		}
	}

	d, err := r.search(ctx, st, StepPrimary, c)
	if err != nil {
		return err
	}
	st.primary = d
	return nil
}

// fromSecondary fills the secondary catalog id, by the id the primary
// candidate or the release links to when there is one, else by search.
func (r *Resolver) fromSecondary(ctx context.Context, st *state) error {
	c := r.cfg.Secondary
	if c == nil {
		return nil
	}

	var linked string
	rule := match.RuleLinkedID
	switch {
	case st.primary != nil && st.primary.TMDBID != "":
		linked = st.primary.TMDBID
	case st.in.Embedded.TMDBID != "":
		linked = st.in.Embedded.TMDBID
		rule = match.RuleEmbeddedID
	}
	if linked != "" {
		d, err := r.detail(ctx, st, StepSecondary, c, linked)
		if err != nil {
			return err
		}
		if d != nil {
			st.record(Decision{Step: StepSecondary, Source: c.Name(), ID: d.ID, Title: d.Title, Rule: rule, Accepted: true})
			st.secondary = d
			return nil
		}
	}

	d, err := r.search(ctx, st, StepSecondary, c)
	if err != nil {
		return err
	}
	st.secondary = d
	return nil
}

// crossValidate settles the identity from whatever the catalogs produced.
// A primary candidate the secondary result disagrees with is dropped and,
// when the secondary result links a primary id, replaced by that id.
func (r *Resolver) crossValidate(ctx context.Context, st *state) error {
	p, s := st.primary, st.secondary
	switch {
	case p != nil && s != nil:
		link, note := crossCheck(p, s)
		switch link {
		case linkAgree:
			st.record(Decision{Step: StepCross, ID: p.ID, Title: s.Title, Rule: match.RuleCrossAgree, Accepted: true})
			st.settle(ConfidenceCrossValidated)
			return nil
		case linkUnknown:
			st.record(Decision{Step: StepCross, ID: p.ID, Title: s.Title, Rule: match.RuleUnconfirmed, Accepted: true, Note: note})
			st.settle(ConfidenceSingleSource)
			return nil
		}

		log.Warn().
			Str("name", st.in.Name).
			Str("primaryId", p.ID).
			Str("primaryLinkedTmdb", p.TMDBID).
			Str("secondaryId", s.ID).
			Str("secondaryLinkedTvdb", s.TVDBID).
			Msg("resolver: catalogs disagree, dropping primary candidate")
		st.record(Decision{Step: StepCross, ID: p.ID, Title: p.Title, Rule: match.RuleCrossMismatch, Note: note})
		st.primary = nil
		return r.followSecondaryLink(ctx, st)

	case p != nil:
		st.record(Decision{Step: StepCross, ID: p.ID, Title: p.Title, Rule: match.RuleUnconfirmed, Accepted: true, Note: "no secondary result"})
		st.settle(ConfidenceSingleSource)
		return nil

	case s != nil:
		return r.followSecondaryLink(ctx, st)
	}
	return nil
}

// followSecondaryLink fetches the primary record the secondary result links
// to. The identity is cross-validated when that record links back.
func (r *Resolver) followSecondaryLink(ctx context.Context, st *state) error {
	s := st.secondary
	if s.TVDBID != "" && r.cfg.Primary != nil {
		d, err := r.detail(ctx, st, StepCross, r.cfg.Primary, s.TVDBID)
		if err != nil {
			return err
		}
		if d != nil {
			st.primary = d
			if d.TMDBID == s.ID {
				st.record(Decision{Step: StepCross, Source: r.cfg.Primary.Name(), ID: d.ID, Title: d.Title, Rule: match.RuleCrossAgree, Accepted: true})
				st.settle(ConfidenceCrossValidated)
				return nil
			}
			st.record(Decision{Step: StepCross, Source: r.cfg.Primary.Name(), ID: d.ID, Title: d.Title, Rule: match.RuleLinkedID, Accepted: true})
		}
	}
	if !st.settled {
		st.settle(ConfidenceSingleSource)
	}
	return nil
}

// fromWebSearch recovers a primary id when both catalogs found nothing.
func (r *Resolver) fromWebSearch(ctx context.Context, st *state) error {
	ws := r.cfg.WebSearch
	if ws == nil || r.cfg.Primary == nil || st.primary != nil || st.secondary != nil {
		return nil
	}

	id, err := ws.SearchForID(ctx, st.in.Name)
	if errors.Is(err, catalog.ErrNotFound) {
		id, err = "", nil
	}
	if err != nil {
		return st.lookupFailed(ctx, StepWebSearch, webSearchSource, "", err)
	}
	if id == "" {
		st.record(Decision{Step: StepWebSearch, Source: webSearchSource, Rule: match.RuleNoCandidates})
		return nil
	}

	d, err := r.detail(ctx, st, StepWebSearch, r.cfg.Primary, id)
	if err != nil {
		return err
	}
	var note string
	if d == nil {
		// keep the bare id; the title stays unknown
		d = &catalog.Detail{ID: id, Kind: st.in.kind()}
		note = "detail unavailable"
	}
	st.record(Decision{
		Step:     StepWebSearch,
		Source:   webSearchSource,
		ID:       d.ID,
		Title:    d.Title,
		Score:    match.Similarity(st.in.Name, d.Title),
		Rule:     match.RuleWebSearch,
		Accepted: true,
		Note:     note,
	})
	st.primary = d
	st.settle(ConfidenceSingleSource)
	return nil
}

// search runs a free-text search on c and returns the detail of the best
// validated hit, or nil.
func (r *Resolver) search(ctx context.Context, st *state, step Step, c catalog.Catalog) (*catalog.Detail, error) {
	if strings.TrimSpace(st.in.Name) == "" {
		return nil, nil
	}

	results, err := c.Search(ctx, st.in.Name, st.in.filters())
	if errors.Is(err, catalog.ErrNotFound) {
		results, err = nil, nil
	}
	if err != nil {
		return nil, st.lookupFailed(ctx, step, c.Name(), "", err)
	}
	if len(results) == 0 {
		st.record(Decision{Step: step, Source: c.Name(), Rule: match.RuleNoCandidates})
		return nil, nil
	}

	q := st.in.query()
	verdicts := make([]match.Verdict, len(results))
	for i, res := range results {
		verdicts[i] = r.validator.Evaluate(q, match.Candidate{Title: res.Title, Year: res.Year})
	}
	best := pickBest(verdicts, results, st.in.ExpectedLanguage)

	for i, v := range verdicts {
		d := Decision{
			Step:     step,
			Source:   c.Name(),
			ID:       results[i].ID,
			Title:    results[i].Title,
			Score:    v.Score,
			Rule:     v.Rule,
			Accepted: i == best,
		}
		if v.Accepted && i != best {
			d.Note = "outranked"
		}
		st.record(d)
	}
	if best < 0 {
		return nil, nil
	}

	winner := results[best]
	detail, err := r.detail(ctx, st, step, c, winner.ID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		detail = &catalog.Detail{
			ID:               winner.ID,
			Title:            winner.Title,
			Year:             winner.Year,
			OriginalLanguage: winner.OriginalLanguage,
			Kind:             winner.Kind,
		}
	}
	return detail, nil
}

// detail fetches one record. Not found is a nil detail; other failures are
// recorded and also yield nil.
func (r *Resolver) detail(ctx context.Context, st *state, step Step, c catalog.Catalog, id string) (*catalog.Detail, error) {
	d, err := c.GetDetail(ctx, id, st.in.kind())
	if errors.Is(err, catalog.ErrNotFound) {
		d, err = nil, nil
	}
	if err != nil {
		return nil, st.lookupFailed(ctx, step, c.Name(), id, err)
	}
	if d == nil {
		log.Debug().Str("source", c.Name()).Str("id", id).Msg("resolver: detail not found")
		return nil, nil
	}
	return d, nil
}

// pickBest is match.Best with one more tie-breaker: among equally ranked
// hits, one in the expected original language wins.
func pickBest(verdicts []match.Verdict, results []catalog.SearchResult, language string) int {
	best := match.Best(verdicts)
	if best < 0 || language == "" || sameLanguage(results[best].OriginalLanguage, language) {
		return best
	}
	for i, v := range verdicts {
		if i == best || !v.Accepted {
			continue
		}
		if v.Score == verdicts[best].Score && v.YearMatch == verdicts[best].YearMatch &&
			sameLanguage(results[i].OriginalLanguage, language) {
			return i
		}
	}
	return best
}

func sameLanguage(a, b string) bool {
	if len(a) < 2 || len(b) < 2 {
		return false
	}
	return strings.EqualFold(a[:2], b[:2])
}
