// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package catalog

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/feedarr/pkg/releases"
)

// Gated routes a Catalog through a Gate and turns ErrNotFound into a nil
// detail, so callers only see errors for real failures.
type Gated struct {
	inner Catalog
	gate  *Gate
}

// NewGated wraps c.
func NewGated(c Catalog, g *Gate) *Gated {
	return &Gated{inner: c, gate: g}
}

func (c *Gated) Name() string { return c.inner.Name() }

func (c *Gated) Search(ctx context.Context, text string, filters SearchFilters) ([]SearchResult, error) {
	var results []SearchResult
	err := c.gate.Do(ctx, c.inner.Name(), func(ctx context.Context) error {
		var err error
		results, err = c.inner.Search(ctx, text, filters)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return results, err
}

func (c *Gated) GetDetail(ctx context.Context, id string, kind releases.Kind) (*Detail, error) {
	var detail *Detail
	err := c.gate.Do(ctx, c.inner.Name(), func(ctx context.Context) error {
		var err error
		detail, err = c.inner.GetDetail(ctx, id, kind)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		log.Debug().Str("catalog", c.inner.Name()).Str("id", id).Msg("catalog: detail not found")
		return nil, nil
	}
	return detail, err
}

// GatedLibrary routes a Library through a Gate.
type GatedLibrary struct {
	inner Library
	gate  *Gate
	name  string
}

// NewGatedLibrary wraps l; name labels its calls in metrics and logs.
func NewGatedLibrary(name string, l Library, g *Gate) *GatedLibrary {
	return &GatedLibrary{inner: l, gate: g, name: name}
}

func (l *GatedLibrary) FindByNormalizedName(ctx context.Context, name string) (*LibraryItem, error) {
	var item *LibraryItem
	err := l.gate.Do(ctx, l.name, func(ctx context.Context) error {
		var err error
		item, err = l.inner.FindByNormalizedName(ctx, name)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return item, err
}

func (l *GatedLibrary) FindByExternalID(ctx context.Context, id ExternalID) (*LibraryItem, error) {
	var item *LibraryItem
	err := l.gate.Do(ctx, l.name, func(ctx context.Context) error {
		var err error
		item, err = l.inner.FindByExternalID(ctx, id)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return item, err
}

// GatedWebSearch routes a WebSearch through a Gate.
type GatedWebSearch struct {
	inner WebSearch
	gate  *Gate
	name  string
}

// NewGatedWebSearch wraps w.
func NewGatedWebSearch(name string, w WebSearch, g *Gate) *GatedWebSearch {
	return &GatedWebSearch{inner: w, gate: g, name: name}
}

func (w *GatedWebSearch) SearchForID(ctx context.Context, text string) (string, error) {
	var id string
	err := w.gate.Do(ctx, w.name, func(ctx context.Context) error {
		var err error
		id, err = w.inner.SearchForID(ctx, text)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return id, err
}
