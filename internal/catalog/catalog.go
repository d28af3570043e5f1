// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package catalog defines the lookup capabilities identity resolution runs
// against: metadata catalogs, the local library and a web search fallback.
//
// Concrete clients live in sub-packages and map their raw responses into the
// shapes below in a single normalization step.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/autobrr/feedarr/pkg/releases"
)

// Source names an id namespace.
type Source string

const (
	SourceTVDB Source = "tvdb"
	SourceTMDB Source = "tmdb"
	SourceIMDB Source = "imdb"
)

// ExternalID is an id in one of the catalog namespaces.
type ExternalID struct {
	Source Source
	Value  string
}

func (id ExternalID) String() string {
	return string(id.Source) + ":" + id.Value
}

// SearchFilters narrow a catalog search. Zero values mean "any".
type SearchFilters struct {
	Kind releases.Kind
	Year int
}

// SearchResult is one hit of a free-text catalog search.
type SearchResult struct {
	ID               string
	Title            string
	Year             int
	OriginalLanguage string
	Kind             releases.Kind
}

// Detail is the extended record of one catalog item, including the ids it
// cross-references in the other catalogs.
type Detail struct {
	ID               string
	Title            string
	Year             int
	OriginalLanguage string
	Kind             releases.Kind
	TVDBID           string
	TMDBID           string
	IMDBID           string
	PosterURL        string
}

// Catalog is a searchable metadata service.
type Catalog interface {
	Name() string
	// Search returns an empty slice when nothing matches.
	Search(ctx context.Context, text string, filters SearchFilters) ([]SearchResult, error)
	// GetDetail returns ErrNotFound for unknown ids.
	GetDetail(ctx context.Context, id string, kind releases.Kind) (*Detail, error)
}

// LibraryItem is an item already held in the local library.
type LibraryItem struct {
	ID               int
	Title            string
	Year             int
	TVDBID           string
	TMDBID           string
	IMDBID           string
	MonitoredSeasons []int
	PosterURL        string
	// Movie file currently held, if any.
	FileName string
	SizeMB   float64
}

// MonitorsSeason reports whether season is monitored for the item.
func (i *LibraryItem) MonitorsSeason(season int) bool {
	for _, s := range i.MonitoredSeasons {
		if s == season {
			return true
		}
	}
	return false
}

// HasFile reports whether a movie file is held for the item.
func (i *LibraryItem) HasFile() bool {
	return i.FileName != "" || i.SizeMB > 0
}

// Library is the local managed collection. Lookups return (nil, nil) when the
// item is not held.
type Library interface {
	FindByNormalizedName(ctx context.Context, name string) (*LibraryItem, error)
	FindByExternalID(ctx context.Context, id ExternalID) (*LibraryItem, error)
}

// WebSearch recovers a primary catalog id from a general web search. It
// returns "" when nothing was found.
type WebSearch interface {
	SearchForID(ctx context.Context, text string) (string, error)
}

// ErrNotFound is returned by GetDetail for ids the catalog does not know.
var ErrNotFound = errors.New("catalog: not found")

// RateLimitError reports a rate-limit response. RetryAfter is the delay the
// service asked for, zero when it did not say.
type RateLimitError struct {
	Service    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Service, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Service)
}

// IsRateLimit reports whether err is or wraps a *RateLimitError.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
