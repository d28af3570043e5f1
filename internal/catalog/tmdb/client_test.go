// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/feedarr/internal/catalog"
	"github.com/autobrr/feedarr/pkg/releases"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresKey(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)
}

func TestSearch_Movie(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "The Matrix", r.URL.Query().Get("query"))
		assert.Equal(t, "1999", r.URL.Query().Get("year"))
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		_, _ = w.Write([]byte(`{"results":[{"id":603,"title":"The Matrix","release_date":"1999-03-30","original_language":"en"}]}`))
	})

	results, err := c.Search(context.Background(), "The Matrix", catalog.SearchFilters{Kind: releases.KindMovie, Year: 1999})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, catalog.SearchResult{ID: "603", Title: "The Matrix", Year: 1999, OriginalLanguage: "en", Kind: releases.KindMovie}, results[0])
}

func TestSearch_TV(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/tv", r.URL.Path)
		_, _ = w.Write([]byte(`{"results":[{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20","original_language":"en"}]}`))
	})

	results, err := c.Search(context.Background(), "Breaking Bad", catalog.SearchFilters{Kind: releases.KindTV})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Breaking Bad", results[0].Title)
	assert.Equal(t, 2008, results[0].Year)
	assert.Equal(t, releases.KindTV, results[0].Kind)
}

func TestSearch_EmptyResults(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	})

	results, err := c.Search(context.Background(), "nothing", catalog.SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGetDetail_TVWithExternalIDs(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tv/1396", r.URL.Path)
		assert.Equal(t, "external_ids", r.URL.Query().Get("append_to_response"))
		_, _ = w.Write([]byte(`{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20","original_language":"en","poster_path":"/bb.jpg","external_ids":{"imdb_id":"tt0903747","tvdb_id":81189}}`))
	})

	d, err := c.GetDetail(context.Background(), "1396", releases.KindTV)
	require.NoError(t, err)
	assert.Equal(t, "Breaking Bad", d.Title)
	assert.Equal(t, "1396", d.TMDBID)
	assert.Equal(t, "81189", d.TVDBID)
	assert.Equal(t, "tt0903747", d.IMDBID)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/bb.jpg", d.PosterURL)
}

func TestGetDetail_MovieNullTVDB(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/603", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":603,"title":"The Matrix","release_date":"1999-03-30","imdb_id":"tt0133093","external_ids":{"imdb_id":null,"tvdb_id":null}}`))
	})

	d, err := c.GetDetail(context.Background(), "603", releases.KindMovie)
	require.NoError(t, err)
	assert.Equal(t, "tt0133093", d.IMDBID)
	assert.Empty(t, d.TVDBID)
	assert.Equal(t, releases.KindMovie, d.Kind)
}

func TestGetDetail_NotFound(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetDetail(context.Background(), "1", releases.KindMovie)
	require.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = c.GetDetail(context.Background(), "abc", releases.KindMovie)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestRateLimited(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Search(context.Background(), "x", catalog.SearchFilters{})
	require.Error(t, err)
	assert.True(t, catalog.IsRateLimit(err))
}
