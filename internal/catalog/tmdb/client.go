// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package tmdb is the secondary catalog: The Movie Database v3 API. Its titles
// are treated as canonical.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/autobrr/feedarr/internal/catalog"
	"github.com/autobrr/feedarr/pkg/redact"
	"github.com/autobrr/feedarr/pkg/releases"
)

const (
	Name           = "tmdb"
	DefaultBaseURL = "https://api.themoviedb.org/3"
	imageBaseURL   = "https://image.tmdb.org/t/p/w500"
)

// Config is built once per run from the application config.
type Config struct {
	APIKey     string
	BaseURL    string
	Language   string
	HTTPClient *http.Client
}

// Client implements catalog.Catalog.
type Client struct {
	apiKey     string
	bearer     bool
	baseURL    string
	language   string
	httpClient *http.Client
}

var _ catalog.Catalog = (*Client)(nil)

// New returns a TMDB client. Long keys are v4 read access tokens and are sent
// as bearer tokens, short ones as the api_key query parameter.
func New(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = catalog.NewHTTPClient(0)
	}
	language := cfg.Language
	if language == "" {
		language = "en-US"
	}
	return &Client{
		apiKey:     key,
		bearer:     len(key) > 64,
		baseURL:    baseURL,
		language:   language,
		httpClient: httpClient,
	}, nil
}

func (c *Client) Name() string { return Name }

type searchResult struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Name             string `json:"name"`
	ReleaseDate      string `json:"release_date"`
	FirstAirDate     string `json:"first_air_date"`
	OriginalLanguage string `json:"original_language"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type externalIDs struct {
	IMDBID *string `json:"imdb_id"`
	TVDBID *int64  `json:"tvdb_id"`
}

type detailResponse struct {
	searchResult
	PosterPath  string      `json:"poster_path"`
	IMDBID      *string     `json:"imdb_id"`
	ExternalIDs externalIDs `json:"external_ids"`
}

// Search queries /search/movie or /search/tv depending on the filter kind,
// movies when the kind is unknown.
func (c *Client) Search(ctx context.Context, text string, filters catalog.SearchFilters) ([]catalog.SearchResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", text)
	kind := filters.Kind
	path := "/search/movie"
	if kind == releases.KindTV {
		path = "/search/tv"
		if filters.Year > 0 {
			params.Set("first_air_date_year", strconv.Itoa(filters.Year))
		}
	} else {
		kind = releases.KindMovie
		if filters.Year > 0 {
			params.Set("year", strconv.Itoa(filters.Year))
		}
	}

	var payload searchResponse
	if err := c.get(ctx, path, params, &payload); err != nil {
		return nil, err
	}

	out := make([]catalog.SearchResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		out = append(out, normalizeSearchResult(r, kind))
	}
	return out, nil
}

// GetDetail fetches /movie/{id} or /tv/{id} with external ids appended.
func (c *Client) GetDetail(ctx context.Context, id string, kind releases.Kind) (*catalog.Detail, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, fmt.Errorf("tmdb: invalid id %q: %w", id, catalog.ErrNotFound)
	}
	path := "/movie/" + id
	if kind == releases.KindTV {
		path = "/tv/" + id
	} else {
		kind = releases.KindMovie
	}

	params := url.Values{}
	params.Set("append_to_response", "external_ids")

	var payload detailResponse
	if err := c.get(ctx, path, params, &payload); err != nil {
		return nil, err
	}
	return normalizeDetail(payload, kind), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.language != "" {
		params.Set("language", c.language)
	}
	if !c.bearer {
		params.Set("api_key", c.apiKey)
	}

	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("tmdb: build request: %w", err)
	}
	catalog.SetDefaultHeaders(req)
	if c.bearer {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb: request %s: %w", path, redact.URLError(err))
	}
	defer resp.Body.Close()

	if err := catalog.CheckResponse(Name, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("tmdb: decode %s: %w", path, err)
	}
	return nil
}

func normalizeSearchResult(r searchResult, kind releases.Kind) catalog.SearchResult {
	return catalog.SearchResult{
		ID:               strconv.FormatInt(r.ID, 10),
		Title:            pick(r.Title, r.Name),
		Year:             yearOf(pick(r.ReleaseDate, r.FirstAirDate)),
		OriginalLanguage: r.OriginalLanguage,
		Kind:             kind,
	}
}

func normalizeDetail(r detailResponse, kind releases.Kind) *catalog.Detail {
	d := &catalog.Detail{
		ID:               strconv.FormatInt(r.ID, 10),
		Title:            pick(r.Title, r.Name),
		Year:             yearOf(pick(r.ReleaseDate, r.FirstAirDate)),
		OriginalLanguage: r.OriginalLanguage,
		Kind:             kind,
		TMDBID:           strconv.FormatInt(r.ID, 10),
	}
	if r.ExternalIDs.IMDBID != nil && *r.ExternalIDs.IMDBID != "" {
		d.IMDBID = *r.ExternalIDs.IMDBID
	} else if r.IMDBID != nil {
		d.IMDBID = *r.IMDBID
	}
	if r.ExternalIDs.TVDBID != nil && *r.ExternalIDs.TVDBID > 0 {
		d.TVDBID = strconv.FormatInt(*r.ExternalIDs.TVDBID, 10)
	}
	if r.PosterPath != "" {
		d.PosterURL = imageBaseURL + r.PosterPath
	}
	return d
}

func pick(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
