// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package tvdb is the primary catalog: TheTVDB v4 API, rich in cross
// referenced ids.
package tvdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"github.com/autobrr/feedarr/internal/catalog"
	"github.com/autobrr/feedarr/pkg/redact"
	"github.com/autobrr/feedarr/pkg/releases"
)

const (
	Name           = "tvdb"
	DefaultBaseURL = "https://api4.thetvdb.com/v4"
)

// Config is built once per run from the application config.
type Config struct {
	APIKey     string
	PIN        string
	BaseURL    string
	HTTPClient *http.Client
}

// Client implements catalog.Catalog. It logs in lazily and again once when
// the token is rejected.
type Client struct {
	apiKey     string
	pin        string
	baseURL    string
	httpClient *http.Client

	mu    sync.Mutex
	token string
}

var _ catalog.Catalog = (*Client)(nil)

// New returns a TVDB client.
func New(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("tvdb api key required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = catalog.NewHTTPClient(0)
	}
	return &Client{
		apiKey:     key,
		pin:        strings.TrimSpace(cfg.PIN),
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

func (c *Client) Name() string { return Name }

type remoteID struct {
	ID         string `json:"id"`
	SourceName string `json:"sourceName"`
}

type searchRecord struct {
	TVDBID          string            `json:"tvdb_id"`
	Name            string            `json:"name"`
	Year            string            `json:"year"`
	PrimaryLanguage string            `json:"primary_language"`
	Type            string            `json:"type"`
	Translations    map[string]string `json:"translations"`
}

type extendedRecord struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Year             string     `json:"year"`
	OriginalLanguage string     `json:"originalLanguage"`
	Image            string     `json:"image"`
	RemoteIDs        []remoteID `json:"remoteIds"`
}

type envelope[T any] struct {
	Status string `json:"status"`
	Data   T      `json:"data"`
}

// Search queries /search, restricted to series or movies by the filter kind.
func (c *Client) Search(ctx context.Context, text string, filters catalog.SearchFilters) ([]catalog.SearchResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", text)
	switch filters.Kind {
	case releases.KindTV:
		params.Set("type", "series")
	case releases.KindMovie:
		params.Set("type", "movie")
	}
	if filters.Year > 0 {
		params.Set("year", strconv.Itoa(filters.Year))
	}

	var payload envelope[[]searchRecord]
	if err := c.get(ctx, "/search", params, &payload); err != nil {
		return nil, err
	}

	out := make([]catalog.SearchResult, 0, len(payload.Data))
	for _, r := range payload.Data {
		if r.TVDBID == "" {
			continue
		}
		out = append(out, normalizeSearchRecord(r))
	}
	return out, nil
}

// GetDetail fetches /series/{id}/extended or /movies/{id}/extended.
func (c *Client) GetDetail(ctx context.Context, id string, kind releases.Kind) (*catalog.Detail, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, fmt.Errorf("tvdb: invalid id %q: %w", id, catalog.ErrNotFound)
	}
	path := "/series/" + id + "/extended"
	if kind == releases.KindMovie {
		path = "/movies/" + id + "/extended"
	} else {
		kind = releases.KindTV
	}

	params := url.Values{}
	params.Set("short", "true")

	var payload envelope[extendedRecord]
	if err := c.get(ctx, path, params, &payload); err != nil {
		return nil, err
	}
	return normalizeExtended(payload.Data, kind), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, path, params, token)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		log.Debug().Msg("tvdb: token rejected, logging in again")
		c.clearToken()
		if token, err = c.ensureToken(ctx); err != nil {
			return err
		}
		if resp, err = c.do(ctx, path, params, token); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if err := catalog.CheckResponse(Name, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("tvdb: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, params url.Values, token string) (*http.Response, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("tvdb: build request: %w", err)
	}
	catalog.SetDefaultHeaders(req)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tvdb: request %s: %w", path, redact.URLError(err))
	}
	return resp, nil
}

func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{"apikey": c.apiKey, "pin": c.pin})
	if err != nil {
		return "", fmt.Errorf("tvdb: encode login: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("tvdb: build login request: %w", err)
	}
	catalog.SetDefaultHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tvdb: login: %w", redact.URLError(err))
	}
	defer resp.Body.Close()

	if err := catalog.CheckResponse(Name, resp); err != nil {
		return "", fmt.Errorf("tvdb: login: %w", err)
	}

	var payload envelope[struct {
		Token string `json:"token"`
	}]
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("tvdb: decode login: %w", err)
	}
	if payload.Data.Token == "" {
		return "", errors.New("tvdb: login returned no token")
	}
	c.token = payload.Data.Token
	return c.token, nil
}

func (c *Client) clearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func normalizeSearchRecord(r searchRecord) catalog.SearchResult {
	title := r.Name
	if eng := strings.TrimSpace(r.Translations["eng"]); eng != "" {
		title = eng
	}
	kind := releases.KindTV
	if r.Type == "movie" {
		kind = releases.KindMovie
	}
	return catalog.SearchResult{
		ID:               r.TVDBID,
		Title:            title,
		Year:             atoi(r.Year),
		OriginalLanguage: twoLetter(r.PrimaryLanguage),
		Kind:             kind,
	}
}

func normalizeExtended(r extendedRecord, kind releases.Kind) *catalog.Detail {
	d := &catalog.Detail{
		ID:               strconv.FormatInt(r.ID, 10),
		Title:            r.Name,
		Year:             atoi(r.Year),
		OriginalLanguage: twoLetter(r.OriginalLanguage),
		Kind:             kind,
		TVDBID:           strconv.FormatInt(r.ID, 10),
		PosterURL:        r.Image,
	}
	for _, remote := range r.RemoteIDs {
		source := strings.ToLower(remote.SourceName)
		switch {
		case strings.Contains(source, "imdb"):
			if d.IMDBID == "" {
				d.IMDBID = remote.ID
			}
		case strings.Contains(source, "themoviedb"), strings.Contains(source, "tmdb"):
			if d.TMDBID == "" {
				d.TMDBID = remote.ID
			}
		}
	}
	return d
}

// twoLetter maps TVDB's three-letter language codes to ISO 639-1.
func twoLetter(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	base, err := language.ParseBase(code)
	if err != nil {
		return ""
	}
	return base.String()
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
