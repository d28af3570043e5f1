// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package arr is the local library backed by Sonarr (shows) and Radarr
// (movies). The library is listed once per run and looked up in memory.
package arr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/feedarr/internal/buildinfo"
	"github.com/autobrr/feedarr/internal/catalog"
	"github.com/autobrr/feedarr/pkg/httphelpers"
	"github.com/autobrr/feedarr/pkg/redact"
	"github.com/autobrr/feedarr/pkg/stringutils"
)

// Type is the kind of *arr instance.
type Type string

const (
	TypeSonarr Type = "sonarr"
	TypeRadarr Type = "radarr"
)

// ParseType validates and normalizes an instance type string.
func ParseType(value string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(value))) {
	case TypeSonarr:
		return TypeSonarr, nil
	case TypeRadarr:
		return TypeRadarr, nil
	default:
		return "", errors.Errorf("invalid arr type: %s (must be 'sonarr' or 'radarr')", value)
	}
}

// Config is built once per run from the application config.
type Config struct {
	Type          Type
	BaseURL       string
	APIKey        string
	BasicUsername string
	BasicPassword string
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// Client implements catalog.Library for one instance.
type Client struct {
	cfg        Config
	base       *url.URL
	httpClient *http.Client

	mu     sync.Mutex
	loaded bool
	index  *Index
}

var _ catalog.Library = (*Client)(nil)

// New returns a client for the instance described by cfg.
func New(cfg Config) (*Client, error) {
	if cfg.Type != TypeSonarr && cfg.Type != TypeRadarr {
		return nil, errors.Errorf("invalid arr type: %q", cfg.Type)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.Errorf("%s api key required", cfg.Type)
	}
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("invalid %s base url: %q", cfg.Type, cfg.BaseURL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = catalog.NewHTTPClient(cfg.Timeout)
	}
	return &Client{cfg: cfg, base: base, httpClient: httpClient}, nil
}

// Type returns the instance type.
func (c *Client) Type() Type { return c.cfg.Type }

type image struct {
	CoverType string `json:"coverType"`
	RemoteURL string `json:"remoteUrl"`
}

type season struct {
	SeasonNumber int  `json:"seasonNumber"`
	Monitored    bool `json:"monitored"`
}

type alternateTitle struct {
	Title string `json:"title"`
}

type series struct {
	ID              int              `json:"id"`
	Title           string           `json:"title"`
	Year            int              `json:"year"`
	TVDBID          int64            `json:"tvdbId"`
	TMDBID          int64            `json:"tmdbId"`
	IMDBID          string           `json:"imdbId"`
	Seasons         []season         `json:"seasons"`
	Images          []image          `json:"images"`
	AlternateTitles []alternateTitle `json:"alternateTitles"`
}

type movieFile struct {
	RelativePath string `json:"relativePath"`
	SceneName    string `json:"sceneName"`
	Size         int64  `json:"size"`
}

type movie struct {
	ID              int              `json:"id"`
	Title           string           `json:"title"`
	Year            int              `json:"year"`
	TMDBID          int64            `json:"tmdbId"`
	IMDBID          string           `json:"imdbId"`
	HasFile         bool             `json:"hasFile"`
	MovieFile       *movieFile       `json:"movieFile"`
	Images          []image          `json:"images"`
	AlternateTitles []alternateTitle `json:"alternateTitles"`
}

// Refresh lists the whole library and rebuilds the index.
func (c *Client) Refresh(ctx context.Context) error {
	var (
		items []indexed
		err   error
	)
	switch c.cfg.Type {
	case TypeSonarr:
		items, err = c.listSeries(ctx)
	case TypeRadarr:
		items, err = c.listMovies(ctx)
	}
	if err != nil {
		return err
	}

	idx := NewIndex()
	for _, it := range items {
		idx.Add(it.item, it.titles...)
	}

	c.mu.Lock()
	c.index = idx
	c.loaded = true
	c.mu.Unlock()

	log.Debug().Str("arr", string(c.cfg.Type)).Int("items", idx.Len()).Msg("arr: library indexed")
	return nil
}

// Invalidate drops the index so the next lookup lists the library again.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
}

func (c *Client) ensureIndex(ctx context.Context) (*Index, error) {
	c.mu.Lock()
	loaded := c.loaded
	idx := c.index
	c.mu.Unlock()
	if loaded {
		return idx, nil
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index, nil
}

// FindByNormalizedName looks name up among titles and alternate titles.
func (c *Client) FindByNormalizedName(ctx context.Context, name string) (*catalog.LibraryItem, error) {
	idx, err := c.ensureIndex(ctx)
	if err != nil {
		return nil, err
	}
	return idx.ByName(name), nil
}

// FindByExternalID looks an item up by catalog id.
func (c *Client) FindByExternalID(ctx context.Context, id catalog.ExternalID) (*catalog.LibraryItem, error) {
	idx, err := c.ensureIndex(ctx)
	if err != nil {
		return nil, err
	}
	return idx.ByID(id), nil
}

type indexed struct {
	item   catalog.LibraryItem
	titles []string
}

func (c *Client) listSeries(ctx context.Context) ([]indexed, error) {
	var raw []series
	if err := c.get(ctx, "api/v3/series", &raw); err != nil {
		return nil, err
	}
	out := make([]indexed, 0, len(raw))
	for _, s := range raw {
		out = append(out, normalizeSeries(s))
	}
	return out, nil
}

func (c *Client) listMovies(ctx context.Context) ([]indexed, error) {
	var raw []movie
	if err := c.get(ctx, "api/v3/movie", &raw); err != nil {
		return nil, err
	}
	out := make([]indexed, 0, len(raw))
	for _, m := range raw {
		out = append(out, normalizeMovie(m))
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	u := *c.base
	u.Path = httphelpers.JoinBasePath(c.base.Path, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrapf(err, "could not build %s request", c.cfg.Type)
	}
	req.Header.Set("X-Api-Key", c.cfg.APIKey)
	req.Header.Set("User-Agent", buildinfo.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.cfg.BasicUsername != "" {
		req.SetBasicAuth(c.cfg.BasicUsername, c.cfg.BasicPassword)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(redact.URLError(err), "could not reach %s", c.cfg.Type)
	}
	defer httphelpers.DrainAndClose(resp)

	if err := catalog.CheckResponse(string(c.cfg.Type), resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "could not decode %s %s", c.cfg.Type, path)
	}
	return nil
}

func poster(images []image) string {
	for _, img := range images {
		if strings.EqualFold(img.CoverType, "poster") {
			return img.RemoteURL
		}
	}
	return ""
}

func idString(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func titlesOf(title string, alternates []alternateTitle) []string {
	titles := []string{title}
	for _, alt := range alternates {
		titles = append(titles, alt.Title)
	}
	return titles
}

func normalizeSeries(s series) indexed {
	item := catalog.LibraryItem{
		ID:        s.ID,
		Title:     s.Title,
		Year:      s.Year,
		TVDBID:    idString(s.TVDBID),
		TMDBID:    idString(s.TMDBID),
		IMDBID:    s.IMDBID,
		PosterURL: poster(s.Images),
	}
	for _, season := range s.Seasons {
		if season.Monitored {
			item.MonitoredSeasons = append(item.MonitoredSeasons, season.SeasonNumber)
		}
	}
	return indexed{item: item, titles: titlesOf(s.Title, s.AlternateTitles)}
}

func normalizeMovie(m movie) indexed {
	item := catalog.LibraryItem{
		ID:        m.ID,
		Title:     m.Title,
		Year:      m.Year,
		TMDBID:    idString(m.TMDBID),
		IMDBID:    m.IMDBID,
		PosterURL: poster(m.Images),
	}
	if m.HasFile && m.MovieFile != nil {
		item.FileName = m.MovieFile.SceneName
		if item.FileName == "" {
			item.FileName = m.MovieFile.RelativePath
		}
		item.SizeMB = float64(m.MovieFile.Size) / (1024 * 1024)
	}
	return indexed{item: item, titles: titlesOf(m.Title, m.AlternateTitles)}
}

// Index is an in-memory view of a library keyed by normalized title and by
// external id.
type Index struct {
	items  []catalog.LibraryItem
	byName map[string]int
	byID   map[catalog.ExternalID]int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		byName: make(map[string]int),
		byID:   make(map[catalog.ExternalID]int),
	}
}

// Add indexes item under every non-empty title. The first item to claim a
// key keeps it.
func (x *Index) Add(item catalog.LibraryItem, titles ...string) {
	pos := len(x.items)
	x.items = append(x.items, item)

	for _, title := range titles {
		key := stringutils.NormalizeForMatching(title)
		if key == "" {
			continue
		}
		if _, taken := x.byName[key]; !taken {
			x.byName[key] = pos
		}
	}
	for _, id := range []catalog.ExternalID{
		{Source: catalog.SourceTVDB, Value: item.TVDBID},
		{Source: catalog.SourceTMDB, Value: item.TMDBID},
		{Source: catalog.SourceIMDB, Value: item.IMDBID},
	} {
		if id.Value == "" {
			continue
		}
		if _, taken := x.byID[id]; !taken {
			x.byID[id] = pos
		}
	}
}

// Len returns the number of indexed items.
func (x *Index) Len() int { return len(x.items) }

// ByName returns a copy of the item whose normalized title matches name.
func (x *Index) ByName(name string) *catalog.LibraryItem {
	pos, ok := x.byName[stringutils.NormalizeForMatching(name)]
	if !ok {
		return nil
	}
	item := x.items[pos]
	return &item
}

// ByID returns a copy of the item carrying id.
func (x *Index) ByID(id catalog.ExternalID) *catalog.LibraryItem {
	if id.Value == "" {
		return nil
	}
	pos, ok := x.byID[id]
	if !ok {
		return nil
	}
	item := x.items[pos]
	return &item
}

// String describes the client for logs.
func (c *Client) String() string {
	return fmt.Sprintf("%s(%s)", c.cfg.Type, redact.URLString(c.base.String()))
}
