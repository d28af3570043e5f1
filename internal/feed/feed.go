// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package feed fetches release entries from RSS and Torznab feeds.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/autobrr/feedarr/internal/buildinfo"
	"github.com/autobrr/feedarr/internal/parser"
	"github.com/autobrr/feedarr/pkg/httphelpers"
	"github.com/autobrr/feedarr/pkg/redact"
	"github.com/autobrr/feedarr/pkg/releases"
)

// Item is one feed entry.
type Item struct {
	GUID        string
	Title       string
	Description string
	Link        string
	SizeBytes   int64
	PublishedAt time.Time
	Categories  []int
	// IDs carried as torznab attributes.
	IDs parser.ExternalIDs
	// Languages are the raw torznab language attributes.
	Languages []string
}

// SizeText renders the size so the title parser can read it from the
// description, or "" when unknown.
func (i Item) SizeText() string {
	if i.SizeBytes <= 0 {
		return ""
	}
	return strconv.FormatFloat(float64(i.SizeBytes)/(1024*1024), 'f', 2, 64) + " MB"
}

// KindHint derives movie or tv from newznab categories (2000s are movies,
// 5000s are TV).
func (i Item) KindHint() releases.Kind {
	for _, cat := range i.Categories {
		switch {
		case cat >= 2000 && cat < 3000:
			return releases.KindMovie
		case cat >= 5000 && cat < 6000:
			return releases.KindTV
		}
	}
	return releases.KindUnknown
}

// Source is a feed that can be fetched.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Item, error)
}

// Config describes one feed.
type Config struct {
	Name    string
	URL     string
	APIKey  string
	Timeout time.Duration
	// Kind forces every item to movie or tv; empty means decide per item.
	Kind       releases.Kind
	HTTPClient *http.Client
}

// Client fetches one RSS or Torznab feed.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

var _ Source = (*Client)(nil)

// maxFeedBytes caps one feed response.
const maxFeedBytes = 32 << 20

// New returns a feed client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("feed name is required")
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(cfg.URL)); err != nil {
		return nil, fmt.Errorf("feed %s: invalid url: %w", cfg.Name, err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient}, nil
}

func (c *Client) Name() string { return c.cfg.Name }

// Kind returns the configured kind override.
func (c *Client) Kind() releases.Kind { return c.cfg.Kind }

// TorznabError is a Torznab error document.
type TorznabError struct {
	Code    string `xml:"code,attr"`
	Message string `xml:"description,attr"`
}

type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
}

type torznabAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	GUID        string        `xml:"guid"`
	Link        string        `xml:"link"`
	Description string        `xml:"description"`
	PubDate     string        `xml:"pubDate"`
	Size        int64         `xml:"size"`
	Categories  []string      `xml:"category"`
	Enclosure   *rssEnclosure `xml:"enclosure"`
	Attrs       []torznabAttr `xml:"attr"`
}

// Fetch downloads and decodes the feed.
func (c *Client) Fetch(ctx context.Context) ([]Item, error) {
	u, err := url.Parse(strings.TrimSpace(c.cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("feed %s: invalid url: %w", c.cfg.Name, err)
	}
	if c.cfg.APIKey != "" {
		q := u.Query()
		q.Set("apikey", c.cfg.APIKey)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("feed %s: build request: %w", c.cfg.Name, err)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed %s: request failed: %w", c.cfg.Name, redact.URLError(err))
	}
	defer httphelpers.DrainAndClose(resp)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("feed %s: returned status %d", c.cfg.Name, resp.StatusCode)
	}

	body, err := httphelpers.ReadBody(resp, maxFeedBytes)
	if err != nil {
		return nil, fmt.Errorf("feed %s: read response: %w", c.cfg.Name, err)
	}
	return Decode(body)
}

// Decode parses an RSS or Torznab document.
func Decode(body []byte) ([]Item, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "<error") || strings.Contains(trimmed[:min(len(trimmed), 128)], "?><error") {
		var torznabErr TorznabError
		if err := xml.Unmarshal(body, &torznabErr); err != nil {
			return nil, fmt.Errorf("failed to decode torznab error response: %w", err)
		}
		return nil, fmt.Errorf("torznab error %s: %s", torznabErr.Code, torznabErr.Message)
	}

	var doc rssDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	items := make([]Item, 0, len(doc.Channel.Items))
	for _, raw := range doc.Channel.Items {
		item := normalizeItem(raw)
		if item.GUID == "" || item.Title == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func normalizeItem(raw rssItem) Item {
	item := Item{
		GUID:        strings.TrimSpace(raw.GUID),
		Title:       strings.TrimSpace(raw.Title),
		Description: raw.Description,
		Link:        strings.TrimSpace(raw.Link),
		SizeBytes:   raw.Size,
		PublishedAt: parsePubDate(raw.PubDate),
	}
	if item.GUID == "" {
		item.GUID = item.Link
	}
	if item.SizeBytes == 0 && raw.Enclosure != nil {
		item.SizeBytes = raw.Enclosure.Length
	}
	for _, cat := range raw.Categories {
		if n, err := strconv.Atoi(strings.TrimSpace(cat)); err == nil {
			item.Categories = append(item.Categories, n)
		}
	}

	for _, attr := range raw.Attrs {
		value := strings.TrimSpace(attr.Value)
		if value == "" || value == "0" {
			continue
		}
		switch strings.ToLower(attr.Name) {
		case "size":
			if item.SizeBytes == 0 {
				item.SizeBytes, _ = strconv.ParseInt(value, 10, 64)
			}
		case "category":
			if n, err := strconv.Atoi(value); err == nil {
				item.Categories = append(item.Categories, n)
			}
		case "language":
			item.Languages = append(item.Languages, value)
		case "tmdbid", "tmdb":
			item.IDs.TMDBID = value
		case "tvdbid", "tvdb":
			item.IDs.TVDBID = value
		case "imdbid", "imdb":
			if !strings.HasPrefix(value, "tt") {
				value = "tt" + value
			}
			item.IDs.IMDBID = value
		}
	}
	return item
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC3339,
}

func parsePubDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
