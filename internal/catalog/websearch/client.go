// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package websearch is the last resort of identity resolution: a general
// HTML search whose result links are scanned for TheTVDB series ids.
package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/autobrr/feedarr/internal/buildinfo"
	"github.com/autobrr/feedarr/internal/catalog"
	"github.com/autobrr/feedarr/pkg/redact"
)

const (
	Name           = "websearch"
	DefaultBaseURL = "https://html.duckduckgo.com/html/"
	maxPageBytes   = 2 << 20
)

var tvdbLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)thetvdb\.com/\?(?:[^"'\s]*&)?id=(\d+)`),
	regexp.MustCompile(`(?i)thetvdb\.com/(?:dereferrer/)?series/(\d+)(?:[/?#]|$)`),
}

// Config is built once per run from the application config.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client implements catalog.WebSearch.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ catalog.WebSearch = (*Client)(nil)

// New returns a web search client.
func New(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = catalog.NewHTTPClient(0)
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// SearchForID searches for "<text> site:thetvdb.com" and returns the first
// numeric series id linked from the results, or "".
func (c *Client) SearchForID(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("websearch: parse base url: %w", err)
	}
	q := u.Query()
	q.Set("q", text+" site:thetvdb.com")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("websearch: build request: %w", err)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("websearch: request: %w", redact.URLError(err))
	}
	defer resp.Body.Close()

	if err := catalog.CheckResponse(Name, resp); err != nil {
		return "", err
	}
	return FirstTVDBID(io.LimitReader(resp.Body, maxPageBytes))
}

// FirstTVDBID walks the anchors of an HTML page and returns the first TVDB
// series id found in an href. Redirect wrappers carrying the target in a
// "uddg" or "u" parameter are unwrapped first.
func FirstTVDBID(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return "", nil
			}
			return "", fmt.Errorf("websearch: parse page: %w", z.Err())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					if id := tvdbIDFromHref(string(val)); id != "" {
						return id, nil
					}
				}
				if !more {
					break
				}
			}
		}
	}
}

func tvdbIDFromHref(href string) string {
	target := href
	if u, err := url.Parse(href); err == nil {
		for _, param := range []string{"uddg", "u"} {
			if wrapped := u.Query().Get(param); wrapped != "" {
				target = wrapped
				break
			}
		}
	}
	for _, re := range tvdbLinkPatterns {
		if m := re.FindStringSubmatch(target); len(m) == 2 {
			return m[1]
		}
	}
	return ""
}
