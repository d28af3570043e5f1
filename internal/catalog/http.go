// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package catalog

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/autobrr/feedarr/internal/buildinfo"
)

// DefaultRateLimitBackoff is used when a rate-limited service gives no delay.
const DefaultRateLimitBackoff = 5 * time.Second

const maxErrorBody = 512

var retryAfterRegex = regexp.MustCompile(`retry[- ]?after[:= ]*(\d+)`)

// NewHTTPClient returns the client the catalog sub-packages share.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// SetDefaultHeaders sets the user agent and JSON accept header.
func SetDefaultHeaders(req *http.Request) {
	req.Header.Set("User-Agent", buildinfo.UserAgent)
	req.Header.Set("Accept", "application/json")
}

// CheckResponse maps a non-2xx response to ErrNotFound, a *RateLimitError or
// a generic status error. The body is left for the caller to close.
func CheckResponse(service string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", service, ErrNotFound)
	case http.StatusTooManyRequests:
		return &RateLimitError{
			Service:    service,
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"), string(body), time.Now()),
		}
	}
	return fmt.Errorf("%s: unexpected status %d: %s", service, resp.StatusCode, strings.TrimSpace(string(body)))
}

// ParseRetryAfter reads a Retry-After header (seconds or HTTP date), falling
// back to a "retry after N" hint in the body. It returns 0 when neither says.
func ParseRetryAfter(header, body string, now time.Time) time.Duration {
	header = strings.TrimSpace(header)
	if header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		if at, err := http.ParseTime(header); err == nil {
			if d := at.Sub(now); d > 0 {
				return d
			}
		}
	}
	if m := retryAfterRegex.FindStringSubmatch(strings.ToLower(body)); len(m) == 2 {
		if seconds, err := strconv.Atoi(m[1]); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}
