// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package httphelpers holds small helpers shared by the feed, catalog and
// library clients.
package httphelpers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var ErrBodyTooLarge = errors.New("response body too large")

// NormalizeBasePath turns a configured URL base such as "sonarr/" into
// "/sonarr". An empty or root base becomes "".
func NormalizeBasePath(basePath string) string {
	p := strings.Trim(strings.TrimSpace(basePath), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// JoinBasePath appends an API path to a URL base, e.g. "/sonarr" and
// "api/v3/series" give "/sonarr/api/v3/series".
func JoinBasePath(basePath, suffix string) string {
	base := NormalizeBasePath(basePath)
	suffix = strings.TrimLeft(suffix, "/")
	switch {
	case suffix != "":
		return base + "/" + suffix
	case base != "":
		return base
	default:
		return "/"
	}
}

// ReadBody reads at most limit bytes of the response body. A body longer than
// limit returns ErrBodyTooLarge.
func ReadBody(resp *http.Response, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
	}
	return body, nil
}

// DrainAndClose discards what is left of the body so the connection can be
// reused, then closes it.
func DrainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
