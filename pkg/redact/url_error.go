// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package redact strips credentials from values before they reach logs.
package redact

import (
	"errors"
	"net/url"
	"regexp"
)

const redacted = "REDACTED"

var sensitiveParamRe = regexp.MustCompile(`(?i)\b(apikey|api_key|passkey|password|token|pin)=([^&\s]+)`)

// URLString replaces the values of credential query parameters in s.
func URLString(s string) string {
	return sensitiveParamRe.ReplaceAllString(s, "${1}="+redacted)
}

// URLError returns err with credential query parameters removed from any
// *url.Error it wraps. The *url.Error type is preserved so callers can still
// inspect it with errors.As. Other errors are returned unchanged.
func URLError(err error) error {
	if err == nil {
		return nil
	}
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	return &url.Error{
		Op:  urlErr.Op,
		URL: URLString(urlErr.URL),
		Err: urlErr.Err,
	}
}
