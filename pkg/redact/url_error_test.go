// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package redact

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{
			in:   "https://indexer.example/api?t=search&cat=2000&apikey=abc123",
			want: "https://indexer.example/api?t=search&cat=2000&apikey=REDACTED",
		},
		{
			in:   "https://api.themoviedb.org/3/search/movie?api_key=tmdbkey&query=Kurukshetra",
			want: "https://api.themoviedb.org/3/search/movie?api_key=REDACTED&query=Kurukshetra",
		},
		{
			in:   "https://tracker.example/rss?passkey=PK&token=TK&PIN=1234",
			want: "https://tracker.example/rss?passkey=REDACTED&token=REDACTED&PIN=REDACTED",
		},
		{
			in:   "http://sonarr:8989/api/v3/series",
			want: "http://sonarr:8989/api/v3/series",
		},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, URLString(tt.in))
	}
}

func TestURLError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, URLError(nil))

	plain := errors.New("connection refused")
	assert.Same(t, plain, URLError(plain))

	wrapped := fmt.Errorf("feed indexer: %w", &url.Error{
		Op:  "Get",
		URL: "https://indexer.example/api?apikey=SECRET",
		Err: plain,
	})
	got := URLError(wrapped)

	var urlErr *url.Error
	require.ErrorAs(t, got, &urlErr)
	assert.Equal(t, "https://indexer.example/api?apikey=REDACTED", urlErr.URL)
	assert.ErrorIs(t, got, plain)
	assert.NotContains(t, got.Error(), "SECRET")
}
