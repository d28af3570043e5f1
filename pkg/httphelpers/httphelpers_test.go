// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package httphelpers

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinBasePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base   string
		suffix string
		want   string
	}{
		{"", "", "/"},
		{"/", "/", "/"},
		{"", "api/v3/series", "/api/v3/series"},
		{"/sonarr", "", "/sonarr"},
		{"sonarr/", "/api/v3/series", "/sonarr/api/v3/series"},
		{"  /radarr/  ", "api/v3/movie", "/radarr/api/v3/movie"},
		{"/apps/radarr///", "api/v3/movie/12", "/apps/radarr/api/v3/movie/12"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, JoinBasePath(tt.base, tt.suffix), "%q + %q", tt.base, tt.suffix)
	}
	assert.Empty(t, NormalizeBasePath(" /// "))
}

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func TestReadBody(t *testing.T) {
	t.Parallel()

	resp := &http.Response{Body: io.NopCloser(strings.NewReader("<rss></rss>"))}
	body, err := ReadBody(resp, 11)
	require.NoError(t, err)
	assert.Equal(t, "<rss></rss>", string(body))

	resp = &http.Response{Body: io.NopCloser(strings.NewReader("<rss></rss>"))}
	_, err = ReadBody(resp, 10)
	require.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestDrainAndClose(t *testing.T) {
	t.Parallel()

	DrainAndClose(nil)
	DrainAndClose(&http.Response{})

	body := &trackingBody{Reader: strings.NewReader("unread feed body")}
	DrainAndClose(&http.Response{Body: body})
	assert.True(t, body.closed)

	n, _ := body.Read(make([]byte, 1))
	assert.Zero(t, n)
}
