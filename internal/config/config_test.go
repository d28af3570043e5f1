// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/feedarr/internal/domain"
	"github.com/autobrr/feedarr/internal/match"
	"github.com/autobrr/feedarr/pkg/releases"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDatabasePathConfiguration(t *testing.T) {
	tests := []struct {
		name           string
		content        func(dir string) string
		envVars        map[string]string
		expectedDBPath func(dir string) string
	}{
		{
			name:           "default next to config",
			content:        func(string) string { return `logLevel = "INFO"` },
			expectedDBPath: func(dir string) string { return filepath.Join(dir, "feedarr.db") },
		},
		{
			name: "explicit path in config",
			content: func(dir string) string {
				return `databasePath = "` + filepath.Join(dir, "database", "custom.db") + `"`
			},
			expectedDBPath: func(dir string) string { return filepath.Join(dir, "database", "custom.db") },
		},
		{
			name:           "data dir in config",
			content:        func(dir string) string { return `dataDir = "` + filepath.Join(dir, "data") + `"` },
			expectedDBPath: func(dir string) string { return filepath.Join(dir, "data", "feedarr.db") },
		},
		{
			name:           "env var",
			content:        func(string) string { return `logLevel = "INFO"` },
			envVars:        map[string]string{"FEEDARR__DATABASE_PATH": "/var/db/feedarr/feedarr.db"},
			expectedDBPath: func(string) string { return "/var/db/feedarr/feedarr.db" },
		},
		{
			name:           "env var overrides config",
			content:        func(string) string { return `databasePath = "/original/path.db"` },
			envVars:        map[string]string{"FEEDARR__DATABASE_PATH": "/override/path.db"},
			expectedDBPath: func(string) string { return "/override/path.db" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			dir := t.TempDir()
			path := writeConfig(t, dir, tt.content(dir))

			cfg, err := New(path)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedDBPath(dir), cfg.GetDatabasePath())
			assert.Equal(t, path, cfg.ConfigPath())
		})
	}
}

func TestNew_WritesDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	cfg, err := New(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Config.LogLevel)
	assert.InDelta(t, 3.0, cfg.Config.RequestsPerSecond, 0)
	assert.InDelta(t, match.DefaultSimilarityFloor, cfg.Config.Resolver.SimilarityFloor, 0)
	assert.True(t, cfg.Config.Resolver.LibraryFirst)
	assert.True(t, cfg.Config.Quality.Resolutions["1080p"].Allowed)
	assert.False(t, cfg.Config.Quality.Resolutions["480p"].Allowed)
	assert.InDelta(t, 15, cfg.Config.Quality.SourceWeights["web-dl"], 0)

	// loading the written file again yields the same config
	again, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.Config, again.Config)
}

func TestNew_FeedsAndOverrides(t *testing.T) {
	t.Setenv("FEEDARR__TMDB_API_KEY", "from-env")
	t.Setenv("FEEDARR__RESOLVER_LIBRARY_FIRST", "false")

	dir := t.TempDir()
	path := writeConfig(t, dir, `
requestsPerSecond = 2.5
checkpointInterval = 10

[tvdb]
apiKey = "tvdb-key"
pin = "1234"

[resolver]
similarityFloor = 0.6

[[feeds]]
name = "movies"
url = "https://indexer.example/api?t=movie"
apiKey = "feed-key"
kind = "movie"

[[feeds]]
name = "shows"
url = "https://indexer.example/api?t=tvsearch"
kind = "tv"

[quality]
upgradeThreshold = 12.5

[quality.sourceWeights]
remux = 25
`)

	cfg, err := New(path)
	require.NoError(t, err)

	c := cfg.Config
	assert.InDelta(t, 2.5, c.RequestsPerSecond, 0)
	assert.Equal(t, 10, c.CheckpointInterval)
	assert.Equal(t, "tvdb-key", c.TVDB.APIKey)
	assert.Equal(t, "1234", c.TVDB.PIN)
	assert.Equal(t, "from-env", c.TMDB.APIKey)
	assert.False(t, c.Resolver.LibraryFirst)
	assert.InDelta(t, 0.6, c.Resolver.SimilarityFloor, 0)

	require.Len(t, c.Feeds, 2)
	kind, err := c.Feeds[1].FeedKind()
	require.NoError(t, err)
	assert.Equal(t, releases.KindTV, kind)
	assert.Equal(t, "feed-key", c.Feeds[0].APIKey)

	assert.InDelta(t, 12.5, c.Quality.UpgradeThreshold, 0)
	assert.InDelta(t, 25, c.Quality.SourceWeights["remux"], 0)
	// unspecified policy values keep their defaults
	assert.True(t, c.Quality.Resolutions["2160p"].Allowed)

	dump, err := cfg.Dump()
	require.NoError(t, err)
	assert.NotContains(t, string(dump), "tvdb-key")
	assert.Contains(t, string(dump), domain.RedactedStr)
}

func TestNew_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
[[feeds]]
name = "broken"
url = "not a url"
`)
	_, err := New(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid url")
}

func TestGetDefaultConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/config")
	assert.Equal(t, "/config", getDefaultConfigDir())

	t.Setenv("XDG_CONFIG_HOME", "/home/user/.config")
	assert.Equal(t, filepath.Join("/home/user/.config", "feedarr"), getDefaultConfigDir())
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()
	for _, lvl := range []string{"trace", "DEBUG", "Info", "", "warn", "ERROR"} {
		_, err := ParseLogLevel(lvl)
		assert.NoError(t, err, lvl)
	}
	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	dir := t.TempDir()
	closer, err := SetupLogging(&domain.Config{LogLevel: "DEBUG", LogPath: filepath.Join(dir, "logs", "feedarr.log"), LogMaxBackups: 1})
	require.NoError(t, err)
	require.NoError(t, closer.Close())

	_, err = SetupLogging(&domain.Config{LogLevel: "nope"})
	assert.Error(t, err)
}

func TestWatch_ReloadsLogLevel(t *testing.T) {
	previous := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(previous) })

	dir := t.TempDir()
	cfg, err := New(dir)
	require.NoError(t, err)

	reloaded := make(chan string, 4)
	cfg.Watch(func(next *domain.Config) { reloaded <- next.LogLevel })

	path := filepath.Join(dir, "config.toml")
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	updated := regexp.MustCompile(`(?m)^logLevel\s*=.*$`).ReplaceAllString(string(content), `logLevel = "DEBUG"`)
	require.NotEqual(t, string(content), updated)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	select {
	case level := <-reloaded:
		assert.Equal(t, "DEBUG", level)
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	assert.Equal(t, "INFO", cfg.Config.LogLevel)
}
