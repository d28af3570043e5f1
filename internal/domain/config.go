// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/autobrr/feedarr/internal/quality"
	"github.com/autobrr/feedarr/pkg/releases"
)

// Config represents the application configuration
type Config struct {
	Version       string `toml:"-" mapstructure:"-"`
	LogLevel      string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath       string `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize    int    `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups int    `toml:"logMaxBackups" mapstructure:"logMaxBackups"`
	DataDir       string `toml:"dataDir" mapstructure:"dataDir"`
	DatabasePath  string `toml:"databasePath" mapstructure:"databasePath"`

	MetricsEnabled        bool   `toml:"metricsEnabled" mapstructure:"metricsEnabled"`
	MetricsHost           string `toml:"metricsHost" mapstructure:"metricsHost"`
	MetricsPort           int    `toml:"metricsPort" mapstructure:"metricsPort"`
	MetricsBasicAuthUsers string `toml:"metricsBasicAuthUsers" mapstructure:"metricsBasicAuthUsers"`

	// RequestsPerSecond spaces every external catalog and library call.
	RequestsPerSecond float64 `toml:"requestsPerSecond" mapstructure:"requestsPerSecond"`
	// SyncInterval is a Go duration string, e.g. "15m".
	SyncInterval       string `toml:"syncInterval" mapstructure:"syncInterval"`
	CheckpointInterval int    `toml:"checkpointInterval" mapstructure:"checkpointInterval"`

	TVDB      TVDBConfig      `toml:"tvdb" mapstructure:"tvdb"`
	TMDB      TMDBConfig      `toml:"tmdb" mapstructure:"tmdb"`
	Sonarr    ArrConfig       `toml:"sonarr" mapstructure:"sonarr"`
	Radarr    ArrConfig       `toml:"radarr" mapstructure:"radarr"`
	WebSearch WebSearchConfig `toml:"webSearch" mapstructure:"webSearch"`
	Resolver  ResolverConfig  `toml:"resolver" mapstructure:"resolver"`

	Feeds   []FeedConfig   `toml:"feeds" mapstructure:"feeds"`
	Quality quality.Policy `toml:"quality" mapstructure:"quality"`
}

type TVDBConfig struct {
	APIKey  string `toml:"apiKey" mapstructure:"apiKey"`
	PIN     string `toml:"pin" mapstructure:"pin"`
	BaseURL string `toml:"baseUrl" mapstructure:"baseUrl"`
}

type TMDBConfig struct {
	APIKey   string `toml:"apiKey" mapstructure:"apiKey"`
	BaseURL  string `toml:"baseUrl" mapstructure:"baseUrl"`
	Language string `toml:"language" mapstructure:"language"`
}

// ArrConfig points at a Sonarr or Radarr instance. An empty BaseURL
// disables it.
type ArrConfig struct {
	BaseURL        string `toml:"baseUrl" mapstructure:"baseUrl"`
	APIKey         string `toml:"apiKey" mapstructure:"apiKey"`
	BasicUsername  string `toml:"basicUsername" mapstructure:"basicUsername"`
	BasicPassword  string `toml:"basicPassword" mapstructure:"basicPassword"`
	TimeoutSeconds int    `toml:"timeoutSeconds" mapstructure:"timeoutSeconds"`
}

func (a ArrConfig) Enabled() bool {
	return strings.TrimSpace(a.BaseURL) != ""
}

type WebSearchConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	BaseURL string `toml:"baseUrl" mapstructure:"baseUrl"`
}

type ResolverConfig struct {
	SimilarityFloor float64 `toml:"similarityFloor" mapstructure:"similarityFloor"`
	LibraryFirst    bool    `toml:"libraryFirst" mapstructure:"libraryFirst"`
}

// FeedConfig is one RSS or Torznab feed to sync.
type FeedConfig struct {
	Name           string `toml:"name" mapstructure:"name"`
	URL            string `toml:"url" mapstructure:"url"`
	APIKey         string `toml:"apiKey" mapstructure:"apiKey"`
	Kind           string `toml:"kind" mapstructure:"kind"`
	TimeoutSeconds int    `toml:"timeoutSeconds" mapstructure:"timeoutSeconds"`
}

// FeedKind maps the configured kind onto a release kind. "auto" and empty
// yield KindUnknown, leaving classification to the parser.
func (f FeedConfig) FeedKind() (releases.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(f.Kind)) {
	case "", "auto":
		return releases.KindUnknown, nil
	case "movie", "movies":
		return releases.KindMovie, nil
	case "tv", "show", "shows":
		return releases.KindTV, nil
	default:
		return "", fmt.Errorf("feed %q: invalid kind %q (must be movie, tv or auto)", f.Name, f.Kind)
	}
}

// SyncEvery parses SyncInterval, defaulting to 15 minutes.
func (c *Config) SyncEvery() (time.Duration, error) {
	if strings.TrimSpace(c.SyncInterval) == "" {
		return 15 * time.Minute, nil
	}
	d, err := time.ParseDuration(c.SyncInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid syncInterval %q: %w", c.SyncInterval, err)
	}
	if d < time.Minute {
		return 0, fmt.Errorf("syncInterval %s is below one minute", d)
	}
	return d, nil
}

// FindFeed returns the feed named name.
func (c *Config) FindFeed(name string) (FeedConfig, bool) {
	for _, f := range c.Feeds {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return FeedConfig{}, false
}

// Validate returns the first configuration problem found.
func (c *Config) Validate() error {
	if c.RequestsPerSecond < 0 {
		return errors.New("requestsPerSecond must not be negative")
	}
	if c.CheckpointInterval < 0 {
		return errors.New("checkpointInterval must not be negative")
	}
	if c.Resolver.SimilarityFloor < 0 || c.Resolver.SimilarityFloor > 1 {
		return fmt.Errorf("resolver.similarityFloor %.2f must be between 0 and 1", c.Resolver.SimilarityFloor)
	}
	if _, err := c.SyncEvery(); err != nil {
		return err
	}
	for key, value := range c.secretFields() {
		if IsRedactedString(value) {
			return fmt.Errorf("%s still holds the %s placeholder printed by config show", key, RedactedStr)
		}
	}

	seen := make(map[string]struct{}, len(c.Feeds))
	for i, f := range c.Feeds {
		name := strings.ToLower(strings.TrimSpace(f.Name))
		if name == "" {
			return fmt.Errorf("feeds[%d]: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("feeds[%d]: duplicate name %q", i, f.Name)
		}
		seen[name] = struct{}{}
		if u, err := url.Parse(f.URL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("feed %q: invalid url %q", f.Name, f.URL)
		}
		if _, err := f.FeedKind(); err != nil {
			return err
		}
	}

	for name, arr := range map[string]ArrConfig{"sonarr": c.Sonarr, "radarr": c.Radarr} {
		if arr.Enabled() && strings.TrimSpace(arr.APIKey) == "" {
			return fmt.Errorf("%s.apiKey is required when %s.baseUrl is set", name, name)
		}
	}

	return c.Quality.Validate()
}

func (c *Config) secretFields() map[string]string {
	fields := map[string]string{
		"metricsBasicAuthUsers": c.MetricsBasicAuthUsers,
		"tvdb.apiKey":           c.TVDB.APIKey,
		"tvdb.pin":              c.TVDB.PIN,
		"tmdb.apiKey":           c.TMDB.APIKey,
		"sonarr.apiKey":         c.Sonarr.APIKey,
		"sonarr.basicPassword":  c.Sonarr.BasicPassword,
		"radarr.apiKey":         c.Radarr.APIKey,
		"radarr.basicPassword":  c.Radarr.BasicPassword,
	}
	for _, f := range c.Feeds {
		fields[fmt.Sprintf("feed %q apiKey", f.Name)] = f.APIKey
	}
	return fields
}

// Redacted returns a copy of c with every secret replaced by RedactedStr.
func (c Config) Redacted() Config {
	out := c
	out.MetricsBasicAuthUsers = RedactString(c.MetricsBasicAuthUsers)
	out.TVDB.APIKey = RedactString(c.TVDB.APIKey)
	out.TVDB.PIN = RedactString(c.TVDB.PIN)
	out.TMDB.APIKey = RedactString(c.TMDB.APIKey)
	out.Sonarr.APIKey = RedactString(c.Sonarr.APIKey)
	out.Sonarr.BasicPassword = RedactString(c.Sonarr.BasicPassword)
	out.Radarr.APIKey = RedactString(c.Radarr.APIKey)
	out.Radarr.BasicPassword = RedactString(c.Radarr.BasicPassword)
	out.Feeds = make([]FeedConfig, len(c.Feeds))
	for i, f := range c.Feeds {
		f.APIKey = RedactString(f.APIKey)
		out.Feeds[i] = f
	}
	return out
}
