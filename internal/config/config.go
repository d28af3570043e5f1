// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads feedarr's TOML configuration with environment
// overrides and sets up logging from it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/autobrr/feedarr/internal/catalog"
	"github.com/autobrr/feedarr/internal/domain"
	"github.com/autobrr/feedarr/internal/match"
	"github.com/autobrr/feedarr/internal/quality"
)

const (
	EnvPrefix         = "FEEDARR__"
	configFileName    = "config.toml"
	databaseFileName  = "feedarr.db"
	defaultLogMaxSize = 50
)

// envBindings maps config keys onto the environment variables that override
// them.
var envBindings = map[string]string{
	"logLevel":              "LOG_LEVEL",
	"logPath":               "LOG_PATH",
	"logMaxSize":            "LOG_MAX_SIZE",
	"logMaxBackups":         "LOG_MAX_BACKUPS",
	"dataDir":               "DATA_DIR",
	"databasePath":          "DATABASE_PATH",
	"metricsEnabled":        "METRICS_ENABLED",
	"metricsHost":           "METRICS_HOST",
	"metricsPort":           "METRICS_PORT",
	"metricsBasicAuthUsers": "METRICS_BASIC_AUTH_USERS",
	"requestsPerSecond":     "REQUESTS_PER_SECOND",
	"syncInterval":          "SYNC_INTERVAL",
	"checkpointInterval":    "CHECKPOINT_INTERVAL",
	"tvdb.apiKey":           "TVDB_API_KEY",
	"tvdb.pin":              "TVDB_PIN",
	"tmdb.apiKey":           "TMDB_API_KEY",
	"sonarr.baseUrl":        "SONARR_BASE_URL",
	"sonarr.apiKey":         "SONARR_API_KEY",
	"radarr.baseUrl":        "RADARR_BASE_URL",
	"radarr.apiKey":         "RADARR_API_KEY",
	"webSearch.enabled":     "WEB_SEARCH_ENABLED",
	"webSearch.baseUrl":     "WEB_SEARCH_BASE_URL",
	"resolver.libraryFirst": "RESOLVER_LIBRARY_FIRST",
}

type AppConfig struct {
	Config *domain.Config

	viper      *viper.Viper
	configPath string
	configDir  string

	watchMu sync.Mutex
}

// Defaults returns the configuration used for keys the file leaves out.
func Defaults() domain.Config {
	return domain.Config{
		LogLevel:           "INFO",
		LogMaxSize:         defaultLogMaxSize,
		LogMaxBackups:      3,
		MetricsHost:        "127.0.0.1",
		MetricsPort:        9074,
		RequestsPerSecond:  catalog.DefaultRequestsPerSecond,
		SyncInterval:       "15m",
		CheckpointInterval: 25,
		WebSearch:          domain.WebSearchConfig{Enabled: true},
		Resolver: domain.ResolverConfig{
			SimilarityFloor: match.DefaultSimilarityFloor,
			LibraryFirst:    true,
		},
		Quality: quality.DefaultPolicy(),
	}
}

// New loads the configuration from configDirOrPath, which is either a
// directory holding config.toml or the path of a .toml file. A missing file
// is created with the defaults.
func New(configDirOrPath string) (*AppConfig, error) {
	c := &AppConfig{viper: viper.New()}
	c.resolvePaths(configDirOrPath)

	defaults := Defaults()
	c.Config = &defaults

	if err := c.ensureConfigFile(); err != nil {
		return nil, err
	}

	c.viper.SetConfigFile(c.configPath)
	c.viper.SetConfigType("toml")
	for key, env := range envBindings {
		if err := c.viper.BindEnv(key, EnvPrefix+env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := c.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", c.configPath, err)
	}
	if err := c.viper.Unmarshal(c.Config); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", c.configPath, err)
	}

	if err := c.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", c.configPath, err)
	}

	return c, nil
}

func (c *AppConfig) resolvePaths(configDirOrPath string) {
	switch {
	case configDirOrPath == "":
		c.configDir = getDefaultConfigDir()
		c.configPath = filepath.Join(c.configDir, configFileName)
	case strings.HasSuffix(strings.ToLower(configDirOrPath), ".toml"):
		c.configPath = configDirOrPath
		c.configDir = filepath.Dir(configDirOrPath)
	default:
		c.configDir = configDirOrPath
		c.configPath = filepath.Join(configDirOrPath, configFileName)
	}
}

// getDefaultConfigDir returns the directory of config.toml when none is
// given. Containers set XDG_CONFIG_HOME=/config and get /config itself.
func getDefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		if filepath.Clean(xdg) == "/config" {
			return "/config"
		}
		return filepath.Join(xdg, "feedarr")
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		log.Warn().Err(err).Msg("could not determine user config dir, using working directory")
		return "."
	}
	return filepath.Join(dir, "feedarr")
}

func (c *AppConfig) ensureConfigFile() error {
	_, err := os.Stat(c.configPath)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	if err := os.MkdirAll(c.configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory %s: %w", c.configDir, err)
	}

	content, err := renderDefaultConfig(*c.Config)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.configPath, content, 0o600); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	log.Info().Str("path", c.configPath).Msg("wrote default config")
	return nil
}

const configHeader = `# config.toml - Auto-generated on first run
#
# Every key can be overridden by an environment variable prefixed with
# FEEDARR__, e.g. FEEDARR__DATABASE_PATH or FEEDARR__TMDB_API_KEY.
# Feeds are configured as [[feeds]] tables:
#
# [[feeds]]
# name = "indexer"
# url = "https://indexer.example/api?t=search&cat=2000,5000"
# apiKey = ""
# kind = "auto"

`

func renderDefaultConfig(cfg domain.Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(configHeader)

	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode default config: %w", err)
	}
	return buf.Bytes(), nil
}

// ConfigPath returns the path of the loaded config file.
func (c *AppConfig) ConfigPath() string {
	return c.configPath
}

// GetDataDir returns dataDir, or the config directory when unset.
func (c *AppConfig) GetDataDir() string {
	if c.Config.DataDir != "" {
		return c.Config.DataDir
	}
	return c.configDir
}

// GetDatabasePath returns databasePath, or feedarr.db in the data directory.
func (c *AppConfig) GetDatabasePath() string {
	if c.Config.DatabasePath != "" {
		return c.Config.DatabasePath
	}
	return filepath.Join(c.GetDataDir(), databaseFileName)
}

// Dump renders the effective configuration with secrets redacted.
func (c *AppConfig) Dump() ([]byte, error) {
	return toml.Marshal(c.Config.Redacted())
}

// Watch re-reads the config file whenever it changes, applies the new log
// level and hands the reloaded config to onChange. c.Config itself is left
// untouched; runs in progress keep the snapshot they started with.
func (c *AppConfig) Watch(onChange func(cfg *domain.Config)) {
	c.viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		c.watchMu.Lock()
		defer c.watchMu.Unlock()

		next := Defaults()
		if err := c.viper.Unmarshal(&next); err != nil {
			log.Error().Err(err).Str("path", e.Name).Msg("failed to decode changed config")
			return
		}
		if err := next.Validate(); err != nil {
			log.Error().Err(err).Str("path", e.Name).Msg("ignoring invalid config change")
			return
		}

		if level, err := ParseLogLevel(next.LogLevel); err == nil {
			zerolog.SetGlobalLevel(level)
		}
		log.Info().Str("path", e.Name).Str("logLevel", next.LogLevel).Msg("config reloaded")

		if onChange != nil {
			onChange(&next)
		}
	})
	c.viper.WatchConfig()
}
