// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/autobrr/feedarr/internal/domain"
)

// ParseLogLevel maps TRACE, DEBUG, INFO, WARN and ERROR onto zerolog levels.
func ParseLogLevel(level string) (zerolog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return zerolog.TraceLevel, nil
	case "DEBUG":
		return zerolog.DebugLevel, nil
	case "", "INFO":
		return zerolog.InfoLevel, nil
	case "WARN", "WARNING":
		return zerolog.WarnLevel, nil
	case "ERROR":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q", level)
	}
}

// SetupLogging points the global logger at stdout, pretty printed on a
// terminal, and at a rotating file when logPath is set. The returned closer
// flushes the file.
func SetupLogging(cfg *domain.Config) (io.Closer, error) {
	level, err := ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(level)

	var stdout io.Writer = os.Stdout
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		stdout = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime}
	}

	writers := []io.Writer{stdout}
	var closer io.Closer = nopCloser{}
	if cfg.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		maxSize := cfg.LogMaxSize
		if maxSize <= 0 {
			maxSize = defaultLogMaxSize
		}
		file := &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    maxSize,
			MaxBackups: cfg.LogMaxBackups,
		}
		writers = append(writers, file)
		closer = file
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// PersistLogSettings rewrites the log keys of the config file in place.
func (c *AppConfig) PersistLogSettings(level, path string, maxSize, maxBackups int) error {
	if _, err := ParseLogLevel(level); err != nil {
		return err
	}
	content, err := os.ReadFile(c.configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	updated := updateLogSettingsInTOML(string(content), strings.ToUpper(level), path, maxSize, maxBackups)
	if err := os.WriteFile(c.configPath, []byte(updated), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	c.Config.LogLevel = strings.ToUpper(level)
	c.Config.LogPath = path
	c.Config.LogMaxSize = maxSize
	c.Config.LogMaxBackups = maxBackups
	return nil
}

var tableHeader = regexp.MustCompile(`(?m)^\s*\[`)

// updateLogSettingsInTOML sets the top-level log keys, uncommenting them
// where they were commented out. Missing keys go before the first table.
func updateLogSettingsInTOML(content, level, path string, maxSize, maxBackups int) string {
	settings := []struct {
		key   string
		value string
		skip  bool
	}{
		{"logLevel", strconv.Quote(level), level == ""},
		{"logPath", strconv.Quote(path), path == ""},
		{"logMaxSize", strconv.Itoa(maxSize), false},
		{"logMaxBackups", strconv.Itoa(maxBackups), false},
	}

	for _, s := range settings {
		if s.skip {
			continue
		}
		line := s.key + " = " + s.value

		head, tail := content, ""
		if loc := tableHeader.FindStringIndex(content); loc != nil {
			head, tail = content[:loc[0]], content[loc[0]:]
		}

		re := regexp.MustCompile(`(?m)^[ \t]*#?[ \t]*` + regexp.QuoteMeta(s.key) + `[ \t]*=.*$`)
		if re.MatchString(head) {
			replaced := false
			head = re.ReplaceAllStringFunc(head, func(m string) string {
				if replaced {
					return m
				}
				replaced = true
				return line
			})
		} else {
			if head != "" && !strings.HasSuffix(head, "\n") {
				head += "\n"
			}
			head += line + "\n"
			if tail != "" {
				head += "\n"
			}
		}
		content = head + tail
	}
	return content
}
