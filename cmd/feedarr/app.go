// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/feedarr/internal/config"
	"github.com/autobrr/feedarr/internal/database"
	"github.com/autobrr/feedarr/internal/models"
)

// app is the state shared by commands that touch the database.
type app struct {
	cfg     *config.AppConfig
	db      *database.DB
	logs    io.Closer
	release *models.ReleaseStore
	ignore  *models.IgnoreListStore
	cps     *models.CheckpointStore
}

func openApp(configPath string) (*app, error) {
	cfg, err := config.New(configPath)
	if err != nil {
		return nil, err
	}

	logs, err := config.SetupLogging(cfg.Config)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}

	dbPath := cfg.GetDatabasePath()
	db, err := database.New(dbPath)
	if err != nil {
		_ = logs.Close()
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}
	log.Debug().Str("config", cfg.ConfigPath()).Str("database", dbPath).Msg("opened feedarr")

	return &app{
		cfg:     cfg,
		db:      db,
		logs:    logs,
		release: models.NewReleaseStore(db),
		ignore:  models.NewIgnoreListStore(db),
		cps:     models.NewCheckpointStore(db),
	}, nil
}

func (a *app) Close() error {
	return errors.Join(a.db.Close(), a.logs.Close())
}
