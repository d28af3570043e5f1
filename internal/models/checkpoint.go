// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/autobrr/feedarr/internal/dbinterface"
)

var ErrCheckpointNotFound = errors.New("checkpoint not found")

// Checkpoint is the progress of the latest run over one feed.
type Checkpoint struct {
	Feed      string
	RunID     string
	LastGUID  string
	Processed int
	Completed bool
	UpdatedAt time.Time
}

type CheckpointStore struct {
	db dbinterface.Querier
}

func NewCheckpointStore(db dbinterface.Querier) *CheckpointStore {
	return &CheckpointStore{db: db}
}

func (s *CheckpointStore) Save(ctx context.Context, cp Checkpoint) error {
	if strings.TrimSpace(cp.Feed) == "" {
		return errors.New("feed is required")
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_checkpoints (feed, run_id, last_guid, processed, completed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(feed) DO UPDATE SET
			run_id = excluded.run_id,
			last_guid = excluded.last_guid,
			processed = excluded.processed,
			completed = excluded.completed,
			updated_at = excluded.updated_at
	`, cp.Feed, cp.RunID, cp.LastGUID, cp.Processed, cp.Completed, formatTime(cp.UpdatedAt))
	return err
}

func (s *CheckpointStore) Get(ctx context.Context, feed string) (*Checkpoint, error) {
	var (
		cp        Checkpoint
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT feed, run_id, last_guid, processed, completed, updated_at
		FROM sync_checkpoints
		WHERE feed = ?
	`, feed).Scan(&cp.Feed, &cp.RunID, &cp.LastGUID, &cp.Processed, &cp.Completed, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCheckpointNotFound
		}
		return nil, err
	}
	if cp.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &cp, nil
}
