// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/autobrr/feedarr/internal/dbinterface"
)

var (
	ErrIgnoreEntryNotFound = errors.New("ignore list entry not found")
	ErrIgnoreEntryExists   = errors.New("ignore list entry already exists")
)

// importChunkSize bounds the rows of one multi-row insert.
const importChunkSize = 200

// IgnoreEntry is one identity on the ignore list.
type IgnoreEntry struct {
	Key         string    `json:"key" yaml:"key"`
	DisplayName string    `json:"displayName,omitempty" yaml:"name,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt,omitempty"`
}

type IgnoreListStore struct {
	db dbinterface.Querier
}

func NewIgnoreListStore(db dbinterface.Querier) *IgnoreListStore {
	return &IgnoreListStore{db: db}
}

func normalizeIgnoreKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (s *IgnoreListStore) Add(ctx context.Context, entry IgnoreEntry) (*IgnoreEntry, error) {
	entry.Key = normalizeIgnoreKey(entry.Key)
	if entry.Key == "" {
		return nil, errors.New("identity key is required")
	}
	entry.DisplayName = strings.TrimSpace(entry.DisplayName)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ignore_list (identity_key, display_name, created_at)
		VALUES (?, ?, ?)
	`, entry.Key, entry.DisplayName, formatTime(entry.CreatedAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrIgnoreEntryExists
		}
		return nil, err
	}

	entry.CreatedAt = entry.CreatedAt.UTC()
	return &entry, nil
}

func (s *IgnoreListStore) Remove(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ignore_list WHERE identity_key = ?`, normalizeIgnoreKey(key))
	if err != nil {
		return err
	}
	return requireAffected(res, ErrIgnoreEntryNotFound)
}

func (s *IgnoreListStore) List(ctx context.Context) ([]IgnoreEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identity_key, display_name, created_at
		FROM ignore_list
		ORDER BY identity_key
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []IgnoreEntry
	for rows.Next() {
		var (
			entry     IgnoreEntry
			createdAt string
		)
		if err := rows.Scan(&entry.Key, &entry.DisplayName, &createdAt); err != nil {
			return nil, err
		}
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Snapshot returns the set of ignored identity keys, read once per run.
func (s *IgnoreListStore) Snapshot(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT identity_key FROM ignore_list`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		set[key] = struct{}{}
	}
	return set, rows.Err()
}

// Import adds entries, skipping keys already present. When the store runs on
// a database that supports transactions the import is all or nothing. It
// returns the number of entries inserted.
func (s *IgnoreListStore) Import(ctx context.Context, entries []IgnoreEntry) (int, error) {
	seen := make(map[string]struct{}, len(entries))
	batch := make([]IgnoreEntry, 0, len(entries))
	now := time.Now().UTC()
	for _, e := range entries {
		e.Key = normalizeIgnoreKey(e.Key)
		if e.Key == "" {
			continue
		}
		if _, dup := seen[e.Key]; dup {
			continue
		}
		seen[e.Key] = struct{}{}
		e.DisplayName = strings.TrimSpace(e.DisplayName)
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		batch = append(batch, e)
	}

	if beginner, ok := s.db.(dbinterface.TxBeginner); ok && len(batch) > 0 {
		tx, err := beginner.BeginTx(ctx, nil)
		if err != nil {
			return 0, err
		}
		defer tx.Rollback()

		inserted, err := insertIgnoreEntries(ctx, tx, batch)
		if err != nil {
			return 0, err
		}
		if err := tx.Commit(); err != nil {
			return 0, err
		}
		return inserted, nil
	}
	return insertIgnoreEntries(ctx, s.db, batch)
}

func insertIgnoreEntries(ctx context.Context, q dbinterface.Querier, batch []IgnoreEntry) (int, error) {
	inserted := 0
	for start := 0; start < len(batch); start += importChunkSize {
		chunk := batch[start:min(start+importChunkSize, len(batch))]

		query := dbinterface.BuildQueryWithPlaceholders(
			"INSERT INTO ignore_list (identity_key, display_name, created_at) VALUES %s ON CONFLICT(identity_key) DO NOTHING",
			3, len(chunk))
		args := make([]any, 0, len(chunk)*3)
		for _, e := range chunk {
			args = append(args, e.Key, e.DisplayName, formatTime(e.CreatedAt))
		}

		res, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return inserted, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, err
		}
		inserted += int(n)
	}
	return inserted, nil
}
