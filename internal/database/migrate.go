// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"

	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsTable = `
CREATE TABLE IF NOT EXISTS migrations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT NOT NULL UNIQUE,
	applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// migrate applies every embedded migration not yet recorded in the
// migrations table. Each file runs in its own transaction, in name order.
func migrate(pool *sql.DB) error {
	ctx := context.Background()

	if _, err := pool.ExecContext(ctx, migrationsTable); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	slices.Sort(files)

	applied, err := appliedMigrations(ctx, pool)
	if err != nil {
		return err
	}

	count := 0
	for _, file := range files {
		name := path.Base(file)
		if applied[name] {
			continue
		}
		if err := applyMigration(ctx, pool, file, name); err != nil {
			return err
		}
		count++
	}

	if count > 0 {
		log.Info().Int("count", count).Msg("applied database migrations")
	}
	return nil
}

func appliedMigrations(ctx context.Context, pool *sql.DB) (map[string]bool, error) {
	rows, err := pool.QueryContext(ctx, "SELECT filename FROM migrations")
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func applyMigration(ctx context.Context, pool *sql.DB, file, name string) error {
	body, err := migrationsFS.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}

	tx, err := pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(body)); err != nil {
		return fmt.Errorf("migration %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO migrations (filename) VALUES (?)", name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	return tx.Commit()
}
