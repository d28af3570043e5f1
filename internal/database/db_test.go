// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "feedarr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableColumns(t *testing.T, db *DB, table string) map[string]bool {
	t.Helper()
	rows, err := db.pool.Query("SELECT name FROM pragma_table_info(?)", table)
	require.NoError(t, err)
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		cols[name] = true
	}
	require.NoError(t, rows.Err())
	return cols
}

func TestNew_AppliesMigrations(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	releases := tableColumns(t, db, "releases")
	for _, col := range []string{"guid", "tvdb_id", "manual_tvdb_id", "decision_trail", "linkage_misses", "status", "fingerprint"} {
		assert.True(t, releases[col], "releases.%s missing", col)
	}
	assert.True(t, tableColumns(t, db, "ignore_list")["identity_key"])
	assert.True(t, tableColumns(t, db, "sync_checkpoints")["run_id"])

	var applied int
	require.NoError(t, db.pool.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&applied))
	assert.Equal(t, 1, applied)
}

func TestNew_ReopenSkipsAppliedMigrations(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "feedarr.db")

	db, err := New(path)
	require.NoError(t, err)
	_, err = db.ExecContext(context.Background(), "INSERT INTO ignore_list (identity_key, created_at) VALUES (?, ?)", "tvdb:1", "2026-01-01T00:00:00Z")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()

	var key string
	require.NoError(t, db.QueryRowContext(context.Background(), "SELECT identity_key FROM ignore_list").Scan(&key))
	assert.Equal(t, "tvdb:1", key)
}

func TestIsWriteQuery(t *testing.T) {
	t.Parallel()
	tests := []struct {
		query string
		want  bool
	}{
		{"INSERT INTO releases VALUES (?)", true},
		{"  update releases SET status = ?", true},
		{"\n\tDELETE FROM ignore_list", true},
		{"REPLACE INTO x VALUES (1)", true},
		{"SELECT * FROM releases", false},
		{"PRAGMA optimize", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isWriteQuery(tt.query), tt.query)
	}
}

func TestConcurrentWrites(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := db.ExecContext(ctx, "INSERT INTO ignore_list (identity_key, created_at) VALUES (?, ?)",
				"name:show "+string(rune('a'+i%26))+string(rune('a'+i/26)), "2026-01-01T00:00:00Z")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ignore_list").Scan(&count))
	assert.Equal(t, 50, count)
}

func TestBeginTx_Rollback(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, "INSERT INTO ignore_list (identity_key, created_at) VALUES (?, ?)", "tvdb:2", "2026-01-01T00:00:00Z")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ignore_list").Scan(&count))
	assert.Zero(t, count)

	ro, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	require.NoError(t, ro.QueryRowContext(ctx, "SELECT COUNT(*) FROM ignore_list").Scan(&count))
	require.NoError(t, ro.Commit())
}

func TestClose_RejectsWrites(t *testing.T) {
	t.Parallel()
	db, err := New(filepath.Join(t.TempDir(), "feedarr.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	_, err = db.ExecContext(context.Background(), "DELETE FROM ignore_list")
	assert.Error(t, err)
}
