// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package testdb hands tests their own migrated feedarr database without
// running the migrations for every test.
package testdb

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/autobrr/feedarr/internal/database"
)

var template = sync.OnceValues(func() (string, error) {
	dir, err := os.MkdirTemp("", "feedarr-testdb-")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "template.db")
	db, err := database.New(path)
	if err != nil {
		return "", err
	}
	// closing checkpoints the WAL into the main file
	if err := db.Close(); err != nil {
		return "", err
	}
	return path, nil
})

// Path returns the path of a fresh copy of the migrated template database
// inside the test's temp dir.
func Path(t testing.TB) string {
	t.Helper()

	src, err := template()
	if err != nil {
		t.Fatalf("prepare template database: %v", err)
	}

	dst := filepath.Join(t.TempDir(), "feedarr.db")
	if err := copyFile(src, dst); err != nil {
		t.Fatalf("copy template database: %v", err)
	}
	return dst
}

// Open returns an opened copy of the template database that is closed when
// the test ends.
func Open(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.New(Path(t))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
