// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package database provides the SQLite store behind feedarr.
//
// Reads go through a pooled connection with cached prepared statements.
// Writes are funneled through one goroutine that owns a dedicated
// connection, so the release store only ever has one writer.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"

	"github.com/autobrr/feedarr/internal/dbinterface"
)

var ErrClosed = errors.New("database is closed")

const (
	busyTimeout  = 5 * time.Second
	setupTimeout = 5 * time.Second
)

var (
	hookOnce sync.Once

	sessionPragmas = []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()),
	}
)

// DB is the release database. It implements dbinterface.TxBeginner.
type DB struct {
	pool   *sql.DB
	stmts  *stmtCache
	writer *writer

	closeOnce sync.Once
	closeErr  error
}

// New opens the database at path, creating the file and its directory when
// missing, applies pending migrations and starts the writer.
func New(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	hookOnce.Do(func() {
		sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, _ string) error {
			ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
			defer cancel()
			for _, pragma := range sessionPragmas {
				if _, err := conn.ExecContext(ctx, pragma, nil); err != nil {
					return fmt.Errorf("connection hook %q: %w", pragma, err)
				}
			}
			return nil
		})
	})

	pool, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// migrations run on a single connection
	pool.SetMaxOpenConns(1)
	if err := migrate(pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	pool.SetMaxOpenConns(0)
	pool.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	conn, err := pool.Conn(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("reserve write connection: %w", err)
	}

	log.Debug().Str("path", path).Msg("database ready")

	return &DB{
		pool:   pool,
		stmts:  newStmtCache(pool),
		writer: startWriter(conn),
	}, nil
}

// isWriteQuery reports whether query modifies data and must go through the
// writer.
func isWriteQuery(query string) bool {
	q := strings.TrimLeftFunc(query, unicode.IsSpace)
	if end := strings.IndexFunc(q, unicode.IsSpace); end >= 0 {
		q = q[:end]
	}
	switch strings.ToUpper(q) {
	case "INSERT", "UPDATE", "UPSERT", "REPLACE", "DELETE":
		return true
	}
	return false
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if isWriteQuery(query) {
		return db.writer.exec(ctx, query, args)
	}
	if stmt := db.stmts.get(ctx, query); stmt != nil {
		return stmt.ExecContext(ctx, args...)
	}
	return db.pool.ExecContext(ctx, query, args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if stmt := db.stmts.get(ctx, query); stmt != nil {
		return stmt.QueryContext(ctx, args...)
	}
	return db.pool.QueryContext(ctx, query, args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if stmt := db.stmts.get(ctx, query); stmt != nil {
		return stmt.QueryRowContext(ctx, args...)
	}
	return db.pool.QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction. Read-only transactions use the pool; all
// others hold the write connection until they finish.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (dbinterface.TxQuerier, error) {
	var (
		tx  *sql.Tx
		err error
	)
	if opts != nil && opts.ReadOnly {
		tx, err = db.pool.BeginTx(ctx, opts)
	} else {
		tx, err = db.writer.beginTx(ctx, opts)
	}
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, stmts: db.stmts}, nil
}

// Close stops the writer after it drains queued writes and closes every
// connection. It is safe to call more than once.
func (db *DB) Close() error {
	db.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
		defer cancel()
		if _, err := db.pool.ExecContext(ctx, "PRAGMA optimize"); err != nil {
			log.Warn().Err(err).Msg("PRAGMA optimize failed on close")
		}

		werr := db.writer.stop()
		db.stmts.close()
		db.closeErr = errors.Join(werr, db.pool.Close())
	})
	return db.closeErr
}

// Tx is a transaction that reuses the DB's prepared statements.
type Tx struct {
	*sql.Tx
	stmts *stmtCache
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	stmt := t.bind(ctx, query)
	if stmt == nil {
		return t.Tx.ExecContext(ctx, query, args...)
	}
	defer stmt.Close()
	return stmt.ExecContext(ctx, args...)
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	stmt := t.bind(ctx, query)
	if stmt == nil {
		return t.Tx.QueryContext(ctx, query, args...)
	}
	defer stmt.Close()
	return stmt.QueryContext(ctx, args...)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	stmt := t.bind(ctx, query)
	if stmt == nil {
		return t.Tx.QueryRowContext(ctx, query, args...)
	}
	defer stmt.Close()
	return stmt.QueryRowContext(ctx, args...)
}

func (t *Tx) bind(ctx context.Context, query string) *sql.Stmt {
	stmt := t.stmts.get(ctx, query)
	if stmt == nil {
		return nil
	}
	return t.Tx.StmtContext(ctx, stmt)
}
