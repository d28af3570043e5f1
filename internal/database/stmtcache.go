// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"
	"github.com/rs/zerolog/log"
)

const stmtTTL = 5 * time.Minute

// stmtCache keeps prepared statements for recently used queries. Entries
// that go unused for stmtTTL are closed.
type stmtCache struct {
	pool  *sql.DB
	cache *ttlcache.Cache[string, *sql.Stmt]
}

func newStmtCache(pool *sql.DB) *stmtCache {
	opts := ttlcache.Options[string, *sql.Stmt]{}.
		SetDefaultTTL(stmtTTL).
		SetDeallocationFunc(func(_ string, stmt *sql.Stmt, _ ttlcache.DeallocationReason) {
			if stmt != nil {
				_ = stmt.Close()
			}
		})
	return &stmtCache{pool: pool, cache: ttlcache.New(opts)}
}

// get returns a prepared statement for query, or nil when it cannot be
// prepared and the caller should run the query unprepared.
func (c *stmtCache) get(ctx context.Context, query string) *sql.Stmt {
	if stmt, ok := c.cache.Get(query); ok && stmt != nil {
		return stmt
	}

	stmt, err := c.pool.PrepareContext(ctx, query)
	if err != nil {
		log.Trace().Err(err).Msg("statement not cached")
		return nil
	}
	c.cache.Set(query, stmt, ttlcache.DefaultTTL)
	return stmt
}

func (c *stmtCache) close() {
	c.cache.Close()
}
