// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package dbinterface provides database interfaces to avoid import cycles.
// This package has no dependencies and can be imported by both the database
// implementation and the stores in models.
package dbinterface

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Querier is the centralized interface for database operations.
// It is implemented by *sql.DB, *sql.Tx, *database.DB and *database.Tx.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// TxQuerier is a Querier that can be committed or rolled back.
type TxQuerier interface {
	Querier
	Commit() error
	Rollback() error
}

// TxBeginner is an interface for types that can begin transactions.
// It is implemented by *database.DB.
type TxBeginner interface {
	Querier
	BeginTx(ctx context.Context, opts *sql.TxOptions) (TxQuerier, error)
}

// BuildQueryWithPlaceholders fills the %s verb of queryTemplate with numRows
// groups of placeholdersPerRow "?" placeholders, e.g. "(?, ?), (?, ?)".
func BuildQueryWithPlaceholders(queryTemplate string, placeholdersPerRow, numRows int) string {
	if placeholdersPerRow <= 0 || numRows <= 0 {
		return fmt.Sprintf(queryTemplate, "")
	}

	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", placeholdersPerRow), ", ") + ")"
	rows := make([]string, numRows)
	for i := range rows {
		rows[i] = row
	}
	return fmt.Sprintf(queryTemplate, strings.Join(rows, ", "))
}
