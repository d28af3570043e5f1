// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package feedsync

import (
	"time"

	"github.com/autobrr/feedarr/internal/quality"
)

// Config holds the service configuration.
type Config struct {
	// Policy is the quality policy snapshot used for every run.
	Policy quality.Policy

	// CheckpointInterval is how many items are processed between checkpoints.
	CheckpointInterval int

	// Now returns the timestamps written to records. Defaults to UTC wall time.
	Now func() time.Time
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{
		Policy:             quality.DefaultPolicy(),
		CheckpointInterval: 25,
	}
}
