// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

type Manager struct {
	registry      *prometheus.Registry
	syncCollector *SyncCollector
}

// NewManager creates a registry with the Go and process collectors, the
// sync collector and any extra collectors, such as the database one.
func NewManager(extra ...prometheus.Collector) *Manager {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	syncCollector := NewSyncCollector()
	registry.MustRegister(syncCollector)

	for _, c := range extra {
		if c != nil {
			registry.MustRegister(c)
		}
	}

	log.Debug().Int("extra", len(extra)).Msg("metrics manager initialized")

	return &Manager{
		registry:      registry,
		syncCollector: syncCollector,
	}
}

func (m *Manager) GetRegistry() *prometheus.Registry {
	return m.registry
}

// Sync returns the collector the orchestrator and the call gate report to.
func (m *Manager) Sync() *SyncCollector {
	return m.syncCollector
}
