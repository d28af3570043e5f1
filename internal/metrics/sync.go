// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncCollector holds the metrics of feed syncs and the external calls they
// make. It satisfies catalog.CallObserver.
type SyncCollector struct {
	items        *prometheus.CounterVec
	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	releases     *prometheus.GaugeVec
}

func NewSyncCollector() *SyncCollector {
	return &SyncCollector{
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedarr_sync_items_total",
			Help: "Feed items processed by feed and outcome",
		}, []string{"feed", "outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedarr_sync_runs_total",
			Help: "Sync runs by feed and result",
		}, []string{"feed", "result"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "feedarr_sync_run_duration_seconds",
			Help:    "Duration of sync runs by feed",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"feed"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedarr_external_calls_total",
			Help: "External catalog and library calls by service and result",
		}, []string{"service", "result"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "feedarr_external_call_duration_seconds",
			Help:    "Duration of external calls by service, including rate limit waits",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),
		releases: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "feedarr_releases",
			Help: "Stored releases by status",
		}, []string{"status"}),
	}
}

func (c *SyncCollector) Describe(ch chan<- *prometheus.Desc) {
	c.items.Describe(ch)
	c.runs.Describe(ch)
	c.runDuration.Describe(ch)
	c.calls.Describe(ch)
	c.callDuration.Describe(ch)
	c.releases.Describe(ch)
}

func (c *SyncCollector) Collect(ch chan<- prometheus.Metric) {
	c.items.Collect(ch)
	c.runs.Collect(ch)
	c.runDuration.Collect(ch)
	c.calls.Collect(ch)
	c.callDuration.Collect(ch)
	c.releases.Collect(ch)
}

func (c *SyncCollector) ObserveCall(service, result string, duration time.Duration) {
	c.calls.WithLabelValues(service, result).Inc()
	c.callDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (c *SyncCollector) ObserveItem(feed, outcome string) {
	c.items.WithLabelValues(feed, outcome).Inc()
}

func (c *SyncCollector) ObserveRun(feed string, duration time.Duration, failed bool) {
	result := "ok"
	if failed {
		result = "failed"
	}
	c.runs.WithLabelValues(feed, result).Inc()
	c.runDuration.WithLabelValues(feed).Observe(duration.Seconds())
}

// SetStatusCounts replaces the per-status release gauge.
func (c *SyncCollector) SetStatusCounts(counts map[string]int) {
	c.releases.Reset()
	for status, n := range counts {
		c.releases.WithLabelValues(status).Set(float64(n))
	}
}
