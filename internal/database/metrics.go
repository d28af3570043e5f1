// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	writesTotal      atomic.Uint64
	writeErrorsTotal atomic.Uint64
)

func recordWrite(err error) {
	writesTotal.Add(1)
	if err != nil {
		writeErrorsTotal.Add(1)
	}
}

// MetricsCollector exposes counters of the single writer.
type MetricsCollector struct {
	writesDesc      *prometheus.Desc
	writeErrorsDesc *prometheus.Desc
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		writesDesc: prometheus.NewDesc(
			"feedarr_db_writes_total",
			"Number of write statements executed by the database writer",
			nil,
			nil,
		),
		writeErrorsDesc: prometheus.NewDesc(
			"feedarr_db_write_errors_total",
			"Number of write statements that returned an error",
			nil,
			nil,
		),
	}
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.writesDesc
	ch <- c.writeErrorsDesc
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.writesDesc, prometheus.CounterValue, float64(writesTotal.Load()))
	ch <- prometheus.MustNewConstMetric(c.writeErrorsDesc, prometheus.CounterValue, float64(writeErrorsTotal.Load()))
}
