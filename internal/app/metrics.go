// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsEndpoint = "/metrics"

// parseMetrics counts uploaded streams by outcome and times their parse.
type parseMetrics struct {
	registry *prometheus.Registry
	parses   *prometheus.CounterVec
	duration prometheus.Histogram
}

func newParseMetrics() *parseMetrics {
	m := &parseMetrics{
		registry: prometheus.NewRegistry(),
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bvh",
			Name:      "parses_total",
			Help:      "Number of parsed streams by result and error kind.",
		}, []string{"result", "kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bvh",
			Name:      "parse_duration_seconds",
			Help:      "Time spent parsing uploaded streams.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	m.registry.MustRegister(
		m.parses,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *parseMetrics) observe(result, kind string, elapsed time.Duration) {
	m.parses.WithLabelValues(result, kind).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *parseMetrics) handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry}))
}
