// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus collectors for pipeline runs and stages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run metrics
	RunsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paper_engine_runs_started_total",
			Help: "Total number of pipeline runs started",
		},
	)

	RunsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_engine_runs_finished_total",
			Help: "Total number of pipeline runs finished",
		},
		[]string{"outcome"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "paper_engine_run_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// Stage metrics
	StageOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_engine_stage_outcomes_total",
			Help: "Stage attempts by stage, provider, and status",
		},
		[]string{"stage", "provider", "status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paper_engine_stage_duration_ms",
			Help:    "Provider call duration in milliseconds",
			Buckets: []float64{10, 100, 500, 1000, 5000, 15000, 60000},
		},
		[]string{"stage", "provider"},
	)
)

// RecordStage records one stage outcome. Skipped stages are counted but not
// observed in the duration histogram.
func RecordStage(stage, provider, status string, durationMs int64) {
	StageOutcomes.WithLabelValues(stage, provider, status).Inc()
	if status != "skipped" {
		StageDuration.WithLabelValues(stage, provider).Observe(float64(durationMs))
	}
}

// WriteTextfile dumps every registered collector to path in the Prometheus
// text exposition format, for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
