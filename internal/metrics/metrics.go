// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

// Package metrics holds the Prometheus instrumentation for the estimation
// service and the batch pipeline: request latency, preprocessing and
// prediction counters, pipeline run accounting, and the LLM parser's
// circuit breaker state.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API endpoint metrics.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Estimation metrics.
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of price predictions",
		},
		[]string{"model", "degraded"},
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prediction_duration_seconds",
			Help:    "End-to-end preprocess plus predict duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PredictedPrice = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "predicted_price_billions",
			Help:    "Distribution of predicted prices in billions of VND",
			Buckets: []float64{0.5, 1, 2, 3, 5, 8, 12, 20, 50},
		},
	)

	PreprocessOOVTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preprocess_oov_total",
			Help: "Total out-of-vocabulary categorical values seen at serve time",
		},
		[]string{"column"},
	)

	// Batch pipeline metrics, exposed by the pipeline command's run summary.
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"outcome"},
	)

	PipelineRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Duration of pipeline runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	PipelineRowsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_rows_processed_total",
			Help: "Total number of raw rows processed by pipeline runs",
		},
	)

	ArtifactReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_reloads_total",
			Help: "Total number of artifact bundle reload attempts",
		},
		[]string{"outcome"},
	)

	ServeDegraded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "serve_degraded",
			Help: "1 when the preprocessor is serving without an artifact bundle",
		},
	)

	// Database metrics.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// LLM parser metrics.
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of LLM parse requests",
		},
		[]string{"outcome"}, // "ok", "error", "rejected"
	)

	LLMRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Duration of LLM parse calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordPrediction tracks one served estimate.
func RecordPrediction(model string, degraded bool, priceBillions float64, duration time.Duration) {
	d := "false"
	if degraded {
		d = "true"
	}
	PredictionsTotal.WithLabelValues(model, d).Inc()
	PredictionDuration.Observe(duration.Seconds())
	PredictedPrice.Observe(priceBillions)
}

// RecordPipelineRun tracks one batch run.
func RecordPipelineRun(duration time.Duration, rowsIn int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	PipelineRunsTotal.WithLabelValues(outcome).Inc()
	if err == nil {
		PipelineRunDuration.Observe(duration.Seconds())
		PipelineRowsProcessed.Add(float64(rowsIn))
	}
}

// RecordDBQuery tracks one database operation.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
