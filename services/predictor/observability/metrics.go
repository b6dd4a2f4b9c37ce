// Copyright (C) 2025 Fathom ML (oss@fathomml.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides metrics and instrumentation for the
// predictor service.
//
// # Description
//
// This package implements Prometheus metrics for monitoring prediction
// operations. Metrics include:
//   - Request counters by outcome
//   - Request latency histograms
//   - Timeout counters
//   - In-flight request gauge
//   - Regularization strength selection counters
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "fathom"

// Subsystem for prediction metrics
const predictSubsystem = "predict"

// PredictMetrics holds all Prometheus metrics for prediction operations.
//
// # Fields
//
//   - RequestsTotal: Counter of prediction requests by outcome
//   - RequestDurationSeconds: Histogram of end-to-end request latency
//   - TimeoutsTotal: Counter of requests terminated by the time budget
//   - ActiveRequests: Gauge of requests currently inside the pipeline
//   - AlphaSelectedTotal: Counter of fitted models by chosen strength
//
// # Thread Safety
//
// All operations are thread-safe.
type PredictMetrics struct {
	// RequestsTotal counts prediction requests by outcome.
	// Labels: outcome (success, validation_error, computation_error, timeout)
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures end-to-end request latency.
	// Labels: outcome
	RequestDurationSeconds *prometheus.HistogramVec

	// TimeoutsTotal counts requests that hit the wall-clock budget.
	TimeoutsTotal prometheus.Counter

	// ActiveRequests tracks requests currently inside the pipeline.
	ActiveRequests prometheus.Gauge

	// AlphaSelectedTotal counts fitted models by chosen regularization
	// strength, including the fallback.
	// Labels: alpha (0.1, 0.3, 1, 3, 10)
	AlphaSelectedTotal *prometheus.CounterVec
}

// Outcome labels for RequestsTotal and RequestDurationSeconds.
const (
	OutcomeSuccess          = "success"
	OutcomeValidationError  = "validation_error"
	OutcomeComputationError = "computation_error"
	OutcomeTimeout          = "timeout"
)

// DefaultMetrics is the singleton instance of PredictMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *PredictMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics on the default registry.
// Should be called once at application startup.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *PredictMetrics {
	DefaultMetrics = newMetrics(promauto.With(prometheus.DefaultRegisterer))
	return DefaultMetrics
}

// NewMetricsWithRegistry creates a metrics instance on a caller-supplied
// registry. Used by tests to avoid duplicate registration on the global
// registry.
func NewMetricsWithRegistry(reg prometheus.Registerer) *PredictMetrics {
	return newMetrics(promauto.With(reg))
}

func newMetrics(factory promauto.Factory) *PredictMetrics {
	return &PredictMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: predictSubsystem,
				Name:      "requests_total",
				Help:      "Total number of prediction requests by outcome",
			},
			[]string{"outcome"},
		),

		RequestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: predictSubsystem,
				Name:      "request_duration_seconds",
				Help:      "End-to-end prediction request latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 90},
			},
			[]string{"outcome"},
		),

		TimeoutsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: predictSubsystem,
				Name:      "timeouts_total",
				Help:      "Total prediction requests terminated by the time budget",
			},
		),

		ActiveRequests: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: predictSubsystem,
				Name:      "active_requests",
				Help:      "Number of prediction requests currently in flight",
			},
		),

		AlphaSelectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: predictSubsystem,
				Name:      "alpha_selected_total",
				Help:      "Total fitted models by chosen regularization strength",
			},
			[]string{"alpha"},
		),
	}
}

// ObserveAlpha records the strength chosen for one fitted model.
func (m *PredictMetrics) ObserveAlpha(alpha float64) {
	if m == nil {
		return
	}
	m.AlphaSelectedTotal.WithLabelValues(strconv.FormatFloat(alpha, 'g', -1, 64)).Inc()
}
