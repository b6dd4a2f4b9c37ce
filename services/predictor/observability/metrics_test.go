// Copyright (C) 2025 Fathom ML (oss@fathomml.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRequestOutcomeCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	m.RequestsTotal.WithLabelValues(OutcomeSuccess).Inc()
	m.RequestsTotal.WithLabelValues(OutcomeSuccess).Inc()
	m.RequestsTotal.WithLabelValues(OutcomeTimeout).Inc()
	m.TimeoutsTotal.Inc()

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(OutcomeSuccess)); got != 2 {
		t.Errorf("success counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(OutcomeTimeout)); got != 1 {
		t.Errorf("timeout counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TimeoutsTotal); got != 1 {
		t.Errorf("timeouts total = %v, want 1", got)
	}
}

func TestActiveRequestsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	m.ActiveRequests.Inc()
	m.ActiveRequests.Inc()
	m.ActiveRequests.Dec()

	if got := testutil.ToFloat64(m.ActiveRequests); got != 1 {
		t.Errorf("active requests = %v, want 1", got)
	}
}

func TestObserveAlphaLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	m.ObserveAlpha(0.1)
	m.ObserveAlpha(0.1)
	m.ObserveAlpha(1.0)

	if got := testutil.ToFloat64(m.AlphaSelectedTotal.WithLabelValues("0.1")); got != 2 {
		t.Errorf("alpha 0.1 counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.AlphaSelectedTotal.WithLabelValues("1")); got != 1 {
		t.Errorf("alpha 1 counter = %v, want 1", got)
	}
}

func TestObserveAlphaNilReceiver(t *testing.T) {
	var m *PredictMetrics
	m.ObserveAlpha(0.3) // must not panic when metrics are disabled
}
