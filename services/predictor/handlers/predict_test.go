// Copyright (C) 2025 Fathom ML (oss@fathomml.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FathomML/FathomServe/services/predictor/datatypes"
	"github.com/FathomML/FathomServe/services/predictor/observability"
	"github.com/FathomML/FathomServe/services/predictor/pipeline"
)

// stubPredictor returns a canned result without running the numeric path.
type stubPredictor struct {
	predictions []float64
	err         error
}

func (s *stubPredictor) Predict(ctx context.Context, req *datatypes.PredictRequest, started time.Time) ([]float64, error) {
	return s.predictions, s.err
}

func newPredictRouter(p Predictor, metrics *observability.PredictMetrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/predict", HandlePredict(p, metrics))
	return r
}

func validBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"x_observed": [][]float64{{1, 2}, {3, 4}, {5, 6}},
		"y_observed": []float64{1, 2, 3},
		"x_predict":  [][]float64{{7, 8}},
		"t":          "linear",
		"n":          3,
		"k":          1,
		"d":          2,
	})
	require.NoError(t, err)
	return body
}

func postPredict(r *gin.Engine, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/predict", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHandlePredict_Success(t *testing.T) {
	r := newPredictRouter(&stubPredictor{predictions: []float64{4.2}}, nil)

	w := postPredict(r, validBody(t))
	require.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.PredictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, []float64{4.2}, resp.Predictions)
}

func TestHandlePredict_MalformedBody(t *testing.T) {
	r := newPredictRouter(&stubPredictor{}, nil)

	w := postPredict(r, []byte(`{"x_observed": [[1,`))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp datatypes.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.NotEmpty(t, resp.Message)
}

func TestHandlePredict_MissingFields(t *testing.T) {
	r := newPredictRouter(&stubPredictor{}, nil)

	body, err := json.Marshal(map[string]any{
		"x_observed": [][]float64{{1, 2}},
		"n":          1,
	})
	require.NoError(t, err)

	w := postPredict(r, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlePredict_OutcomeStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			"validation error",
			&pipeline.ValidationError{Field: "x_observed", Reason: "row 0 has 1 columns, expected 2"},
			http.StatusBadRequest,
			"invalid x_observed: row 0 has 1 columns, expected 2",
		},
		{
			"timeout",
			&pipeline.TimeoutError{Budget: 90 * time.Second},
			http.StatusRequestTimeout,
			"Request timeout",
		},
		{
			"computation error",
			&pipeline.ComputationError{Message: "model fit failed"},
			http.StatusInternalServerError,
			"computation failed: model fit failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newPredictRouter(&stubPredictor{err: tt.err}, nil)

			w := postPredict(r, validBody(t))
			require.Equal(t, tt.wantStatus, w.Code)

			var resp datatypes.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tt.wantMsg, resp.Message)
		})
	}
}

func TestHandlePredict_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetricsWithRegistry(reg)
	r := newPredictRouter(&stubPredictor{err: &pipeline.TimeoutError{Budget: time.Second}}, metrics)

	postPredict(r, validBody(t))

	got := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(observability.OutcomeTimeout))
	assert.Equal(t, 1.0, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TimeoutsTotal))
}

func TestHandleHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", HandleHealth("predictor"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp datatypes.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "predictor", resp.Service)
}
