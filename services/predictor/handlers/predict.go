// Copyright (C) 2025 Fathom ML (oss@fathomml.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers provides HTTP handlers for the predictor service.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"

	"github.com/FathomML/FathomServe/services/predictor/datatypes"
	"github.com/FathomML/FathomServe/services/predictor/middleware"
	"github.com/FathomML/FathomServe/services/predictor/observability"
	"github.com/FathomML/FathomServe/services/predictor/pipeline"
)

var predictTracer = otel.Tracer("fathom.predictor.handlers")

// Predictor runs one stateless prediction. Implemented by
// pipeline.Pipeline; narrowed to an interface so handler tests can stub
// the numeric path.
type Predictor interface {
	Predict(ctx context.Context, req *datatypes.PredictRequest, started time.Time) ([]float64, error)
}

// HandlePredict handles POST /v1/predict.
//
// # Description
//
// Binds and validates the request body, runs the prediction pipeline, and
// maps each outcome to its HTTP shape:
//
//   - 200 with {"status":"success","predictions":[...]} on success
//   - 400 for malformed bodies and validation failures
//   - 408 when the wall-clock budget elapsed
//   - 500 for computation failures
//
// The started timestamp is taken before binding so parsing time counts
// against the budget too.
func HandlePredict(p Predictor, metrics *observability.PredictMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		ctx, span := predictTracer.Start(c.Request.Context(), "HandlePredict")
		defer span.End()

		logger := slog.With("request_id", middleware.GetRequestID(c), "handler", "HandlePredict")

		var req datatypes.PredictRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			logger.Warn("Failed to parse the prediction request", "error", err)
			finish(metrics, started, observability.OutcomeValidationError)
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse("invalid request body: "+err.Error()))
			return
		}
		if err := req.Validate(); err != nil {
			logger.Warn("Prediction request failed field validation", "error", err)
			finish(metrics, started, observability.OutcomeValidationError)
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse(err.Error()))
			return
		}

		preds, err := p.Predict(ctx, &req, started)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			respondPredictError(c, logger, metrics, started, err)
			return
		}

		finish(metrics, started, observability.OutcomeSuccess)
		c.JSON(http.StatusOK, datatypes.NewPredictResponse(preds))
	}
}

// respondPredictError maps a pipeline error to its HTTP response and
// metrics outcome. Exactly one category applies per request.
func respondPredictError(c *gin.Context, logger *slog.Logger, metrics *observability.PredictMetrics, started time.Time, err error) {
	var verr *pipeline.ValidationError
	var terr *pipeline.TimeoutError
	var cerr *pipeline.ComputationError

	switch {
	case errors.As(err, &verr):
		logger.Warn("Prediction rejected", "field", verr.Field, "reason", verr.Reason)
		finish(metrics, started, observability.OutcomeValidationError)
		c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse(verr.Error()))

	case errors.As(err, &terr):
		logger.Warn("Prediction exceeded time budget", "budget", terr.Budget)
		if metrics != nil {
			metrics.TimeoutsTotal.Inc()
		}
		finish(metrics, started, observability.OutcomeTimeout)
		c.JSON(http.StatusRequestTimeout, datatypes.NewErrorResponse("Request timeout"))

	case errors.As(err, &cerr):
		logger.Error("Prediction computation failed", "error", err)
		finish(metrics, started, observability.OutcomeComputationError)
		c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse(cerr.Error()))

	default:
		// Client cancellations and anything unclassified.
		logger.Error("Prediction failed", "error", err)
		finish(metrics, started, observability.OutcomeComputationError)
		c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("internal error"))
	}
}

// finish records the outcome counters and latency for one request.
func finish(metrics *observability.PredictMetrics, started time.Time, outcome string) {
	if metrics == nil {
		return
	}
	metrics.RequestsTotal.WithLabelValues(outcome).Inc()
	metrics.RequestDurationSeconds.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
}
