// Copyright (C) 2025 Fathom ML (oss@fathomml.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/mat"

	"github.com/FathomML/FathomServe/pkg/validation"
	"github.com/FathomML/FathomServe/services/predictor/basis"
	"github.com/FathomML/FathomServe/services/predictor/datatypes"
	"github.com/FathomML/FathomServe/services/predictor/hints"
	"github.com/FathomML/FathomServe/services/predictor/observability"
	"github.com/FathomML/FathomServe/services/predictor/ridge"
)

// DefaultBudget is the wall-clock budget applied when the configuration
// does not set one.
const DefaultBudget = 90 * time.Second

// Config holds the pipeline configuration.
type Config struct {
	// Budget is the hard wall-clock allowance per request, covering both
	// fitting and prediction. Zero means DefaultBudget.
	Budget time.Duration

	// MaxConcurrent caps how many solves run at once across the process.
	// Zero means one solve per CPU.
	MaxConcurrent int64

	// Metrics is optional; nil disables instrumentation.
	Metrics *observability.PredictMetrics
}

// Pipeline runs stateless predictions. It holds no model state between
// requests; the only shared pieces are the budget, the concurrency limiter,
// and the metrics sink, all of which are safe for concurrent use.
type Pipeline struct {
	budget  time.Duration
	sem     *semaphore.Weighted
	metrics *observability.PredictMetrics
}

// New creates a Pipeline from the configuration, applying defaults for
// unset fields.
func New(cfg Config) *Pipeline {
	if cfg.Budget <= 0 {
		cfg.Budget = DefaultBudget
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = int64(runtime.NumCPU())
	}
	return &Pipeline{
		budget:  cfg.Budget,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrent),
		metrics: cfg.Metrics,
	}
}

// Budget returns the configured wall-clock allowance per request.
func (p *Pipeline) Budget() time.Duration {
	return p.budget
}

// Predict runs one stateless prediction end to end.
//
// # Description
//
// The payload is validated against its declared dimensions, the hint is
// parsed into a feature recipe, and the fit-and-predict computation runs
// under the remaining wall-clock allowance measured from started. Waiting
// for a solver slot counts against the same allowance, so a request cannot
// dodge its budget by queueing.
//
// # Inputs
//
//   - ctx: request context.
//   - req: bound request payload.
//   - started: when the service first received the request. The budget is
//     measured from here, not from this call.
//
// # Outputs
//
//   - []float64: exactly req.K finite predictions, ordered to match the
//     rows of req.XPredict.
//   - error: exactly one of *ValidationError, *ComputationError,
//     *TimeoutError, or ctx.Err() on client cancellation.
func (p *Pipeline) Predict(ctx context.Context, req *datatypes.PredictRequest, started time.Time) ([]float64, error) {
	if p.metrics != nil {
		p.metrics.ActiveRequests.Inc()
		defer p.metrics.ActiveRequests.Dec()
	}

	if err := validation.CheckPayload(req.N, req.K, req.D, req.XObserved, req.YObserved, req.XPredict); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return nil, &ValidationError{Field: verr.Field, Reason: verr.Reason}
		}
		return nil, &ValidationError{Field: "payload", Reason: err.Error()}
	}

	recipe := hints.Parse(req.Hint)

	deadline := started.Add(p.budget)
	acquireCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()
	if err := p.sem.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TimeoutError{Budget: p.budget}
	}
	defer p.sem.Release(1)

	return runBounded(ctx, time.Until(deadline), p.budget, func() ([]float64, error) {
		return p.solve(req, recipe)
	})
}

// solve performs the numeric path: basis construction on the observed set,
// ridge fitting, and prediction on the query set in the fitted coordinates.
func (p *Pipeline) solve(req *datatypes.PredictRequest, recipe hints.Recipe) ([]float64, error) {
	xObs := denseFromRows(req.XObserved, req.N, req.D)
	xPred := denseFromRows(req.XPredict, req.K, req.D)

	phi, scaler, err := basis.Build(xObs, recipe)
	if err != nil {
		return nil, &ComputationError{Message: "basis construction failed", Err: err}
	}

	model, err := ridge.Fit(phi, req.YObserved)
	if err != nil {
		return nil, &ComputationError{Message: "model fit failed", Err: err}
	}
	p.metrics.ObserveAlpha(model.Alpha)

	phiPred, err := scaler.Apply(xPred, recipe)
	if err != nil {
		return nil, &ComputationError{Message: "query transform failed", Err: err}
	}

	preds := model.Predict(phiPred)
	for i, v := range preds {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ComputationError{Message: "non-finite prediction", Err: fmt.Errorf("row %d", i)}
		}
	}
	return preds, nil
}

// denseFromRows copies a validated row-slice matrix into a dense matrix.
// Shapes were already checked; rows and cols are the declared dimensions.
func denseFromRows(rows [][]float64, n, d int) *mat.Dense {
	out := mat.NewDense(n, d, nil)
	for i, row := range rows {
		out.SetRow(i, row)
	}
	return out
}
