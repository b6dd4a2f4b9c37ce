// Copyright (C) 2025 Fathom ML (oss@fathomml.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// boundedResult carries the outcome of one bounded computation.
type boundedResult struct {
	predictions []float64
	err         error
}

// runBounded executes fn with a hard allowance on wall-clock time.
//
// # Description
//
// The computation runs in its own goroutine with a panic guard; a panic is
// classified as a ComputationError, never a crash or a timeout. The result
// channel is buffered so an abandoned computation can still complete and be
// collected by the garbage collector instead of leaking a goroutine. When
// the allowance is already spent on entry the function is never dispatched.
//
// # Inputs
//
//   - ctx: request context; cancellation is reported as its own error.
//   - allowance: remaining wall-clock budget for this computation.
//   - budget: the full configured budget, used only for the timeout message.
//   - fn: the computation to bound.
//
// # Outputs
//
//   - []float64: fn's result when it finished in time.
//   - error: fn's error, a ComputationError for a panic, a TimeoutError when
//     the allowance elapsed, or ctx.Err() on cancellation.
func runBounded(ctx context.Context, allowance, budget time.Duration, fn func() ([]float64, error)) ([]float64, error) {
	if allowance <= 0 {
		return nil, &TimeoutError{Budget: budget}
	}

	ch := make(chan boundedResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("prediction computation panicked", "panic", r)
				ch <- boundedResult{err: &ComputationError{
					Message: "solver panic",
					Err:     fmt.Errorf("%v", r),
				}}
			}
		}()
		preds, err := fn()
		ch <- boundedResult{predictions: preds, err: err}
	}()

	timer := time.NewTimer(allowance)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.predictions, res.err
	case <-timer.C:
		return nil, &TimeoutError{Budget: budget}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
