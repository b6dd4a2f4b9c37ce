// Copyright (C) 2025 Fathom ML (oss@fathomml.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ridge fits regularized least-squares models on standardized
// design matrices.
//
// # Description
//
// Fit selects a regularization strength from a fixed candidate grid by
// deterministic cross-validation, then solves the ridge system at the
// chosen strength. The solve goes through a QR factorization of the
// √alpha-augmented design matrix, which is numerically stable for the
// small, possibly collinear matrices this service sees. There is no
// randomness anywhere: identical inputs produce bit-identical models.
//
// # Thread Safety
//
// Fit and Predict share no state; a Model is read-only after Fit returns.
package ridge

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Alphas is the fixed candidate grid for the regularization strength.
var Alphas = []float64{0.1, 0.3, 1.0, 3.0, 10.0}

// FallbackAlpha is used when cross-validation is infeasible or fails.
const FallbackAlpha = 1.0

// maxFolds caps the number of cross-validation folds.
const maxFolds = 5

// ErrDegenerate reports an observed design matrix the solver cannot
// resolve at any candidate strength. It is always surfaced, never papered
// over with zero coefficients.
var ErrDegenerate = errors.New("ridge: degenerate design matrix")

// Model is a fitted ridge regression: coefficients over the standardized
// features, an unpenalized intercept, and the strength that produced them.
// A Model lives for one request only and is never persisted.
type Model struct {
	Coef      []float64
	Intercept float64
	Alpha     float64
}

// Fit selects a strength from Alphas by cross-validation and fits the
// ridge system on the full observed set.
//
// # Description
//
// Cross-validation uses contiguous folds (k = min(5, rows)), no shuffling
// and no seeds, minimizing mean held-out squared error. When the observed
// set is too small to form two folds, or every candidate fails on the fold
// splits, the selection falls back to FallbackAlpha; the fallback is logged
// explicitly rather than applied silently.
//
// # Inputs
//
//   - phi: standardized observed design matrix (n×p).
//   - y: observed targets, length n.
//
// # Outputs
//
//   - *Model: fitted coefficients, intercept, and chosen strength.
//   - error: ErrDegenerate (wrapped) when the final solve fails or yields
//     non-finite coefficients.
func Fit(phi *mat.Dense, y []float64) (*Model, error) {
	rows, _ := phi.Dims()
	if rows != len(y) {
		return nil, fmt.Errorf("ridge: %d rows but %d targets", rows, len(y))
	}

	alpha, ok := selectAlpha(phi, y)
	if !ok {
		slog.Warn("ridge cross-validation unavailable, falling back to fixed strength",
			"alpha", FallbackAlpha, "rows", rows)
		alpha = FallbackAlpha
	}

	m, err := fitAlpha(phi, y, alpha)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Predict applies the fitted coefficients to a standardized query matrix.
// Pure: the model is not modified and no state is kept.
func (m *Model) Predict(phi *mat.Dense) []float64 {
	rows, cols := phi.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		v := m.Intercept
		for j := 0; j < cols && j < len(m.Coef); j++ {
			v += m.Coef[j] * phi.At(i, j)
		}
		out[i] = v
	}
	return out
}

// selectAlpha runs deterministic k-fold cross-validation over the candidate
// grid. Returns false when no candidate could be scored.
func selectAlpha(phi *mat.Dense, y []float64) (float64, bool) {
	rows, _ := phi.Dims()
	folds := maxFolds
	if rows < folds {
		folds = rows
	}
	if folds < 2 {
		return 0, false
	}

	bestAlpha := 0.0
	bestScore := math.Inf(1)
	scored := false

	for _, alpha := range Alphas {
		score, err := crossValidate(phi, y, alpha, folds)
		if err != nil {
			continue
		}
		if score < bestScore {
			bestScore = score
			bestAlpha = alpha
			scored = true
		}
	}
	return bestAlpha, scored
}

// crossValidate scores one candidate strength as the mean squared held-out
// error over contiguous folds.
func crossValidate(phi *mat.Dense, y []float64, alpha float64, folds int) (float64, error) {
	rows, cols := phi.Dims()

	var sse float64
	var held int
	for f := 0; f < folds; f++ {
		lo := f * rows / folds
		hi := (f + 1) * rows / folds
		if lo == hi {
			continue
		}

		trainRows := rows - (hi - lo)
		train := mat.NewDense(trainRows, cols, nil)
		trainY := make([]float64, 0, trainRows)
		r := 0
		for i := 0; i < rows; i++ {
			if i >= lo && i < hi {
				continue
			}
			for j := 0; j < cols; j++ {
				train.Set(r, j, phi.At(i, j))
			}
			trainY = append(trainY, y[i])
			r++
		}

		m, err := fitAlpha(train, trainY, alpha)
		if err != nil {
			return 0, err
		}

		for i := lo; i < hi; i++ {
			pred := m.Intercept
			for j := 0; j < cols; j++ {
				pred += m.Coef[j] * phi.At(i, j)
			}
			d := pred - y[i]
			sse += d * d
			held++
		}
	}
	if held == 0 {
		return 0, fmt.Errorf("ridge: no held-out rows across %d folds", folds)
	}
	return sse / float64(held), nil
}

// fitAlpha solves one ridge system with an unpenalized intercept.
//
// The data is centered, the coefficients come from a QR solve of the
// √alpha-augmented system [Xc; √alpha·I] w = [yc; 0], and the intercept is
// recovered from the column means. The augmentation keeps the factorization
// full rank for alpha > 0; a solve failure or non-finite coefficients mean
// the matrix is degenerate beyond what the regularization can absorb.
func fitAlpha(phi *mat.Dense, y []float64, alpha float64) (*Model, error) {
	rows, cols := phi.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: %dx%d observed matrix", ErrDegenerate, rows, cols)
	}

	colMean := make([]float64, cols)
	for j := 0; j < cols; j++ {
		var sum float64
		for i := 0; i < rows; i++ {
			sum += phi.At(i, j)
		}
		colMean[j] = sum / float64(rows)
	}
	var yMean float64
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(rows)

	sqrtAlpha := math.Sqrt(alpha)
	aug := mat.NewDense(rows+cols, cols, nil)
	b := mat.NewDense(rows+cols, 1, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			aug.Set(i, j, phi.At(i, j)-colMean[j])
		}
		b.Set(i, 0, y[i]-yMean)
	}
	for j := 0; j < cols; j++ {
		aug.Set(rows+j, j, sqrtAlpha)
	}

	var qr mat.QR
	qr.Factorize(aug)

	coef := mat.NewDense(cols, 1, nil)
	if err := qr.SolveTo(coef, false, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerate, err)
	}

	m := &Model{
		Coef:  make([]float64, cols),
		Alpha: alpha,
	}
	intercept := yMean
	for j := 0; j < cols; j++ {
		w := coef.At(j, 0)
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: non-finite coefficient at column %d", ErrDegenerate, j)
		}
		m.Coef[j] = w
		intercept -= w * colMean[j]
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return nil, fmt.Errorf("%w: non-finite intercept", ErrDegenerate)
	}
	m.Intercept = intercept
	return m, nil
}
