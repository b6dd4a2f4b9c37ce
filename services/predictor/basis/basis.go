// Copyright (C) 2025 Fathom ML (oss@fathomml.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package basis builds standardized design matrices from raw inputs under a
// feature recipe.
//
// # Description
//
// Build expands the raw matrix according to the recipe (identity, polynomial
// cross-terms, or a Fourier expansion of one column), standardizes every
// output column to zero mean / unit variance, and returns the fitted Scaler.
// Apply performs the same expansion on new data and reuses the fitted
// statistics verbatim, which keeps observed and query features in the same
// coordinate system. The query side never computes its own statistics.
//
// # Thread Safety
//
// Build and Apply allocate fresh outputs; a Scaler is read-only after Build
// returns and safe to share within a request.
package basis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/FathomML/FathomServe/services/predictor/hints"
)

// ErrDimOutOfRange reports a periodic recipe whose selected dimension
// exceeds the available input columns.
var ErrDimOutOfRange = errors.New("basis: periodic dimension exceeds input columns")

// ErrColumnMismatch reports an Apply call whose expanded width does not
// match the fitted scaler. Guarded against defensively; with a shared
// recipe and equal input widths it cannot happen.
var ErrColumnMismatch = errors.New("basis: expanded columns do not match fitted scaler")

// Scaler holds per-column standardization statistics fixed at fit time.
//
// A Scaler is produced by one request's Build call on the observed set and
// applied unchanged to that request's query set. It is never shared or
// reused across requests.
type Scaler struct {
	// Mean is the per-column mean of the fitted expansion.
	Mean []float64

	// Scale is the per-column standard deviation of the fitted expansion.
	// Columns with zero observed variance carry scale 1 so standardization
	// is the identity there instead of a division by zero; that is a policy
	// choice, not an accident.
	Scale []float64
}

// Build expands X under the recipe, fits standardization statistics on the
// expansion, and returns the standardized matrix together with the fitted
// Scaler.
//
// # Inputs
//
//   - x: raw input matrix, one observation per row.
//   - recipe: feature recipe from hints.Parse.
//
// # Outputs
//
//   - *mat.Dense: standardized design matrix (rows preserved).
//   - *Scaler: fitted per-column statistics for apply-only calls.
//   - error: ErrDimOutOfRange when a periodic recipe selects a missing
//     column.
func Build(x *mat.Dense, recipe hints.Recipe) (*mat.Dense, *Scaler, error) {
	phi, err := expand(x, recipe)
	if err != nil {
		return nil, nil, err
	}

	rows, cols := phi.Dims()
	s := &Scaler{
		Mean:  make([]float64, cols),
		Scale: make([]float64, cols),
	}
	for j := 0; j < cols; j++ {
		var sum float64
		for i := 0; i < rows; i++ {
			sum += phi.At(i, j)
		}
		mean := sum / float64(rows)

		var ss float64
		for i := 0; i < rows; i++ {
			d := phi.At(i, j) - mean
			ss += d * d
		}
		// Population standard deviation, fixed at fit time.
		scale := math.Sqrt(ss / float64(rows))
		if scale == 0 {
			scale = 1
		}

		s.Mean[j] = mean
		s.Scale[j] = scale
	}

	standardize(phi, s)
	return phi, s, nil
}

// Apply expands X under the recipe and standardizes it with the already
// fitted statistics. The statistics are applied verbatim, never refit, so
// applying a Scaler to the exact data it was fit on reproduces the Build
// output.
//
// # Outputs
//
//   - *mat.Dense: standardized design matrix in the fitted coordinates.
//   - error: ErrDimOutOfRange or ErrColumnMismatch.
func (s *Scaler) Apply(x *mat.Dense, recipe hints.Recipe) (*mat.Dense, error) {
	phi, err := expand(x, recipe)
	if err != nil {
		return nil, err
	}
	if _, cols := phi.Dims(); cols != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d columns, scaler fitted on %d",
			ErrColumnMismatch, cols, len(s.Mean))
	}
	standardize(phi, s)
	return phi, nil
}

// standardize rescales phi in place to the scaler's coordinates.
func standardize(phi *mat.Dense, s *Scaler) {
	rows, cols := phi.Dims()
	for j := 0; j < cols; j++ {
		mean, scale := s.Mean[j], s.Scale[j]
		for i := 0; i < rows; i++ {
			phi.Set(i, j, (phi.At(i, j)-mean)/scale)
		}
	}
}

// expand maps the raw matrix to its feature expansion for the recipe.
func expand(x *mat.Dense, recipe hints.Recipe) (*mat.Dense, error) {
	switch r := recipe.(type) {
	case hints.Linear:
		return mat.DenseCopyOf(x), nil
	case hints.Polynomial:
		return expandPolynomial(x, r.Degree), nil
	case hints.Periodic:
		return expandPeriodic(x, r.Dim, r.Harmonics)
	default:
		// The Recipe interface is sealed; an unknown variant is a
		// programming error in this package.
		return nil, fmt.Errorf("basis: unsupported recipe kind %q", recipe.Kind())
	}
}

// expandPolynomial produces the full polynomial expansion of all columns up
// to the given total degree, bias term excluded. Columns are ordered by
// total degree, then lexicographically by the multiset of source columns
// (x1, x2, x1², x1·x2, x2², ...), so the layout is deterministic.
func expandPolynomial(x *mat.Dense, degree int) *mat.Dense {
	rows, cols := x.Dims()
	combos := polynomialTerms(cols, degree)

	phi := mat.NewDense(rows, len(combos), nil)
	for i := 0; i < rows; i++ {
		for j, term := range combos {
			v := 1.0
			for _, c := range term {
				v *= x.At(i, c)
			}
			phi.Set(i, j, v)
		}
	}
	return phi
}

// polynomialTerms enumerates, for each total degree 1..degree, every
// multiset of column indices of that size in lexicographic order.
func polynomialTerms(cols, degree int) [][]int {
	var terms [][]int
	for deg := 1; deg <= degree; deg++ {
		terms = appendCombinations(terms, nil, 0, cols, deg)
	}
	return terms
}

func appendCombinations(terms [][]int, prefix []int, start, cols, remaining int) [][]int {
	if remaining == 0 {
		term := make([]int, len(prefix))
		copy(term, prefix)
		return append(terms, term)
	}
	for c := start; c < cols; c++ {
		terms = appendCombinations(terms, append(prefix, c), c, cols, remaining-1)
	}
	return terms
}

// expandPeriodic concatenates the raw columns with a Fourier expansion of
// the selected 1-based dimension: [X | v, sin(h·v), cos(h·v)] for
// h = 1..harmonics.
func expandPeriodic(x *mat.Dense, dim, harmonics int) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if dim < 1 || dim > cols {
		return nil, fmt.Errorf("%w: dim %d, input has %d columns", ErrDimOutOfRange, dim, cols)
	}
	j := dim - 1

	out := mat.NewDense(rows, cols+1+2*harmonics, nil)
	for i := 0; i < rows; i++ {
		for c := 0; c < cols; c++ {
			out.Set(i, c, x.At(i, c))
		}
		v := x.At(i, j)
		out.Set(i, cols, v)
		for h := 1; h <= harmonics; h++ {
			out.Set(i, cols+2*h-1, math.Sin(float64(h)*v))
			out.Set(i, cols+2*h, math.Cos(float64(h)*v))
		}
	}
	return out, nil
}
