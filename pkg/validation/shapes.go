// Copyright (C) 2025 Fathom ML (oss@fathomml.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation for numeric request payloads.
//
// This package checks user-declared dimensions against the actual shapes of
// the supplied matrices and rejects non-finite values before any numeric
// work runs. Failures carry the offending field name so the transport layer
// can produce caller-fixable error messages.
package validation

import (
	"fmt"
	"math"
)

// Error reports a single payload defect: which field is wrong and why.
type Error struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CheckDims validates the declared dimensions themselves.
func CheckDims(n, k, d int) error {
	switch {
	case n < 1:
		return &Error{Field: "n", Reason: fmt.Sprintf("must be at least 1, got %d", n)}
	case k < 1:
		return &Error{Field: "k", Reason: fmt.Sprintf("must be at least 1, got %d", k)}
	case d < 1:
		return &Error{Field: "d", Reason: fmt.Sprintf("must be at least 1, got %d", d)}
	}
	return nil
}

// CheckMatrix validates that m has exactly rows×cols entries. Ragged rows
// count as a shape mismatch, not a separate failure mode.
func CheckMatrix(field string, m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return &Error{
			Field:  field,
			Reason: fmt.Sprintf("shape (%d, ...) does not match expected (%d, %d)", len(m), rows, cols),
		}
	}
	for i, row := range m {
		if len(row) != cols {
			return &Error{
				Field:  field,
				Reason: fmt.Sprintf("row %d has %d columns, expected %d", i, len(row), cols),
			}
		}
	}
	return nil
}

// CheckVector validates that v has exactly n entries.
func CheckVector(field string, v []float64, n int) error {
	if len(v) != n {
		return &Error{
			Field:  field,
			Reason: fmt.Sprintf("length %d does not match expected %d", len(v), n),
		}
	}
	return nil
}

// CheckFiniteMatrix rejects NaN and infinite entries. Running this before
// the model path guarantees every successful prediction is a finite real
// number.
func CheckFiniteMatrix(field string, m [][]float64) error {
	for i, row := range m {
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &Error{
					Field:  field,
					Reason: fmt.Sprintf("non-finite value at (%d, %d)", i, j),
				}
			}
		}
	}
	return nil
}

// CheckFiniteVector rejects NaN and infinite entries.
func CheckFiniteVector(field string, v []float64) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return &Error{
				Field:  field,
				Reason: fmt.Sprintf("non-finite value at index %d", i),
			}
		}
	}
	return nil
}

// CheckPayload runs every check for one prediction request: declared
// dimensions, shape agreement for the observed matrix, target vector and
// query matrix, then finiteness of all three. The first defect wins.
func CheckPayload(n, k, d int, xObserved [][]float64, yObserved []float64, xPredict [][]float64) error {
	if err := CheckDims(n, k, d); err != nil {
		return err
	}
	if err := CheckMatrix("x_observed", xObserved, n, d); err != nil {
		return err
	}
	if err := CheckVector("y_observed", yObserved, n); err != nil {
		return err
	}
	if err := CheckMatrix("x_predict", xPredict, k, d); err != nil {
		return err
	}
	if err := CheckFiniteMatrix("x_observed", xObserved); err != nil {
		return err
	}
	if err := CheckFiniteVector("y_observed", yObserved); err != nil {
		return err
	}
	return CheckFiniteMatrix("x_predict", xPredict)
}
