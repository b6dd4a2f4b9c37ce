// Copyright (C) 2025 Fathom ML (oss@fathomml.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pipeline orchestrates one stateless prediction: validation, hint
// parsing, basis construction, bounded model fitting, and prediction.
//
// Every failure maps to exactly one of three caller-visible categories.
// ValidationError means the payload is wrong and the caller can fix it.
// ComputationError means the payload was well-formed but the numeric work
// failed. TimeoutError means the wall-clock budget elapsed first. The
// categories are mutually exclusive per request.
package pipeline

import (
	"fmt"
	"time"
)

// ValidationError reports a caller-fixable defect in the request payload.
// The field name and reason are safe to return to the caller verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ComputationError reports a numeric failure on a well-formed payload:
// a degenerate design matrix, a panic inside the solver, or a recipe that
// cannot apply to the given dimensionality.
type ComputationError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ComputationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("computation failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("computation failed: %s", e.Message)
}

// Unwrap exposes the underlying cause for errors.Is checks.
func (e *ComputationError) Unwrap() error {
	return e.Err
}

// TimeoutError reports that the wall-clock budget elapsed before the
// request finished. Distinct from ComputationError: the work did not fail,
// it was cut off.
type TimeoutError struct {
	Budget time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request exceeded the %s time budget", e.Budget)
}
