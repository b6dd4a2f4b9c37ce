// Copyright (C) 2025 Fathom ML (oss@fathomml.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides request and response structures for the
// predictor service.
//
// This file contains the prediction request body and its JSON response
// envelopes. The envelope shape is stable: success responses always carry
// "status" and "predictions", error responses always carry "status" and
// "message".
package datatypes

import (
	"github.com/go-playground/validator/v10"
)

// predictValidate is the validator instance for predictor datatypes.
var predictValidate *validator.Validate

func init() {
	predictValidate = validator.New()
}

// PredictRequest represents one stateless prediction request body.
//
// # Description
//
// PredictRequest carries the observed data, the query points, the free-text
// hint, and the caller-declared dimensions. The declared n, k, d are
// authoritative: the service cross-checks them against the actual array
// shapes and rejects any disagreement rather than inferring dimensions from
// the data. This is used for the POST /v1/predict endpoint.
//
// # Fields
//
//   - XObserved: Required. Observed inputs, n rows of d columns.
//   - YObserved: Required. Observed targets, length n.
//   - XPredict: Required. Query inputs, k rows of d columns.
//   - Hint: Optional. Free-text description of the suspected relationship
//     ("quadratic growth in x2", "periodic with three peaks", ...). An empty
//     or unrecognized hint yields the plain linear model.
//   - N: Required. Declared number of observed rows, >= 1.
//   - K: Required. Declared number of query rows, >= 1.
//   - D: Required. Declared input dimensionality, >= 1.
//
// # Validation
//
// Tag validation covers presence and the >= 1 dimension bounds. Shape
// agreement between the declared dimensions and the arrays, and the
// finiteness of every value, are checked separately by the pipeline via
// pkg/validation.
type PredictRequest struct {
	XObserved [][]float64 `json:"x_observed" validate:"required,min=1"`
	YObserved []float64   `json:"y_observed" validate:"required,min=1"`
	XPredict  [][]float64 `json:"x_predict" validate:"required,min=1"`
	Hint      string      `json:"t"`
	N         int         `json:"n" validate:"required,gte=1"`
	K         int         `json:"k" validate:"required,gte=1"`
	D         int         `json:"d" validate:"required,gte=1"`
}

// Validate validates the PredictRequest fields using the struct tags.
// This method should be called after binding the JSON request.
func (r *PredictRequest) Validate() error {
	return predictValidate.Struct(r)
}

// PredictResponse is the success envelope for a prediction request.
// Predictions has exactly k entries, ordered to match XPredict rows, and
// every entry is a finite real number.
type PredictResponse struct {
	Status      string    `json:"status"`
	Predictions []float64 `json:"predictions"`
}

// ErrorResponse is the error envelope shared by all failure outcomes.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// NewPredictResponse wraps predictions in the success envelope.
func NewPredictResponse(predictions []float64) PredictResponse {
	return PredictResponse{Status: "success", Predictions: predictions}
}

// NewErrorResponse wraps a caller-facing message in the error envelope.
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Status: "error", Message: message}
}
