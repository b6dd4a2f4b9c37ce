// Copyright (C) 2025 Fathom ML (oss@fathomml.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command predictor starts the FathomServe prediction API server.
//
// The server is stateless: every POST /v1/predict request carries its own
// observed data and query points, gets a model fitted on the spot, and
// receives predictions or a categorized error. Nothing persists between
// requests.
//
// Usage:
//
//	go run ./cmd/predictor
//
// Configuration is via environment variables:
//
//	PREDICTOR_PORT     HTTP port (default 12230)
//	PREDICT_TIMEOUT    wall-clock budget per request in seconds (default 90)
//	PREDICT_MAX_CONCURRENT  solver concurrency cap (default: CPU count)
//	PREDICTOR_UI_DIR   static UI directory; empty disables the UI
//	PREDICTOR_ALLOW_ORIGINS comma-separated CORS allowlist; empty allows all
//	OTEL_EXPORTER_OTLP_ENDPOINT  trace collector (default fathom-otel-collector:4317)
//	PREDICTOR_DISABLE_TRACING    set to "true" to skip OTLP setup
//	GIN_MODE           gin framework mode
//
// Example requests:
//
//	# Health check
//	curl http://localhost:12230/health
//
//	# Fit and predict in one shot
//	curl -X POST http://localhost:12230/v1/predict \
//	  -H "Content-Type: application/json" \
//	  -d '{"x_observed": [[1],[2],[3]], "y_observed": [2,4,6],
//	       "x_predict": [[4]], "t": "linear", "n": 3, "k": 1, "d": 1}'
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/FathomML/FathomServe/services/predictor"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	budgetSeconds := getEnvFloat("PREDICT_TIMEOUT", 90.0)

	cfg := predictor.Config{
		Port:          getEnvInt("PREDICTOR_PORT", 12230),
		Budget:        time.Duration(budgetSeconds * float64(time.Second)),
		MaxConcurrent: int64(getEnvInt("PREDICT_MAX_CONCURRENT", 0)),
		OTelEndpoint:  getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		EnableMetrics: true,
		EnableTracing: getEnvString("PREDICTOR_DISABLE_TRACING", "") != "true",
		GinMode:       getEnvString("GIN_MODE", ""),
		UIDir:         getEnvString("PREDICTOR_UI_DIR", ""),
	}
	if origins := getEnvString("PREDICTOR_ALLOW_ORIGINS", ""); origins != "" {
		cfg.AllowOrigins = strings.Split(origins, ",")
	}

	svc, err := predictor.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize the predictor service: %v", err)
	}

	if err := svc.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// getEnvString reads a string environment variable with a default.
func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt reads an integer environment variable with a default.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Ignoring non-integer environment value", "key", key, "value", v)
		return fallback
	}
	return n
}

// getEnvFloat reads a float environment variable with a default.
func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("Ignoring non-numeric environment value", "key", key, "value", v)
		return fallback
	}
	return f
}
