// Copyright (C) 2025 Fathom ML (oss@fathomml.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the predictor service.
//
// This package contains middleware for request identification and
// cross-origin access. Both are transport-level concerns; nothing in here
// touches the prediction pipeline.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestIDKey is the gin context key for the request ID.
const requestIDKey = "fathom_request_id"

// RequestID assigns every request an ID for log correlation.
//
// # Description
//
// An inbound X-Request-ID header is honored so callers can trace a request
// across systems; otherwise a fresh UUID is generated. The ID is echoed on
// the response and stored in the gin context for handlers.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// GetRequestID retrieves the request ID assigned by RequestID.
// Returns the empty string when the middleware did not run.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
