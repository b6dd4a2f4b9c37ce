// Copyright (C) 2025 Fathom ML (oss@fathomml.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FathomML/FathomServe/services/predictor/datatypes"
)

// HandleHealth handles GET /health. The service is stateless, so liveness
// is the only thing worth reporting.
func HandleHealth(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, datatypes.HealthResponse{
			Status:  "ok",
			Service: serviceName,
		})
	}
}
