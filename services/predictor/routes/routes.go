// Copyright (C) 2025 Fathom ML (oss@fathomml.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package routes wires the predictor's HTTP surface.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FathomML/FathomServe/services/predictor/handlers"
	"github.com/FathomML/FathomServe/services/predictor/observability"
)

// SetupRoutes registers every endpoint on the router.
//
// metrics may be nil, in which case /metrics is not registered. uiDir may
// be empty, in which case the static UI is not served.
func SetupRoutes(router *gin.Engine, p handlers.Predictor, metrics *observability.PredictMetrics, serviceName, uiDir string) {
	router.GET("/health", handlers.HandleHealth(serviceName))

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if uiDir != "" {
		router.StaticFS("/ui", http.Dir(uiDir))
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/ui/index.html")
		})
	}

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/predict", handlers.HandlePredict(p, metrics))
	}
}
