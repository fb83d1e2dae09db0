/*
Package monitoring provides Prometheus-based metrics collection.

# Overview

Tracks HTTP requests, browser session lifecycle, frame throughput, input
dispatch, and WebSocket connection metrics.

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record custom metrics
	metrics.SetSessionsActive(3)
	metrics.IncFramesForwarded()

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
