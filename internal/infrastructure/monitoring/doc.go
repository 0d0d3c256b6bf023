/*
Package monitoring provides metrics collection for the relay.

# Overview

This package implements Prometheus-based metrics for the web-command
relay: HTTP requests, connected clients, broadcast volume, replay buffer
occupancy and the supervised process lifecycle.

Each Metrics value owns its own registry, exposed through Handler.
All recording methods are safe to call on a nil *Metrics.

# Usage

	metrics := monitoring.NewMetrics()

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.ClientJoined()
	metrics.RecordBroadcast(len(chunk), buffer.Len())
*/
package monitoring
