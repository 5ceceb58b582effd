package main

import (
	"context"
	"net/http"

	"workspace-platform/internal/httpapi"
	"workspace-platform/pkg/metrics"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	handlers     httpapi.Handlers
	authMW       gin.HandlerFunc
	loginLimiter *httpapi.IPLimiter
	metrics      *metrics.Metrics
	ready        func(ctx context.Context) error
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if err := d.ready(c.Request.Context()); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(d.metrics.Handler()))

	d.handlers.Register(r, d.authMW, d.loginLimiter)
}
