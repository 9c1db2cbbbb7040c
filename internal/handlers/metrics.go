package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/memohai/openchat-bot/internal/metrics"
)

// MetricsHandler serves the Prometheus exposition at GET /metrics.
type MetricsHandler struct{}

// NewMetricsHandler creates the metrics endpoint.
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// Register mounts GET /metrics.
func (h *MetricsHandler) Register(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}
