package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/openchat-bot/internal/installation"
	"github.com/memohai/openchat-bot/internal/version"
)

// PingHandler serves /ping and HEAD /health for liveness.
type PingHandler struct {
	registry *installation.Registry
	logger   *slog.Logger
}

// PingResponse is the body of GET /ping.
type PingResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Installations int    `json:"installations"`
}

// NewPingHandler creates a ping handler.
func NewPingHandler(log *slog.Logger, registry *installation.Registry) *PingHandler {
	return &PingHandler{
		registry: registry,
		logger:   log.With(slog.String("handler", "ping")),
	}
}

// Register mounts GET /ping and HEAD /health on the Echo instance.
func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.HEAD("/health", h.PingHead)
}

// Ping returns 200 with the version and installation count.
func (h *PingHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, PingResponse{
		Status:        "ok",
		Version:       version.GetInfo(),
		Installations: h.registry.Len(),
	})
}

// PingHead returns 200 No Content for health checks.
func (h *PingHandler) PingHead(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}
