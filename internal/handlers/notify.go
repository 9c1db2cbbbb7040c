package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/openchat-bot/internal/notify"
)

// NotifyHandler serves POST /notify.
type NotifyHandler struct {
	dispatcher *notify.Dispatcher
	logger     *slog.Logger
}

// NewNotifyHandler creates the notification endpoint.
func NewNotifyHandler(log *slog.Logger, dispatcher *notify.Dispatcher) *NotifyHandler {
	return &NotifyHandler{
		dispatcher: dispatcher,
		logger:     log.With(slog.String("handler", "notify")),
	}
}

// Register mounts POST /notify.
func (h *NotifyHandler) Register(e *echo.Echo) {
	e.POST("/notify", h.Notify)
}

// Notify accepts a MessagePack or JSON event payload.
func (h *NotifyHandler) Notify(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRequestBodyBytes))
	if err != nil {
		return c.String(http.StatusBadRequest, TextInvalidPayload)
	}
	if err := h.dispatcher.Handle(c.Request().Context(), body); err != nil {
		if errors.Is(err, notify.ErrInvalidPayload) {
			h.logger.Warn("invalid notification payload", slog.Int("bytes", len(body)))
			return c.String(http.StatusBadRequest, TextInvalidPayload)
		}
		h.logger.Error("notification failed", slog.Any("error", err))
		return c.String(http.StatusInternalServerError, TextInternalError)
	}
	return c.String(http.StatusOK, TextOK)
}
