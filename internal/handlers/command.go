package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/openchat-bot/internal/command"
	"github.com/memohai/openchat-bot/internal/metrics"
	"github.com/memohai/openchat-bot/internal/openchat"
	"github.com/memohai/openchat-bot/internal/ratelimit"
)

// CommandHandler serves POST /execute_command.
type CommandHandler struct {
	factory    openchat.Factory
	dispatcher *command.Dispatcher
	limiter    *ratelimit.Limiter
	logger     *slog.Logger
}

// NewCommandHandler creates the command endpoint. A nil limiter disables throttling.
func NewCommandHandler(log *slog.Logger, factory openchat.Factory, dispatcher *command.Dispatcher, limiter *ratelimit.Limiter) *CommandHandler {
	return &CommandHandler{
		factory:    factory,
		dispatcher: dispatcher,
		limiter:    limiter,
		logger:     log.With(slog.String("handler", "command")),
	}
}

// Register mounts POST /execute_command.
func (h *CommandHandler) Register(e *echo.Echo) {
	e.POST("/execute_command", h.Execute)
}

// Execute verifies the command token carried in the text body, runs the
// command and writes its reply. Follow-up work starts after the reply is flushed.
func (h *CommandHandler) Execute(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRequestBodyBytes))
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	cmd, client, err := h.factory.FromCommandToken(string(body))
	if err != nil {
		if errors.Is(err, openchat.ErrInvalidCommandToken) {
			h.logger.Info("rejected command token", slog.Any("error", err))
			return c.JSON(http.StatusBadRequest, command.BadRequest{BadRequest: command.CodeAccessTokenInvalid})
		}
		h.logger.Error("command client setup failed", slog.Any("error", err))
		return c.String(http.StatusInternalServerError, TextInternalError)
	}

	if !h.limiter.Allow(cmd.Initiator) {
		metrics.RateLimited.Inc()
		h.logger.Warn("command rate limited",
			slog.String("command", cmd.Name),
			slog.String("initiator", cmd.Initiator),
		)
		return c.String(http.StatusTooManyRequests, TextTooManyRequests)
	}

	ctx := c.Request().Context()
	exec, err := h.dispatcher.Execute(ctx, cmd, client)
	if err != nil {
		h.logger.Error("command failed", slog.String("command", cmd.Name), slog.Any("error", err))
		return c.String(http.StatusInternalServerError, TextInternalError)
	}

	if err := c.JSON(exec.Reply.Status, exec.Reply.Body); err != nil {
		return err
	}
	c.Response().Flush()
	h.dispatcher.Go(ctx, exec.Background)
	return nil
}
