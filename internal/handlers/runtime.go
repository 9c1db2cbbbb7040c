package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/openchat-bot/internal/actions"
	"github.com/memohai/openchat-bot/internal/agent"
	"github.com/memohai/openchat-bot/internal/auth"
	"github.com/memohai/openchat-bot/internal/installation"
	"github.com/memohai/openchat-bot/internal/providers"
)

// RuntimeHandler exposes the actions and providers to an external agent
// runtime under /runtime. Routes require a bearer token.
type RuntimeHandler struct {
	actions   *actions.Set
	providers *providers.Service
	runtime   *agent.Runtime
	logger    *slog.Logger
}

// RunActionRequest is the body of POST /runtime/actions/:name.
type RunActionRequest struct {
	RoomID      string             `json:"roomId"`
	Text        string             `json:"text"`
	MessageID   string             `json:"messageId"`
	InReplyTo   string             `json:"inReplyTo"`
	Attachments []agent.Attachment `json:"attachments"`
	Options     json.RawMessage    `json:"options"`
}

// ActionResponse is the result of an action run.
type ActionResponse struct {
	Action string         `json:"action"`
	Result actions.Result `json:"result"`
	Error  string         `json:"error,omitempty"`
}

// ActionListResponse lists the available actions.
type ActionListResponse struct {
	Items     []actions.Descriptor `json:"items"`
	Available bool                 `json:"available"`
}

// ProviderListResponse lists the available providers.
type ProviderListResponse struct {
	Items []providers.Descriptor `json:"items"`
}

// NewRuntimeHandler creates the runtime API handler.
func NewRuntimeHandler(log *slog.Logger, actionSet *actions.Set, providerService *providers.Service, runtime *agent.Runtime) *RuntimeHandler {
	return &RuntimeHandler{
		actions:   actionSet,
		providers: providerService,
		runtime:   runtime,
		logger:    log.With(slog.String("handler", "runtime")),
	}
}

// Register mounts the /runtime routes.
func (h *RuntimeHandler) Register(e *echo.Echo) {
	g := e.Group("/runtime")
	g.GET("/actions", h.ListActions)
	g.POST("/actions/:name", h.RunAction)
	g.GET("/providers", h.ListProviders)
	g.GET("/providers/:name", h.GetProvider)
}

// ListActions returns every action and whether actions can currently run.
func (h *RuntimeHandler) ListActions(c echo.Context) error {
	return c.JSON(http.StatusOK, ActionListResponse{
		Items:     h.actions.List(),
		Available: h.actions.Validate(),
	})
}

// RunAction executes the named action.
func (h *RuntimeHandler) RunAction(c echo.Context) error {
	caller, err := auth.SubjectFromContext(c)
	if err != nil {
		return err
	}
	var req RunActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	}

	mem := h.runtime.NewMemory(req.RoomID, caller, req.Text)
	mem.MessageID = req.MessageID
	mem.Content.InReplyTo = req.InReplyTo
	mem.Content.Attachments = req.Attachments

	name := c.Param("name")
	res, err := h.actions.Run(c.Request().Context(), name, actions.Request{Message: mem, Options: req.Options})
	if err != nil {
		status := actionStatus(err)
		if status == http.StatusBadGateway {
			return c.JSON(status, ActionResponse{Action: name, Result: res, Error: err.Error()})
		}
		return c.JSON(status, ErrorResponse{Message: err.Error()})
	}
	h.logger.Info("action executed", slog.String("action", name), slog.String("caller", caller))
	return c.JSON(http.StatusOK, ActionResponse{Action: name, Result: res})
}

func actionStatus(err error) int {
	switch {
	case errors.Is(err, actions.ErrUnknownAction):
		return http.StatusNotFound
	case errors.Is(err, actions.ErrMissingInput):
		return http.StatusBadRequest
	case errors.Is(err, actions.ErrNoInstallations), errors.Is(err, installation.ErrUnresolved):
		return http.StatusConflict
	case errors.Is(err, installation.ErrNotInstalled):
		return http.StatusUnprocessableEntity
	case errors.Is(err, actions.ErrPlatform):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ListProviders returns every provider.
func (h *RuntimeHandler) ListProviders(c echo.Context) error {
	return c.JSON(http.StatusOK, ProviderListResponse{Items: h.providers.List()})
}

// GetProvider runs the named provider for the room given in ?roomId=.
func (h *RuntimeHandler) GetProvider(c echo.Context) error {
	caller, err := auth.SubjectFromContext(c)
	if err != nil {
		return err
	}
	mem := h.runtime.NewMemory(c.QueryParam("roomId"), caller, "")
	res, err := h.providers.Get(c.Request().Context(), c.Param("name"), mem)
	if err != nil {
		if errors.Is(err, providers.ErrUnknownProvider) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, res)
}
