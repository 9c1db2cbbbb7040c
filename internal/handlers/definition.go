package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/openchat-bot/internal/command"
)

// DefinitionHandler serves the bot capability manifest.
type DefinitionHandler struct {
	definition command.BotDefinition
}

// NewDefinitionHandler creates the manifest endpoint.
func NewDefinitionHandler(definition command.BotDefinition) *DefinitionHandler {
	return &DefinitionHandler{definition: definition}
}

// Register mounts GET /bot_definition and its alias GET /.
func (h *DefinitionHandler) Register(e *echo.Echo) {
	e.GET("/bot_definition", h.Definition)
	e.GET("/", h.Definition)
}

// Definition returns the bot definition JSON.
func (h *DefinitionHandler) Definition(c echo.Context) error {
	return c.JSON(http.StatusOK, h.definition)
}
