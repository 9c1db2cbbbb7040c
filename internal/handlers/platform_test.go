package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/openchat-bot/internal/agent"
	"github.com/memohai/openchat-bot/internal/command"
	"github.com/memohai/openchat-bot/internal/config"
	"github.com/memohai/openchat-bot/internal/installation"
	"github.com/memohai/openchat-bot/internal/logger"
	"github.com/memohai/openchat-bot/internal/moderation"
	"github.com/memohai/openchat-bot/internal/notify"
	"github.com/memohai/openchat-bot/internal/openchat"
	"github.com/memohai/openchat-bot/internal/openchat/openchattest"
	"github.com/memohai/openchat-bot/internal/ratelimit"
)

var group42 = openchat.Scope{Kind: openchat.KindGroup, ChatID: "42"}

var eliza = agent.Character{Name: "Eliza", Bio: agent.StringList{"A helper."}}

type platform struct {
	echo       *echo.Echo
	registry   *installation.Registry
	factory    *openchattest.Factory
	dispatcher *command.Dispatcher
}

func newPlatform(t *testing.T, limiter *ratelimit.Limiter) platform {
	t.Helper()
	log := logger.Discard()
	reg := installation.NewRegistry(log)
	factory := openchattest.NewFactory()
	runtime := agent.NewRuntime(log, eliza, nil)
	definition := command.NewBotDefinition(eliza)
	validator, err := command.NewValidator(definition)
	require.NoError(t, err)
	policy := moderation.NewPolicy(config.ModerationConfig{Action: config.ModerationWarn})
	dispatcher := command.NewDispatcher(log, runtime, policy, validator)
	enforcer := moderation.NewEnforcer(log, policy, installation.NewResolver(log, reg), factory)
	notifications := notify.NewDispatcher(log, notify.Deps{
		Registry: reg,
		Factory:  factory,
		Runtime:  runtime,
		Enforcer: enforcer,
	})

	e := echo.New()
	for _, h := range []interface{ Register(*echo.Echo) }{
		NewPingHandler(log, reg),
		NewDefinitionHandler(definition),
		NewCommandHandler(log, factory, dispatcher, limiter),
		NewNotifyHandler(log, notifications),
		NewMetricsHandler(),
	} {
		h.Register(e)
	}
	return platform{echo: e, registry: reg, factory: factory, dispatcher: dispatcher}
}

func (p platform) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	p.echo.ServeHTTP(rec, req)
	return rec
}

func (p platform) command(name string, args ...openchat.CommandArg) {
	p.factory.Command = &openchat.Command{
		Name:        name,
		Args:        args,
		Initiator:   "user-1",
		Scope:       group42,
		Permissions: openchat.Permissions{openchat.PermSendMessages},
	}
}

func TestPing(t *testing.T) {
	t.Parallel()
	p := newPlatform(t, nil)
	rec := p.do(http.MethodGet, "/ping", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body PingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Zero(t, body.Installations)

	assert.Equal(t, http.StatusOK, p.do(http.MethodHead, "/health", "").Code)
}

func TestDefinitionRoutes(t *testing.T) {
	t.Parallel()
	p := newPlatform(t, nil)
	for _, path := range []string{"/", "/bot_definition"} {
		rec := p.do(http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		var def command.BotDefinition
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &def))
		_, ok := def.Command(command.NamePoll)
		assert.True(t, ok, path)
	}
}

func TestExecuteCommandInvalidToken(t *testing.T) {
	t.Parallel()
	p := newPlatform(t, nil)
	rec := p.do(http.MethodPost, "/execute_command", "not-a-jwt")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"BadRequest":"AccessTokenInvalid"}`, rec.Body.String())
}

func TestExecuteCommandHelp(t *testing.T) {
	t.Parallel()
	p := newPlatform(t, nil)
	p.command(command.NameHelp)

	rec := p.do(http.MethodPost, "/execute_command", "token")
	p.dispatcher.Wait()
	require.Equal(t, http.StatusOK, rec.Code)

	var body openchat.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Message)
	assert.True(t, body.Message.Finalised)
	assert.Equal(t, agent.HelpText(eliza), body.Message.Text())

	c, ok := p.factory.Lookup(group42.Key())
	require.True(t, ok)
	assert.Equal(t, []string{agent.HelpText(eliza)}, c.SentTexts())
}

func TestExecuteCommandUnknown(t *testing.T) {
	t.Parallel()
	p := newPlatform(t, nil)
	p.command("dance")

	rec := p.do(http.MethodPost, "/execute_command", "token")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"BadRequest":"CommandNotFound"}`, rec.Body.String())
}

func TestExecuteCommandRateLimited(t *testing.T) {
	t.Parallel()
	p := newPlatform(t, ratelimit.New(logger.Discard(), 0.001, 1))
	p.command(command.NameInfo)

	assert.Equal(t, http.StatusOK, p.do(http.MethodPost, "/execute_command", "token").Code)
	rec := p.do(http.MethodPost, "/execute_command", "token")
	p.dispatcher.Wait()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, TextTooManyRequests, rec.Body.String())
}

func TestNotify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		status int
		text   string
	}{
		{"installed", `{"type":"bot_installed","scope":{"kind":"group","chatId":"42"},"permissions":["SendMessages"]}`, http.StatusOK, TextOK},
		{"unknown event", `{"type":"bot_rebooted"}`, http.StatusOK, TextOK},
		{"empty body", ``, http.StatusBadRequest, TextInvalidPayload},
		{"garbage", `not json`, http.StatusBadRequest, TextInvalidPayload},
		{"missing scope", `{"type":"bot_installed"}`, http.StatusInternalServerError, TextInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := newPlatform(t, nil)
			rec := p.do(http.MethodPost, "/notify", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.text, rec.Body.String())
		})
	}
}

func TestNotifyInstallRegistersScope(t *testing.T) {
	t.Parallel()
	p := newPlatform(t, nil)
	body := `{"type":"bot_installed","scope":{"kind":"group","chatId":"42"},"permissions":["SendMessages"]}`
	require.Equal(t, http.StatusOK, p.do(http.MethodPost, "/notify", body).Code)
	assert.True(t, p.registry.Has("group-42"))

	c, ok := p.factory.Lookup("group-42")
	require.True(t, ok)
	assert.Len(t, c.SentTexts(), 1)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	p := newPlatform(t, nil)
	rec := p.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openchat_bot_installations")
}
