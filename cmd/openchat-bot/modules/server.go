package modules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go.uber.org/fx"

	"github.com/memohai/openchat-bot/internal/actions"
	"github.com/memohai/openchat-bot/internal/agent"
	"github.com/memohai/openchat-bot/internal/boot"
	"github.com/memohai/openchat-bot/internal/handlers"
	"github.com/memohai/openchat-bot/internal/installation"
	"github.com/memohai/openchat-bot/internal/providers"
	"github.com/memohai/openchat-bot/internal/server"
	"github.com/memohai/openchat-bot/internal/version"
)

// ServerModule registers the HTTP handlers and runs the server.
var ServerModule = fx.Module(
	"server",
	fx.Provide(
		provideServerHandler(handlers.NewPingHandler),
		provideServerHandler(handlers.NewDefinitionHandler),
		provideServerHandler(handlers.NewCommandHandler),
		provideServerHandler(handlers.NewNotifyHandler),
		provideServerHandler(handlers.NewMetricsHandler),
		fx.Annotate(provideRuntimeHandler, fx.ResultTags(`group:"server_handlers"`)),
		provideServer,
	),
	fx.Invoke(startServer),
)

// ---------------------------------------------------------------------------
// server
// ---------------------------------------------------------------------------

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

// provideRuntimeHandler mounts the runtime API only when a token secret is configured.
func provideRuntimeHandler(log *slog.Logger, rc *boot.RuntimeConfig, actionSet *actions.Set, providerService *providers.Service, runtime *agent.Runtime) server.Handler {
	if strings.TrimSpace(rc.RuntimeJWTSecret) == "" {
		log.Info("runtime api disabled (no jwt secret)")
		return nil
	}
	return handlers.NewRuntimeHandler(log, actionSet, providerService, runtime)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	RuntimeConfig  *boot.RuntimeConfig
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.RuntimeConfig.ServerAddr, params.RuntimeConfig.RuntimeJWTSecret, params.ServerHandlers...)
}

// DefinitionURL is the address printed in the startup banner.
func DefinitionURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/bot_definition"
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, runtime *agent.Runtime, registry *installation.Registry) {
	fmt.Printf("Starting OpenChat bot %s (%s)\n", version.GetInfo(), runtime.Name())
	fmt.Printf("Bot definition: %s\n", DefinitionURL(srv.Addr()))

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping", slog.Int("installations", registry.Len()))
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
