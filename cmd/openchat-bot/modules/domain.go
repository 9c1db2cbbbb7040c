package modules

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"

	"github.com/memohai/openchat-bot/internal/actions"
	"github.com/memohai/openchat-bot/internal/agent"
	"github.com/memohai/openchat-bot/internal/command"
	"github.com/memohai/openchat-bot/internal/config"
	"github.com/memohai/openchat-bot/internal/installation"
	"github.com/memohai/openchat-bot/internal/moderation"
	"github.com/memohai/openchat-bot/internal/notify"
	"github.com/memohai/openchat-bot/internal/openchat"
	"github.com/memohai/openchat-bot/internal/providers"
	"github.com/memohai/openchat-bot/internal/ratelimit"
)

// limiterIdleAge is how long an initiator's limiter survives without use.
const limiterIdleAge = 30 * time.Minute

// DomainModule wires installations, moderation, the command and notification
// dispatchers and the runtime actions and providers.
var DomainModule = fx.Module(
	"domain",
	fx.Provide(
		provideRegistry,
		installation.NewResolver,
		provideRuntime,
		providePolicy,
		moderation.NewEnforcer,
		command.NewBotDefinition,
		command.NewValidator,
		provideCommandDispatcher,
		provideNotifyDispatcher,
		actions.NewSet,
		providers.NewService,
		provideLimiter,
	),
)

// ---------------------------------------------------------------------------
// domain providers
// ---------------------------------------------------------------------------

func provideRegistry(lc fx.Lifecycle, log *slog.Logger) *installation.Registry {
	registry := installation.NewRegistry(log)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			registry.Reset()
			return nil
		},
	})
	return registry
}

func provideRuntime(log *slog.Logger, character agent.Character, generator agent.Generator) *agent.Runtime {
	return agent.NewRuntime(log, character, generator)
}

func providePolicy(cfg config.Config) *moderation.Policy {
	return moderation.NewPolicy(cfg.Moderation)
}

func provideCommandDispatcher(lc fx.Lifecycle, log *slog.Logger, runtime *agent.Runtime, policy *moderation.Policy, validator *command.Validator) *command.Dispatcher {
	dispatcher := command.NewDispatcher(log, runtime, policy, validator)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			done := make(chan struct{})
			go func() {
				dispatcher.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
	return dispatcher
}

func provideNotifyDispatcher(log *slog.Logger, cfg config.Config, registry *installation.Registry, factory openchat.Factory, runtime *agent.Runtime, enforcer *moderation.Enforcer) *notify.Dispatcher {
	return notify.NewDispatcher(log, notify.Deps{
		Registry:  registry,
		Factory:   factory,
		Runtime:   runtime,
		Enforcer:  enforcer,
		Behavior:  cfg.Behavior,
		BotUserID: cfg.OpenChat.BotUserID,
	})
}

func provideLimiter(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) *ratelimit.Limiter {
	limiter := ratelimit.New(log, cfg.Server.CommandRate, cfg.Server.CommandBurst)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return limiter.StartCleanup(ratelimit.DefaultCleanupSpec, limiterIdleAge)
		},
		OnStop: func(context.Context) error {
			limiter.Stop()
			return nil
		},
	})
	return limiter
}
