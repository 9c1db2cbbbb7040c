package modules

import (
	"log/slog"
	"net/http"
	"time"

	"go.uber.org/fx"

	"github.com/memohai/openchat-bot/internal/agent"
	"github.com/memohai/openchat-bot/internal/boot"
	"github.com/memohai/openchat-bot/internal/config"
	"github.com/memohai/openchat-bot/internal/logger"
	"github.com/memohai/openchat-bot/internal/openchat"
)

// InfraModule provides logging, runtime configuration, the persona and the
// platform client factory. The caller supplies config.Config.
var InfraModule = fx.Module(
	"infra",
	fx.Provide(
		provideLogger,
		boot.ProvideRuntimeConfig,
		provideCharacter,
		provideGenerator,
		fx.Annotate(provideClientFactory, fx.As(new(openchat.Factory))),
	),
)

// ---------------------------------------------------------------------------
// infrastructure providers
// ---------------------------------------------------------------------------

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideCharacter(cfg config.Config) (agent.Character, error) {
	return agent.LoadCharacter(cfg.Agent.CharacterPath)
}

// provideGenerator returns the LLM client when an endpoint is configured and
// nil otherwise, in which case the runtime answers from the persona.
func provideGenerator(log *slog.Logger, cfg config.Config, character agent.Character) (agent.Generator, error) {
	llm := cfg.Agent.LLM
	if llm.BaseURL == "" {
		log.Info("no llm endpoint configured, using persona replies")
		return nil, nil
	}
	system := character.System
	if system == "" {
		system = character.Description()
	}
	client, err := agent.NewLLMClient(log, llm.BaseURL, llm.APIKey, llm.Model, system,
		time.Duration(llm.TimeoutSeconds)*time.Second)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func provideClientFactory(log *slog.Logger, rc *boot.RuntimeConfig) (*openchat.BotClientFactory, error) {
	return openchat.NewBotClientFactory(log, openchat.FactoryConfig{
		PublicKey:            rc.PlatformPublicKey,
		IdentityKey:          rc.IdentityKey,
		ICHost:               rc.ICHost,
		StorageIndexCanister: rc.StorageIndexCanister,
		HTTPClient:           &http.Client{Timeout: 30 * time.Second},
	})
}
