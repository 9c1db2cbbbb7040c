// Package config loads and exposes application configuration (TOML file + environment).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing.
const (
	DefaultConfigPath       = "config.toml"
	DefaultPort             = 3000
	DefaultModerationAction = ModerationWarn
	DefaultLLMTimeout       = 60
	DefaultCommandRate      = 2.0
	DefaultCommandBurst     = 5
	DefaultRuntimeTokenTTL  = "24h"
)

// Moderation actions accepted in configuration.
const (
	ModerationWarn       = "warn"
	ModerationDelete     = "delete"
	ModerationStatusOnly = "status-only"
)

// Environment variable names. The required ones must be present (file or env) or startup fails.
const (
	EnvIdentityPrivateKey   = "OPENCHAT_BOT_IDENTITY_PRIVATE_KEY"
	EnvPublicKey            = "OPENCHAT_PUBLIC_KEY"
	EnvICHost               = "OPENCHAT_IC_HOST"
	EnvStorageIndexCanister = "OPENCHAT_STORAGE_INDEX_CANISTER"
	EnvPort                 = "OPENCHAT_BOT_PORT"
	EnvBotUserID            = "OPENCHAT_BOT_USER_ID"
	EnvWelcomeNewMembers    = "OPENCHAT_WELCOME_NEW_MEMBERS"
	EnvSayGoodbye           = "OPENCHAT_SAY_GOODBYE"
	EnvAutoRespondAll       = "OPENCHAT_AUTO_RESPOND_ALL"
	EnvModerationEnabled    = "OPENCHAT_MODERATION_ENABLED"
	EnvModerationAction     = "OPENCHAT_MODERATION_ACTION"
	EnvModerationKeywords   = "OPENCHAT_MODERATION_KEYWORDS"
	EnvCharacterPath        = "AGENT_CHARACTER_PATH"
	EnvLLMBaseURL           = "AGENT_LLM_BASE_URL"
	EnvLLMAPIKey            = "AGENT_LLM_API_KEY"
	EnvLLMModel             = "AGENT_LLM_MODEL"
	EnvRuntimeJWTSecret     = "RUNTIME_API_JWT_SECRET"
	EnvLogLevel             = "LOG_LEVEL"
	EnvLogFormat            = "LOG_FORMAT"
)

// Config is the root application configuration.
type Config struct {
	Log        LogConfig        `toml:"log"`
	Server     ServerConfig     `toml:"server"`
	OpenChat   OpenChatConfig   `toml:"openchat"`
	Behavior   BehaviorConfig   `toml:"behavior"`
	Moderation ModerationConfig `toml:"moderation"`
	Agent      AgentConfig      `toml:"agent"`
	RuntimeAPI RuntimeAPIConfig `toml:"runtime_api"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the listen port and command throttling.
type ServerConfig struct {
	Port         int     `toml:"port"`
	CommandRate  float64 `toml:"command_rate"`
	CommandBurst int     `toml:"command_burst"`
}

// Addr returns the listen address for the configured port.
func (c ServerConfig) Addr() string {
	port := c.Port
	if port <= 0 {
		port = DefaultPort
	}
	return ":" + strconv.Itoa(port)
}

// OpenChatConfig holds the bot identity and platform endpoints.
type OpenChatConfig struct {
	IdentityPrivateKey   string `toml:"identity_private_key"`
	PublicKey            string `toml:"public_key"`
	ICHost               string `toml:"ic_host"`
	StorageIndexCanister string `toml:"storage_index_canister"`
	BotUserID            string `toml:"bot_user_id"`
}

// BehaviorConfig holds the autonomous behaviour toggles.
type BehaviorConfig struct {
	WelcomeNewMembers bool `toml:"welcome_new_members"`
	SayGoodbye        bool `toml:"say_goodbye"`
	AutoRespondAll    bool `toml:"auto_respond_all"`
}

// ModerationConfig holds the default moderation policy.
type ModerationConfig struct {
	Enabled  bool     `toml:"enabled"`
	Action   string   `toml:"action"`
	Keywords []string `toml:"keywords"`
}

// AgentConfig holds the persona file and the text generation backend.
type AgentConfig struct {
	CharacterPath string    `toml:"character_path"`
	LLM           LLMConfig `toml:"llm"`
}

// LLMConfig holds an OpenAI-compatible chat completion endpoint. Empty BaseURL disables it.
type LLMConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// RuntimeAPIConfig holds the bearer-token settings of the runtime action API.
// The API is not mounted when JWTSecret is empty.
type RuntimeAPIConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	TokenTTL  string `toml:"token_ttl"`
}

// Defaults returns a configuration populated with default values only.
func Defaults() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Port:         DefaultPort,
			CommandRate:  DefaultCommandRate,
			CommandBurst: DefaultCommandBurst,
		},
		Moderation: ModerationConfig{
			Action: DefaultModerationAction,
		},
		Agent: AgentConfig{
			LLM: LLMConfig{
				TimeoutSeconds: DefaultLLMTimeout,
			},
		},
		RuntimeAPI: RuntimeAPIConfig{
			TokenTTL: DefaultRuntimeTokenTTL,
		},
	}
}

// Load reads the TOML file at path (a missing file is not an error), then applies
// environment overrides. It does not validate; call Validate before serving.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.EqualFold(strings.TrimSpace(v), "true")
		}
	}

	setString(EnvIdentityPrivateKey, &cfg.OpenChat.IdentityPrivateKey)
	setString(EnvPublicKey, &cfg.OpenChat.PublicKey)
	setString(EnvICHost, &cfg.OpenChat.ICHost)
	setString(EnvStorageIndexCanister, &cfg.OpenChat.StorageIndexCanister)
	setString(EnvBotUserID, &cfg.OpenChat.BotUserID)

	if v, ok := lookup(EnvPort); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		cfg.Server.Port = port
	}

	setBool(EnvWelcomeNewMembers, &cfg.Behavior.WelcomeNewMembers)
	setBool(EnvSayGoodbye, &cfg.Behavior.SayGoodbye)
	setBool(EnvAutoRespondAll, &cfg.Behavior.AutoRespondAll)
	setBool(EnvModerationEnabled, &cfg.Moderation.Enabled)
	setString(EnvModerationAction, &cfg.Moderation.Action)
	if v, ok := lookup(EnvModerationKeywords); ok && strings.TrimSpace(v) != "" {
		cfg.Moderation.Keywords = SplitKeywords(v)
	}

	setString(EnvCharacterPath, &cfg.Agent.CharacterPath)
	setString(EnvLLMBaseURL, &cfg.Agent.LLM.BaseURL)
	setString(EnvLLMAPIKey, &cfg.Agent.LLM.APIKey)
	setString(EnvLLMModel, &cfg.Agent.LLM.Model)
	setString(EnvRuntimeJWTSecret, &cfg.RuntimeAPI.JWTSecret)
	setString(EnvLogLevel, &cfg.Log.Level)
	setString(EnvLogFormat, &cfg.Log.Format)
	return nil
}

// SplitKeywords splits a comma-separated keyword list, dropping blanks.
func SplitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ErrMissingSettings is returned by Validate when required settings are absent.
var ErrMissingSettings = errors.New("missing required settings")

// Validate checks that the required identity settings are present and the toggles are sane.
func (c Config) Validate() error {
	var missing []string
	required := []struct {
		env   string
		value string
	}{
		{EnvIdentityPrivateKey, c.OpenChat.IdentityPrivateKey},
		{EnvPublicKey, c.OpenChat.PublicKey},
		{EnvICHost, c.OpenChat.ICHost},
		{EnvStorageIndexCanister, c.OpenChat.StorageIndexCanister},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSettings, strings.Join(missing, ", "))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch c.Moderation.Action {
	case ModerationWarn, ModerationDelete, ModerationStatusOnly:
	default:
		return fmt.Errorf("invalid moderation action %q (want %s, %s or %s)",
			c.Moderation.Action, ModerationWarn, ModerationDelete, ModerationStatusOnly)
	}
	return nil
}
