// Package boot provides runtime configuration and dependency wiring for the bot.
package boot

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/memohai/openchat-bot/internal/config"
	"github.com/memohai/openchat-bot/internal/openchat"
)

// RuntimeConfig holds parsed runtime settings (key material, server address, runtime API auth).
// The listen address may be overridden by HTTP_ADDR.
type RuntimeConfig struct {
	ServerAddr           string
	IdentityKey          *ecdsa.PrivateKey
	PlatformPublicKey    *ecdsa.PublicKey
	ICHost               string
	StorageIndexCanister string
	RuntimeJWTSecret     string
	RuntimeTokenTTL      time.Duration
}

// ProvideRuntimeConfig validates cfg and builds RuntimeConfig from it.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	identity, err := openchat.ParsePrivateKey(cfg.OpenChat.IdentityPrivateKey)
	if err != nil {
		return nil, err
	}
	publicKey, err := openchat.ParsePublicKey(cfg.OpenChat.PublicKey)
	if err != nil {
		return nil, err
	}

	ttl := 24 * time.Hour
	if raw := strings.TrimSpace(cfg.RuntimeAPI.TokenTTL); raw != "" {
		ttl, err = time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid runtime token ttl: %w", err)
		}
	}

	ret := &RuntimeConfig{
		ServerAddr:           cfg.Server.Addr(),
		IdentityKey:          identity,
		PlatformPublicKey:    publicKey,
		ICHost:               strings.TrimRight(cfg.OpenChat.ICHost, "/"),
		StorageIndexCanister: cfg.OpenChat.StorageIndexCanister,
		RuntimeJWTSecret:     cfg.RuntimeAPI.JWTSecret,
		RuntimeTokenTTL:      ttl,
	}

	if value := os.Getenv("HTTP_ADDR"); value != "" {
		ret.ServerAddr = value
	}
	return ret, nil
}
