package openchat

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCommandToken is returned when a command token fails verification.
var ErrInvalidCommandToken = errors.New("invalid command token")

// Factory creates platform clients for command and autonomous contexts.
type Factory interface {
	FromCommandToken(token string) (*Command, Client, error)
	ForScope(scope Scope, perms Permissions) (Client, error)
}

// FactoryConfig holds the key material and endpoints of the bot identity.
type FactoryConfig struct {
	PublicKey            *ecdsa.PublicKey
	IdentityKey          *ecdsa.PrivateKey
	ICHost               string
	StorageIndexCanister string
	HTTPClient           *http.Client
	TokenTTL             time.Duration
}

// AutonomousClaims are the claims of a bot-signed token for autonomous calls.
type AutonomousClaims struct {
	jwt.RegisteredClaims
	Scope                Scope    `json:"scope"`
	GrantedPermissions   []string `json:"granted_permissions"`
	StorageIndexCanister string   `json:"storage_index_canister,omitempty"`
}

// BotClientFactory verifies command tokens with the platform key and signs
// autonomous tokens with the bot identity key.
type BotClientFactory struct {
	cfg    FactoryConfig
	now    func() time.Time
	logger *slog.Logger
}

// NewBotClientFactory creates a factory. Both keys are required.
func NewBotClientFactory(log *slog.Logger, cfg FactoryConfig) (*BotClientFactory, error) {
	if cfg.PublicKey == nil {
		return nil, errors.New("openchat factory: platform public key is required")
	}
	if cfg.IdentityKey == nil {
		return nil, errors.New("openchat factory: identity key is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 5 * time.Minute
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	cfg.ICHost = strings.TrimRight(cfg.ICHost, "/")
	return &BotClientFactory{
		cfg:    cfg,
		now:    time.Now,
		logger: log.With(slog.String("component", "openchat")),
	}, nil
}

// VerifyCommandToken checks the signature and expiry of a command token and decodes it.
func (f *BotClientFactory) VerifyCommandToken(token string) (*Command, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidCommandToken)
	}
	claims := &CommandClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return f.cfg.PublicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithTimeFunc(f.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommandToken, err)
	}
	if claims.Command.Name == "" {
		return nil, fmt.Errorf("%w: missing command name", ErrInvalidCommandToken)
	}
	return newCommand(token, claims), nil
}

// FromCommandToken verifies token and returns the command with a client
// authorised by the same token.
func (f *BotClientFactory) FromCommandToken(token string) (*Command, Client, error) {
	cmd, err := f.VerifyCommandToken(token)
	if err != nil {
		return nil, nil, err
	}
	gateway := cmd.APIGateway
	if gateway == "" {
		gateway = f.gatewayFor(cmd.Scope)
	}
	client := NewGatewayClient(f.logger, f.cfg.HTTPClient, gateway, cmd.Token, cmd.Scope, cmd.Permissions)
	return cmd, client, nil
}

// ForScope returns a client for autonomous calls, authorised by a freshly signed token.
func (f *BotClientFactory) ForScope(scope Scope, perms Permissions) (Client, error) {
	token, err := f.SignAutonomousToken(scope, perms)
	if err != nil {
		return nil, err
	}
	return NewGatewayClient(f.logger, f.cfg.HTTPClient, f.gatewayFor(scope), token, scope, perms), nil
}

// SignAutonomousToken signs an ES256 token naming scope and perms.
func (f *BotClientFactory) SignAutonomousToken(scope Scope, perms Permissions) (string, error) {
	now := f.now()
	claims := AutonomousClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "openchat-bot",
			Subject:   scope.Key(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(f.cfg.TokenTTL)),
		},
		Scope:                scope,
		GrantedPermissions:   perms.Strings(),
		StorageIndexCanister: f.cfg.StorageIndexCanister,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(f.cfg.IdentityKey)
	if err != nil {
		return "", fmt.Errorf("sign autonomous token: %w", err)
	}
	return signed, nil
}

func (f *BotClientFactory) gatewayFor(scope Scope) string {
	if scope.APIGateway != "" {
		return scope.APIGateway
	}
	return f.cfg.ICHost
}
