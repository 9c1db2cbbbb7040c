package installation

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/memohai/openchat-bot/internal/openchat"
)

var (
	// ErrUnresolved means no installation matched.
	ErrUnresolved = errors.New("no target scope available")
	// ErrNotInstalled means an explicitly requested scope is not installed.
	ErrNotInstalled = errors.New("bot is not installed in scope")
	// ErrPermissionDenied means the installation lacks a required permission.
	ErrPermissionDenied = errors.New("missing permission")
)

// RoomPrefix prefixes runtime room identifiers derived from scopes.
const RoomPrefix = "openchat-"

// Predicate filters installations during first-available resolution.
type Predicate func(Installation) bool

// HasCommunity matches installations whose scope belongs to a community.
func HasCommunity(inst Installation) bool {
	return inst.Scope.CommunityID != ""
}

// Resolver picks the installation an action targets.
type Resolver struct {
	registry *Registry
	logger   *slog.Logger
}

// NewResolver creates a resolver over registry.
func NewResolver(log *slog.Logger, registry *Registry) *Resolver {
	return &Resolver{
		registry: registry,
		logger:   log.With(slog.String("component", "resolver")),
	}
}

// Resolve returns the installation for explicit when given, otherwise the first
// installation in registry order that satisfies match (nil matches all).
// The first-available fallback assumes a single-tenant deployment.
func (r *Resolver) Resolve(explicit *openchat.Scope, match Predicate) (Installation, error) {
	if explicit != nil && !explicit.IsZero() {
		inst, ok := r.registry.Get(explicit.Key())
		if !ok {
			return Installation{}, fmt.Errorf("%w: %s", ErrNotInstalled, explicit.Key())
		}
		if match != nil && !match(inst) {
			return Installation{}, fmt.Errorf("%w: %s does not qualify", ErrUnresolved, explicit.Key())
		}
		return inst, nil
	}

	all := r.registry.All()
	for _, inst := range all {
		if match != nil && !match(inst) {
			continue
		}
		if len(all) > 1 {
			r.logger.Warn("multiple installations, using first available",
				slog.String("scope", inst.Key()),
				slog.Int("installations", len(all)),
			)
		}
		return inst, nil
	}
	return Installation{}, ErrUnresolved
}

// FromRoom resolves the installation addressed by a runtime room id "openchat-<kind>-<chatId>".
func (r *Resolver) FromRoom(roomID string) (Installation, error) {
	key, ok := strings.CutPrefix(roomID, RoomPrefix)
	if !ok {
		return Installation{}, fmt.Errorf("%w: room %q", ErrUnresolved, roomID)
	}
	if _, _, valid := openchat.ParseScopeKey(key); !valid {
		return Installation{}, fmt.Errorf("%w: room %q", ErrUnresolved, roomID)
	}
	inst, found := r.registry.Get(key)
	if !found {
		return Installation{}, fmt.Errorf("%w: %s", ErrNotInstalled, key)
	}
	return inst, nil
}

// RoomID returns the runtime room identifier for a scope.
func RoomID(scope openchat.Scope) string {
	return RoomPrefix + scope.Key()
}

// Require returns ErrPermissionDenied unless inst grants perm.
func (i Installation) Require(perm openchat.Permission) error {
	if !i.Permissions.Has(perm) {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, perm)
	}
	return nil
}
