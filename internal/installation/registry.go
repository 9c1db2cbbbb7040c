// Package installation tracks where the bot is installed and resolves action targets.
package installation

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/memohai/openchat-bot/internal/metrics"
	"github.com/memohai/openchat-bot/internal/openchat"
)

// Installation is the bot's presence in one scope.
type Installation struct {
	Scope       openchat.Scope
	Permissions openchat.Permissions
}

// Key returns the registry key of the installation's scope.
func (i Installation) Key() string { return i.Scope.Key() }

// Registry is the in-memory set of installations keyed by scope key.
// It keeps first-insertion order; a re-install replaces in place.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Installation
	order   []string
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		entries: map[string]Installation{},
		logger:  log.With(slog.String("component", "installations")),
	}
}

// Record upserts the installation for key.
func (r *Registry) Record(key string, scope openchat.Scope, perms openchat.Permissions) {
	r.mu.Lock()
	if _, exists := r.entries[key]; !exists {
		r.order = append(r.order, key)
	}
	r.entries[key] = Installation{Scope: scope, Permissions: slices.Clone(perms)}
	metrics.Installations.Set(float64(len(r.entries)))
	r.mu.Unlock()

	r.logger.Info("bot installed",
		slog.String("kind", string(scope.Kind)),
		slog.String("chat_id", string(scope.ChatID)),
		slog.Int("permissions", len(perms)),
	)
}

// Remove deletes the installation for key; a missing key is a no-op.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	_, existed := r.entries[key]
	if existed {
		delete(r.entries, key)
		r.order = slices.DeleteFunc(r.order, func(k string) bool { return k == key })
	}
	metrics.Installations.Set(float64(len(r.entries)))
	r.mu.Unlock()

	if existed {
		r.logger.Info("bot uninstalled", slog.String("scope", key))
	}
}

// Get returns the installation for key.
func (r *Registry) Get(key string) (Installation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.entries[key]
	return inst, ok
}

// Has reports whether key is installed.
func (r *Registry) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// All returns a snapshot of the installations in insertion order.
func (r *Registry) All() []Installation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Installation, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.entries[key])
	}
	return out
}

// Len returns the number of installations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Reset drops every installation.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.entries = map[string]Installation{}
	r.order = nil
	metrics.Installations.Set(0)
	r.mu.Unlock()
}
