package moderation

import (
	"slices"
	"sync"

	"github.com/memohai/openchat-bot/internal/config"
)

// Mode is the configured response to flagged messages.
type Mode string

const (
	ModeWarn       Mode = config.ModerationWarn
	ModeDelete     Mode = config.ModerationDelete
	ModeStatusOnly Mode = config.ModerationStatusOnly
)

// Action maps the mode to the verdict action.
func (m Mode) Action() Action {
	switch m {
	case ModeDelete:
		return ActionDelete
	case ModeWarn:
		return ActionWarn
	default:
		return ActionNone
	}
}

// Policy holds the process-wide moderation settings plus per-scope
// enable/disable overrides set with /moderate.
type Policy struct {
	mu        sync.RWMutex
	enabled   bool
	mode      Mode
	keywords  []string
	overrides map[string]bool
}

// NewPolicy builds a policy from configuration.
func NewPolicy(cfg config.ModerationConfig) *Policy {
	mode := Mode(cfg.Action)
	if mode == "" {
		mode = ModeWarn
	}
	return &Policy{
		enabled:   cfg.Enabled,
		mode:      mode,
		keywords:  slices.Clone(cfg.Keywords),
		overrides: map[string]bool{},
	}
}

// Enabled reports whether moderation runs for scopeKey.
func (p *Policy) Enabled(scopeKey string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if on, ok := p.overrides[scopeKey]; ok {
		return on
	}
	return p.enabled
}

// SetEnabled overrides the global setting for scopeKey.
func (p *Policy) SetEnabled(scopeKey string, on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.overrides[scopeKey] = on
}

// Mode returns the configured mode.
func (p *Policy) Mode() Mode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mode
}

// Keywords returns a copy of the keyword list.
func (p *Policy) Keywords() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.keywords)
}

// Status is a snapshot of the policy for one scope.
type Status struct {
	Enabled  bool
	Mode     Mode
	Keywords int
}

// Status returns the effective policy for scopeKey.
func (p *Policy) Status(scopeKey string) Status {
	enabled := p.Enabled(scopeKey)
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Status{Enabled: enabled, Mode: p.mode, Keywords: len(p.keywords)}
}
