package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/memohai/openchat-bot/internal/agent"
	"github.com/memohai/openchat-bot/internal/installation"
	"github.com/memohai/openchat-bot/internal/metrics"
	"github.com/memohai/openchat-bot/internal/openchat"
)

// Outcome is the result of checking one message.
type Outcome struct {
	Verdict Verdict
	Deleted bool
}

// Enforcer applies the policy to platform-sourced messages.
type Enforcer struct {
	policy   *Policy
	resolver *installation.Resolver
	factory  openchat.Factory
	logger   *slog.Logger
}

// NewEnforcer creates an enforcer.
func NewEnforcer(log *slog.Logger, policy *Policy, resolver *installation.Resolver, factory openchat.Factory) *Enforcer {
	return &Enforcer{
		policy:   policy,
		resolver: resolver,
		factory:  factory,
		logger:   log.With(slog.String("component", "moderation")),
	}
}

// Policy returns the policy the enforcer applies.
func (e *Enforcer) Policy() *Policy { return e.policy }

// Applies reports whether mem is subject to moderation.
func (e *Enforcer) Applies(mem agent.Memory) bool {
	if mem.Content.Source != agent.SourceOpenChat {
		return false
	}
	return e.policy.Enabled(strings.TrimPrefix(mem.RoomID, installation.RoomPrefix))
}

// Check evaluates mem and, when flagged, warns or deletes according to the mode.
// Enforcement failures are logged, never returned.
func (e *Enforcer) Check(ctx context.Context, mem agent.Memory) Outcome {
	if !e.Applies(mem) {
		return Outcome{}
	}
	violations := Evaluate(mem.Content.Text, e.policy.Keywords())
	if len(violations) == 0 {
		return Outcome{Verdict: Verdict{Violations: []Violation{}}}
	}

	mode := e.policy.Mode()
	verdict := Verdict{Flagged: true, Violations: violations, Action: mode.Action()}
	for _, v := range violations {
		metrics.ModerationFlags.WithLabelValues(string(v)).Inc()
	}
	e.logger.Warn("message flagged",
		slog.String("room", mem.RoomID),
		slog.String("violations", ViolationNames(violations)),
		slog.String("mode", string(mode)),
	)

	out := Outcome{Verdict: verdict}
	switch mode {
	case ModeDelete:
		out.Deleted = e.deleteMessage(ctx, mem)
	case ModeWarn:
		e.warn(ctx, mem, violations)
	}
	return out
}

func (e *Enforcer) deleteMessage(ctx context.Context, mem agent.Memory) bool {
	if mem.MessageID == "" {
		e.logger.Debug("flagged message has no platform id, cannot delete")
		return false
	}
	inst, err := e.resolver.FromRoom(mem.RoomID)
	if err != nil {
		e.logger.Debug("cannot resolve room for deletion", slog.Any("error", err))
		return false
	}
	if err := inst.Require(openchat.PermDeleteMessages); err != nil {
		e.logger.Warn("cannot delete flagged message", slog.String("scope", inst.Key()), slog.Any("error", err))
		return false
	}
	client, err := e.factory.ForScope(inst.Scope, inst.Permissions)
	if err != nil {
		e.logger.Error("create platform client", slog.Any("error", err))
		return false
	}
	if err := client.DeleteMessages(ctx, []string{mem.MessageID}); err != nil {
		e.logger.Error("failed to delete message", slog.String("message_id", mem.MessageID), slog.Any("error", err))
		return false
	}
	e.logger.Info("flagged message deleted", slog.String("message_id", mem.MessageID))
	return true
}

func (e *Enforcer) warn(ctx context.Context, mem agent.Memory, violations []Violation) {
	inst, err := e.resolver.FromRoom(mem.RoomID)
	if err != nil {
		e.logger.Debug("cannot resolve room for warning", slog.Any("error", err))
		return
	}
	if err := inst.Require(openchat.PermSendMessages); err != nil {
		e.logger.Warn("cannot send moderation warning", slog.String("scope", inst.Key()), slog.Any("error", err))
		return
	}
	client, err := e.factory.ForScope(inst.Scope, inst.Permissions)
	if err != nil {
		e.logger.Error("create platform client", slog.Any("error", err))
		return
	}
	msg := openchat.NewTextMessage(WarningText(violations)).SetFinalised(true)
	if err := client.SendMessage(ctx, msg); err != nil {
		e.logger.Error("failed to send moderation warning", slog.Any("error", err))
	}
}

// WarningText is the message sent for the warn mode.
func WarningText(violations []Violation) string {
	return fmt.Sprintf("⚠️ Warning: Your message was flagged for %s. Please follow community guidelines.", ViolationNames(violations))
}
