package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/memohai/openchat-bot/internal/agent"
	"github.com/memohai/openchat-bot/internal/config"
	"github.com/memohai/openchat-bot/internal/installation"
	"github.com/memohai/openchat-bot/internal/logger"
	"github.com/memohai/openchat-bot/internal/openchat"
	"github.com/memohai/openchat-bot/internal/openchat/openchattest"
)

var group42 = openchat.Scope{Kind: openchat.KindGroup, ChatID: "42"}

type fixture struct {
	registry *installation.Registry
	factory  *openchattest.Factory
	enforcer *Enforcer
}

func newFixture(mode string, enabled bool, perms ...openchat.Permission) fixture {
	log := logger.Discard()
	reg := installation.NewRegistry(log)
	reg.Record(group42.Key(), group42, openchat.Permissions(perms))
	factory := openchattest.NewFactory()
	policy := NewPolicy(config.ModerationConfig{Enabled: enabled, Action: mode, Keywords: []string{"scam"}})
	return fixture{
		registry: reg,
		factory:  factory,
		enforcer: NewEnforcer(log, policy, installation.NewResolver(log, reg), factory),
	}
}

func spamMemory(room string) agent.Memory {
	return agent.Memory{
		RoomID:    room,
		MessageID: "1001",
		Content:   agent.Content{Text: "FREE MONEY CLICK HERE NOW", Source: agent.SourceOpenChat},
	}
}

func TestDeleteModeWithPermission(t *testing.T) {
	t.Parallel()
	f := newFixture(config.ModerationDelete, true, openchat.PermDeleteMessages)
	out := f.enforcer.Check(context.Background(), spamMemory("openchat-group-42"))

	assert.True(t, out.Verdict.Flagged)
	assert.Equal(t, []Violation{ViolationSpam, ViolationExcessiveCaps}, out.Verdict.Violations)
	assert.Equal(t, ActionDelete, out.Verdict.Action)
	assert.True(t, out.Deleted)

	client, ok := f.factory.Lookup("group-42")
	assert.True(t, ok)
	assert.Equal(t, []openchattest.Call{{Op: "delete_messages", Args: []string{"1001"}}}, client.Calls)
}

func TestDeleteModeWithoutPermissionMakesNoCall(t *testing.T) {
	t.Parallel()
	f := newFixture(config.ModerationDelete, true, openchat.PermSendMessages)
	out := f.enforcer.Check(context.Background(), spamMemory("openchat-group-42"))

	assert.True(t, out.Verdict.Flagged)
	assert.False(t, out.Deleted)
	_, created := f.factory.Lookup("group-42")
	assert.False(t, created)
}

func TestDeleteModeUnresolvableRoomIsSilent(t *testing.T) {
	t.Parallel()
	f := newFixture(config.ModerationDelete, true, openchat.PermDeleteMessages)
	out := f.enforcer.Check(context.Background(), spamMemory("openchat-group-999"))
	assert.True(t, out.Verdict.Flagged)
	assert.False(t, out.Deleted)
	assert.Equal(t, 0, f.factory.TotalSent())
}

func TestDeleteFailureIsNotDeleted(t *testing.T) {
	t.Parallel()
	f := newFixture(config.ModerationDelete, true, openchat.PermDeleteMessages)
	f.factory.Configure = func(c *openchattest.Client) {
		c.Errors["delete_messages"] = errors.New("gone")
	}
	out := f.enforcer.Check(context.Background(), spamMemory("openchat-group-42"))
	assert.False(t, out.Deleted)
}

func TestWarnModeSendsOneWarning(t *testing.T) {
	t.Parallel()
	f := newFixture(config.ModerationWarn, true, openchat.PermSendMessages)
	out := f.enforcer.Check(context.Background(), spamMemory("openchat-group-42"))

	assert.Equal(t, ActionWarn, out.Verdict.Action)
	client, _ := f.factory.Lookup("group-42")
	assert.Equal(t, []string{WarningText([]Violation{ViolationSpam, ViolationExcessiveCaps})}, client.SentTexts())
	assert.True(t, client.SentMessages()[0].Finalised)
}

func TestStatusOnlyModeDoesNothing(t *testing.T) {
	t.Parallel()
	f := newFixture(config.ModerationStatusOnly, true, openchat.PermSendMessages, openchat.PermDeleteMessages)
	out := f.enforcer.Check(context.Background(), spamMemory("openchat-group-42"))

	assert.True(t, out.Verdict.Flagged)
	assert.Equal(t, ActionNone, out.Verdict.Action)
	_, created := f.factory.Lookup("group-42")
	assert.False(t, created)
}

func TestDisabledOrForeignSourceSkips(t *testing.T) {
	t.Parallel()
	f := newFixture(config.ModerationWarn, false, openchat.PermSendMessages)
	assert.False(t, f.enforcer.Check(context.Background(), spamMemory("openchat-group-42")).Verdict.Flagged)

	f = newFixture(config.ModerationWarn, true, openchat.PermSendMessages)
	mem := spamMemory("openchat-group-42")
	mem.Content.Source = "discord"
	assert.False(t, f.enforcer.Check(context.Background(), mem).Verdict.Flagged)
}

func TestScopeOverride(t *testing.T) {
	t.Parallel()
	f := newFixture(config.ModerationWarn, false, openchat.PermSendMessages)
	f.enforcer.Policy().SetEnabled("group-42", true)

	out := f.enforcer.Check(context.Background(), spamMemory("openchat-group-42"))
	assert.True(t, out.Verdict.Flagged)

	status := f.enforcer.Policy().Status("group-42")
	assert.True(t, status.Enabled)
	assert.Equal(t, ModeWarn, status.Mode)
	assert.Equal(t, 1, status.Keywords)
	assert.False(t, f.enforcer.Policy().Status("group-7").Enabled)
}

func TestCleanMessageNotFlagged(t *testing.T) {
	t.Parallel()
	f := newFixture(config.ModerationWarn, true, openchat.PermSendMessages)
	mem := spamMemory("openchat-group-42")
	mem.Content.Text = "good morning"
	out := f.enforcer.Check(context.Background(), mem)
	assert.False(t, out.Verdict.Flagged)
	assert.Empty(t, out.Verdict.Violations)
}
