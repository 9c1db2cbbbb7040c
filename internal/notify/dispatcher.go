package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/memohai/openchat-bot/internal/agent"
	"github.com/memohai/openchat-bot/internal/config"
	"github.com/memohai/openchat-bot/internal/installation"
	"github.com/memohai/openchat-bot/internal/metrics"
	"github.com/memohai/openchat-bot/internal/moderation"
	"github.com/memohai/openchat-bot/internal/openchat"
)

// ErrMissingScope is returned for events that need a scope but carry none.
var ErrMissingScope = errors.New("notification has no valid scope")

// Dispatcher routes normalized notifications to their handlers.
type Dispatcher struct {
	registry  *installation.Registry
	factory   openchat.Factory
	runtime   *agent.Runtime
	enforcer  *moderation.Enforcer
	behavior  config.BehaviorConfig
	botUserID string
	logger    *slog.Logger
}

// Deps groups the collaborators of a Dispatcher.
type Deps struct {
	Registry  *installation.Registry
	Factory   openchat.Factory
	Runtime   *agent.Runtime
	Enforcer  *moderation.Enforcer
	Behavior  config.BehaviorConfig
	BotUserID string
}

// NewDispatcher creates a notification dispatcher.
func NewDispatcher(log *slog.Logger, deps Deps) *Dispatcher {
	return &Dispatcher{
		registry:  deps.Registry,
		factory:   deps.Factory,
		runtime:   deps.Runtime,
		enforcer:  deps.Enforcer,
		behavior:  deps.Behavior,
		botUserID: deps.BotUserID,
		logger:    log.With(slog.String("component", "notify")),
	}
}

// Handle decodes body and dispatches the event. It returns ErrInvalidPayload
// for undecodable bodies; unknown event types are not an error.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) error {
	raw, err := Decode(body)
	if err != nil {
		return err
	}
	return d.Dispatch(ctx, Normalize(raw))
}

// Dispatch runs the handler for ev.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	metrics.NotificationsTotal.WithLabelValues(string(ev.Type)).Inc()
	switch ev.Type {
	case EventInstalled:
		return d.installed(ctx, ev)
	case EventUninstalled:
		return d.uninstalled(ev)
	case EventMessage:
		return d.message(ctx, ev)
	case EventMemberJoined:
		return d.membership(ctx, ev, d.behavior.WelcomeNewMembers, agent.MemberWelcomeText)
	case EventMemberLeft:
		return d.membership(ctx, ev, d.behavior.SayGoodbye, agent.MemberGoodbyeText)
	case EventReaction:
		d.logger.Info("reaction received",
			slog.String("scope", ev.Scope.Key()),
			slog.String("message_id", ev.Message.ID),
			slog.String("reaction", ev.Reaction),
		)
		return nil
	default:
		d.logger.Debug("unhandled notification", slog.String("type", ev.RawType))
		return nil
	}
}

func requireScope(ev Event) error {
	if !ev.Scope.Kind.Valid() || ev.Scope.ChatID == "" {
		return fmt.Errorf("%w: %s event", ErrMissingScope, ev.Type)
	}
	return nil
}

func (d *Dispatcher) installed(ctx context.Context, ev Event) error {
	if err := requireScope(ev); err != nil {
		return err
	}
	key := ev.Scope.Key()
	d.registry.Record(key, ev.Scope, ev.Permissions)
	if !ev.Permissions.Has(openchat.PermSendMessages) {
		return nil
	}
	inst, _ := d.registry.Get(key)
	d.send(ctx, inst, agent.InstallWelcomeText(d.runtime.Character))
	return nil
}

func (d *Dispatcher) uninstalled(ev Event) error {
	if err := requireScope(ev); err != nil {
		return err
	}
	d.registry.Remove(ev.Scope.Key())
	return nil
}

func (d *Dispatcher) isOwnMessage(sender string) bool {
	if sender == "" {
		return false
	}
	return sender == d.botUserID || sender == d.runtime.AgentID.String()
}

func (d *Dispatcher) message(ctx context.Context, ev Event) error {
	if err := requireScope(ev); err != nil {
		return err
	}
	if d.isOwnMessage(ev.Sender) {
		return nil
	}

	mem := d.runtime.NewMemory(installation.RoomID(ev.Scope), ev.Sender, ev.Message.Text)
	mem.MessageID = ev.Message.ID
	mem.Content.InReplyTo = ev.Message.ReplyTo
	if d.enforcer != nil {
		if out := d.enforcer.Check(ctx, mem); out.Deleted {
			return nil
		}
	}

	mentioned := d.runtime.IsMentioned(ev.Message.Text)
	if !mentioned && ev.Scope.Kind != openchat.KindDirect && !d.behavior.AutoRespondAll {
		return nil
	}

	inst, ok := d.registry.Get(ev.Scope.Key())
	if !ok {
		d.logger.Warn("message from untracked installation", slog.String("scope", ev.Scope.Key()))
		return nil
	}
	text := ev.Message.Text
	if mentioned {
		text = d.runtime.StripMention(text)
	}
	reply, err := d.runtime.Reply(ctx, text)
	if err != nil {
		reply = agent.GenerationFailText
	}
	d.send(ctx, inst, reply)
	return nil
}

func (d *Dispatcher) membership(ctx context.Context, ev Event, enabled bool, render func(string) string) error {
	if !enabled {
		return nil
	}
	if err := requireScope(ev); err != nil {
		return err
	}
	inst, ok := d.registry.Get(ev.Scope.Key())
	if !ok {
		return nil
	}
	members := ev.Members
	if len(members) == 0 {
		members = []Member{{}}
	}
	for _, m := range members {
		d.send(ctx, inst, render(m.Username))
	}
	return nil
}

// send posts a finalised text into inst's scope. Missing permissions and
// platform failures are logged.
func (d *Dispatcher) send(ctx context.Context, inst installation.Installation, text string) {
	if err := inst.Require(openchat.PermSendMessages); err != nil {
		d.logger.Debug("not sending", slog.String("scope", inst.Key()), slog.Any("error", err))
		return
	}
	client, err := d.factory.ForScope(inst.Scope, inst.Permissions)
	if err != nil {
		d.logger.Error("create platform client", slog.String("scope", inst.Key()), slog.Any("error", err))
		return
	}
	if err := client.SendMessage(ctx, openchat.NewTextMessage(text).SetFinalised(true)); err != nil {
		d.logger.Error("failed to send message", slog.String("scope", inst.Key()), slog.Any("error", err))
	}
}
