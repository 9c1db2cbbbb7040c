package command

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/memohai/openchat-bot/internal/agent"
	"github.com/memohai/openchat-bot/internal/installation"
	"github.com/memohai/openchat-bot/internal/metrics"
	"github.com/memohai/openchat-bot/internal/moderation"
	"github.com/memohai/openchat-bot/internal/openchat"
)

// Error codes carried in a BadRequest body.
const (
	CodeCommandNotFound    = "CommandNotFound"
	CodeArgsInvalid        = "ArgsInvalid"
	CodeAccessTokenInvalid = "AccessTokenInvalid"
)

// Fixed user-facing texts.
const (
	MissingQuestionText = "Please provide a poll question."
	TooFewOptionsText   = "Please provide at least 2 options separated by commas."
	MissingActionText   = "Please specify an action: enable, disable, or status."
)

// BadRequest is the 400 body returned to the platform.
type BadRequest struct {
	BadRequest string `json:"BadRequest"`
}

// Reply is the HTTP response written for a command.
type Reply struct {
	Status int
	Body   any
}

// Execution is what a handler produced: the reply to write and optional
// work to run once the reply has been flushed.
type Execution struct {
	Reply      Reply
	Background func(ctx context.Context)
}

func ok(msg *openchat.Message) Reply {
	return Reply{Status: http.StatusOK, Body: msg.ToResponse()}
}

func badRequest(code string) Reply {
	return Reply{Status: http.StatusBadRequest, Body: BadRequest{BadRequest: code}}
}

type handlerFunc func(ctx context.Context, cmd *openchat.Command, client openchat.Client) (Execution, error)

// Dispatcher routes verified command invocations to their handlers.
type Dispatcher struct {
	runtime   *agent.Runtime
	policy    *moderation.Policy
	validator *Validator
	handlers  map[string]handlerFunc
	inflight  sync.WaitGroup
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher for the commands of the bot definition.
func NewDispatcher(log *slog.Logger, runtime *agent.Runtime, policy *moderation.Policy, validator *Validator) *Dispatcher {
	d := &Dispatcher{
		runtime:   runtime,
		policy:    policy,
		validator: validator,
		logger:    log.With(slog.String("component", "command")),
	}
	d.handlers = map[string]handlerFunc{
		NameChat:     d.chat,
		NameHelp:     d.help,
		NameInfo:     d.info,
		NameModerate: d.moderate,
		NamePoll:     d.poll,
	}
	return d
}

// Execute validates cmd and runs its handler. A returned error means an
// unexpected failure; expected rejections come back as a 4xx Reply.
func (d *Dispatcher) Execute(ctx context.Context, cmd *openchat.Command, client openchat.Client) (Execution, error) {
	handler, found := d.handlers[cmd.Name]
	if !found {
		d.logger.Warn("unknown command", slog.String("command", cmd.Name))
		metrics.CommandsTotal.WithLabelValues("unknown", metrics.StatusError).Inc()
		return Execution{Reply: badRequest(CodeCommandNotFound)}, nil
	}
	if d.validator != nil {
		if err := d.validator.Validate(cmd); err != nil {
			d.logger.Info("command arguments rejected", slog.String("command", cmd.Name), slog.Any("error", err))
			metrics.CommandsTotal.WithLabelValues(cmd.Name, metrics.StatusError).Inc()
			return Execution{Reply: badRequest(CodeArgsInvalid)}, nil
		}
	}

	exec, err := handler(ctx, cmd, client)
	metrics.CommandsTotal.WithLabelValues(cmd.Name, metrics.Status(err)).Inc()
	if err != nil {
		return Execution{}, fmt.Errorf("command %s: %w", cmd.Name, err)
	}
	return exec, nil
}

// Go runs work on a context detached from the request so it survives the
// response being written.
func (d *Dispatcher) Go(ctx context.Context, work func(ctx context.Context)) {
	if work == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		work(detached)
	}()
}

// Wait blocks until all background work has finished.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

func (d *Dispatcher) send(ctx context.Context, client openchat.Client, msg *openchat.Message) {
	if err := client.SendMessage(ctx, msg); err != nil {
		d.logger.Error("failed to send command reply",
			slog.String("scope", client.Scope().Key()),
			slog.Any("error", err),
		)
	}
}

// reply answers with a finalised text and sends the same text into the chat.
func (d *Dispatcher) reply(client openchat.Client, text string) Execution {
	msg := openchat.NewTextMessage(text).SetFinalised(true)
	return Execution{
		Reply: ok(msg),
		Background: func(ctx context.Context) {
			d.send(ctx, client, msg)
		},
	}
}

func (d *Dispatcher) chat(_ context.Context, cmd *openchat.Command, client openchat.Client) (Execution, error) {
	placeholder := openchat.NewTextMessage(agent.ThinkingText).SetFinalised(false)
	message, hasMessage := cmd.StringArg("message")

	return Execution{
		Reply: ok(placeholder),
		Background: func(ctx context.Context) {
			if !hasMessage {
				d.send(ctx, client, openchat.NewTextMessage(agent.MissingMessageText).SetFinalised(true))
				return
			}
			mem := d.runtime.NewMemory(installation.RoomID(cmd.Scope), cmd.Initiator, message)
			text, err := d.runtime.Reply(ctx, mem.Content.Text)
			if err != nil {
				d.logger.Error("chat generation failed", slog.String("room", mem.RoomID), slog.Any("error", err))
				text = agent.GenerationFailText
			}
			if err := client.SendMessage(ctx, openchat.NewTextMessage(text).SetFinalised(true)); err != nil {
				d.logger.Error("failed to send chat reply", slog.Any("error", err))
				d.send(ctx, client, openchat.NewTextMessage(agent.ChatErrorText).SetFinalised(true))
			}
		},
	}, nil
}

func (d *Dispatcher) help(_ context.Context, _ *openchat.Command, client openchat.Client) (Execution, error) {
	return d.reply(client, agent.HelpText(d.runtime.Character)), nil
}

func (d *Dispatcher) info(_ context.Context, _ *openchat.Command, client openchat.Client) (Execution, error) {
	return d.reply(client, agent.InfoText(d.runtime.Character)), nil
}

func (d *Dispatcher) moderate(_ context.Context, cmd *openchat.Command, client openchat.Client) (Execution, error) {
	action, _ := cmd.StringArg("action")
	key := cmd.Scope.Key()

	var text string
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "enable":
		d.policy.SetEnabled(key, true)
		text = fmt.Sprintf("✅ Moderation enabled for this chat (mode: %s).", d.policy.Mode())
	case "disable":
		d.policy.SetEnabled(key, false)
		text = "Moderation disabled for this chat."
	case "status":
		text = StatusText(d.policy.Status(key))
	default:
		text = MissingActionText
	}
	d.logger.Info("moderation command", slog.String("scope", key), slog.String("action", action))
	return d.reply(client, text), nil
}

// StatusText renders a moderation status report.
func StatusText(s moderation.Status) string {
	state := "disabled"
	if s.Enabled {
		state = "enabled"
	}
	return fmt.Sprintf("🛡️ Moderation is %s for this chat.\nMode: %s\nKeywords configured: %d", state, s.Mode, s.Keywords)
}

func (d *Dispatcher) poll(ctx context.Context, cmd *openchat.Command, client openchat.Client) (Execution, error) {
	question, hasQuestion := cmd.StringArg("question")
	if !hasQuestion {
		return d.reply(client, MissingQuestionText), nil
	}
	rawOptions, _ := cmd.StringArg("options")
	options := SplitOptions(rawOptions)
	if len(options) < 2 {
		return d.reply(client, TooFewOptionsText), nil
	}

	poll := openchat.Poll{
		Question:           question,
		Options:            options,
		ShowVotesBeforeEnd: true,
	}
	msg := openchat.NewPollMessage(poll).SetFinalised(true)
	err := client.SendMessage(ctx, msg)
	if err == nil {
		return Execution{Reply: ok(msg)}, nil
	}
	d.logger.Warn("poll send failed, falling back to text", slog.Any("error", err))
	fallback := openchat.NewTextMessage(poll.FallbackText()).SetFinalised(true)
	if err := client.SendMessage(ctx, fallback); err != nil {
		return Execution{}, fmt.Errorf("send poll fallback: %w", err)
	}
	return Execution{Reply: ok(fallback)}, nil
}

// SplitOptions splits a comma-separated option list, dropping blanks.
func SplitOptions(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
