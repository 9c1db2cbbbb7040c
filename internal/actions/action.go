// Package actions implements the platform operations the agent runtime can
// invoke: message sends, reactions, moderation, membership and channels.
package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kenshaw/emoji"

	"github.com/memohai/openchat-bot/internal/agent"
	"github.com/memohai/openchat-bot/internal/installation"
	"github.com/memohai/openchat-bot/internal/openchat"
)

var (
	// ErrUnknownAction means no action has the requested name or simile.
	ErrUnknownAction = errors.New("unknown action")
	// ErrNoInstallations means the bot is not installed anywhere yet.
	ErrNoInstallations = errors.New("bot has no installations")
	// ErrMissingInput means a required option or message field is absent.
	ErrMissingInput = errors.New("missing action input")
	// ErrPlatform wraps failed platform calls.
	ErrPlatform = errors.New("platform call failed")
)

// Request is one action invocation: the triggering runtime message plus
// action-specific options.
type Request struct {
	Message agent.Memory    `json:"message"`
	Options json.RawMessage `json:"options,omitempty"`
}

// Result mirrors the runtime callback payload.
type Result struct {
	Text    string         `json:"text"`
	Content map[string]any `json:"content"`
}

// PollConfig holds optional poll settings.
type PollConfig struct {
	AllowMultipleVotes     bool   `json:"allowMultipleVotes"`
	ShowVotesBeforeEndDate *bool  `json:"showVotesBeforeEndDate"`
	EndDate                *int64 `json:"endDate"`
	Anonymous              bool   `json:"anonymous"`
}

// Options are the typed action options. Alternate spellings are resolved by
// the accessor methods.
type Options struct {
	Scope       *openchat.Scope `json:"scope"`
	MessageID   openchat.ID     `json:"messageId"`
	Reaction    string          `json:"reaction"`
	Emoji       string          `json:"emoji"`
	UserIDs     []string        `json:"userIds"`
	Users       []string        `json:"users"`
	Name        string          `json:"name"`
	ChannelName string          `json:"channelName"`
	Description string          `json:"description"`
	IsPublic    *bool           `json:"isPublic"`
	ChannelID   openchat.ID     `json:"channelId"`
	Question    string          `json:"question"`
	Text        string          `json:"text"`
	PollOptions []string        `json:"options"`
	Config      PollConfig      `json:"config"`
}

// DefaultReaction is used when no reaction is given.
const DefaultReaction = "👍"

func (o Options) messageID(msg agent.Memory) string {
	if o.MessageID != "" {
		return string(o.MessageID)
	}
	return msg.Content.InReplyTo
}

// reaction returns the requested reaction with ":alias:" shortcodes replaced
// by their emoji.
func (o Options) reaction() string {
	r := strings.TrimSpace(o.Reaction)
	if r == "" {
		r = strings.TrimSpace(o.Emoji)
	}
	if r == "" {
		return DefaultReaction
	}
	return emoji.ReplaceAliases(r)
}

func (o Options) userIDs() []string {
	if len(o.UserIDs) > 0 {
		return o.UserIDs
	}
	return o.Users
}

func (o Options) channelName() string {
	if o.Name != "" {
		return o.Name
	}
	return o.ChannelName
}

func (o Options) public() bool {
	return o.IsPublic == nil || *o.IsPublic
}

func decodeOptions(raw json.RawMessage) (Options, error) {
	var opts Options
	if len(raw) == 0 || string(raw) == "null" {
		return opts, nil
	}
	if err := json.Unmarshal(raw, &opts); err != nil {
		return opts, fmt.Errorf("%w: options: %w", ErrMissingInput, err)
	}
	return opts, nil
}

// call is the per-invocation context handed to an action handler.
type call struct {
	set  *Set
	req  Request
	opts Options
}

type handlerFunc func(ctx context.Context, c *call) (Result, error)

// Action is one runtime-invocable operation.
type Action struct {
	Name        string
	Description string
	Similes     []string
	handle      handlerFunc
}

// Descriptor is the listing form of an action.
type Descriptor struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Similes     []string `json:"similes"`
}

// Set holds the actions and the collaborators they share.
type Set struct {
	actions  []*Action
	index    map[string]*Action
	registry *installation.Registry
	resolver *installation.Resolver
	factory  openchat.Factory
	logger   *slog.Logger
}

// NewSet creates the action set.
func NewSet(log *slog.Logger, registry *installation.Registry, resolver *installation.Resolver, factory openchat.Factory) *Set {
	s := &Set{
		index:    map[string]*Action{},
		registry: registry,
		resolver: resolver,
		factory:  factory,
		logger:   log.With(slog.String("component", "actions")),
	}
	for _, a := range all() {
		s.actions = append(s.actions, a)
		s.index[strings.ToUpper(a.Name)] = a
		for _, simile := range a.Similes {
			s.index[strings.ToUpper(simile)] = a
		}
	}
	return s
}

func all() []*Action {
	return []*Action{
		sendMessageAction(),
		sendMediaAction(),
		createPollAction(),
		reactAction(),
		removeReactionAction(),
		deleteMessageAction(),
		pinMessageAction(),
		unpinMessageAction(),
		createChannelAction(),
		deleteChannelAction(),
		inviteMembersAction(),
		removeMembersAction(),
	}
}

// List describes every action in registration order.
func (s *Set) List() []Descriptor {
	out := make([]Descriptor, 0, len(s.actions))
	for _, a := range s.actions {
		out = append(out, Descriptor{Name: a.Name, Description: a.Description, Similes: a.Similes})
	}
	return out
}

// Lookup finds an action by name or simile, case-insensitively.
func (s *Set) Lookup(name string) (*Action, bool) {
	a, ok := s.index[strings.ToUpper(strings.TrimSpace(name))]
	return a, ok
}

// Validate reports whether actions can run at all: the bot must be installed somewhere.
func (s *Set) Validate() bool {
	return s.registry.Len() > 0
}

// Run validates and executes the named action.
func (s *Set) Run(ctx context.Context, name string, req Request) (Result, error) {
	a, ok := s.Lookup(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	if !s.Validate() {
		return Result{}, ErrNoInstallations
	}
	opts, err := decodeOptions(req.Options)
	if err != nil {
		return Result{}, err
	}
	res, err := a.handle(ctx, &call{set: s, req: req, opts: opts})
	if err != nil {
		s.logger.Warn("action failed", slog.String("action", a.Name), slog.Any("error", err))
	}
	return res, err
}

// target resolves the installation an action addresses, checks that it holds
// at least one of perms and returns a client for it. A nil client with a
// non-empty Result means permission was denied.
func (c *call) target(match installation.Predicate, what string, perms ...openchat.Permission) (installation.Installation, openchat.Client, *Result, error) {
	inst, err := c.resolve(match)
	if err != nil {
		return installation.Installation{}, nil, nil, err
	}
	if len(perms) > 0 && !inst.Permissions.HasAny(perms...) {
		c.set.logger.Warn("missing permission",
			slog.String("scope", inst.Key()),
			slog.String("permission", string(perms[0])),
		)
		denied := Result{
			Text:    "I don't have permission to " + what,
			Content: map[string]any{"error": "Missing permission"},
		}
		return inst, nil, &denied, nil
	}
	client, err := c.set.factory.ForScope(inst.Scope, inst.Permissions)
	if err != nil {
		return inst, nil, nil, fmt.Errorf("create client for %s: %w", inst.Key(), err)
	}
	return inst, client, nil, nil
}

// resolve prefers an explicit scope option, then the room of the triggering
// message, then the first installation satisfying match.
func (c *call) resolve(match installation.Predicate) (installation.Installation, error) {
	room := c.req.Message.RoomID
	if (c.opts.Scope != nil && !c.opts.Scope.IsZero()) || !strings.HasPrefix(room, installation.RoomPrefix) {
		return c.set.resolver.Resolve(c.opts.Scope, match)
	}
	inst, err := c.set.resolver.FromRoom(room)
	if err != nil {
		return installation.Installation{}, err
	}
	if match != nil && !match(inst) {
		return installation.Installation{}, fmt.Errorf("%w: %s does not qualify", installation.ErrUnresolved, inst.Key())
	}
	return inst, nil
}

func success(text string, content map[string]any) Result {
	if content == nil {
		content = map[string]any{}
	}
	content["success"] = true
	return Result{Text: text, Content: content}
}

func failure(op string, err error) (Result, error) {
	return Result{
		Text:    fmt.Sprintf("Failed to %s: %v", op, err),
		Content: map[string]any{"error": err.Error()},
	}, fmt.Errorf("%w: %s: %w", ErrPlatform, op, err)
}

func missing(what string) error {
	return fmt.Errorf("%w: %s", ErrMissingInput, what)
}
