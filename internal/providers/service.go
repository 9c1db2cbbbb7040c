// Package providers supplies platform context (installations, chat details,
// recent history) to the agent runtime.
package providers

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/memohai/openchat-bot/internal/agent"
	"github.com/memohai/openchat-bot/internal/installation"
	"github.com/memohai/openchat-bot/internal/openchat"
)

type getFunc func(ctx context.Context, mem agent.Memory) Result

type provider struct {
	Descriptor
	get getFunc
}

// Service holds the providers and the collaborators they share.
type Service struct {
	providers []provider
	registry  *installation.Registry
	resolver  *installation.Resolver
	factory   openchat.Factory
	logger    *slog.Logger
	location  *time.Location
}

// NewService creates the provider set.
func NewService(log *slog.Logger, registry *installation.Registry, resolver *installation.Resolver, factory openchat.Factory) *Service {
	s := &Service{
		registry: registry,
		resolver: resolver,
		factory:  factory,
		logger:   log.With(slog.String("service", "providers")),
		location: time.UTC,
	}
	s.providers = []provider{
		{Descriptor{NameChatContext, "Provides the OpenChat installations and the chat the current message came from"}, s.chatContext},
		{Descriptor{NameChatDetails, "Provides detailed information about the current OpenChat chat/group/channel"}, s.chatDetails},
		{Descriptor{NameMessageHistory, "Provides recent message history from OpenChat chat"}, s.messageHistory},
	}
	return s
}

// List describes every provider.
func (s *Service) List() []Descriptor {
	out := make([]Descriptor, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, p.Descriptor)
	}
	return out
}

// Get runs the named provider for mem.
func (s *Service) Get(ctx context.Context, name string, mem agent.Memory) (Result, error) {
	for _, p := range s.providers {
		if strings.EqualFold(p.Name, name) {
			return p.get(ctx, mem), nil
		}
	}
	return Result{}, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
}

// pick returns the installation for mem's room when it is a platform room,
// otherwise the first installation.
func (s *Service) pick(mem agent.Memory) (installation.Installation, bool) {
	if strings.HasPrefix(mem.RoomID, installation.RoomPrefix) {
		inst, err := s.resolver.FromRoom(mem.RoomID)
		return inst, err == nil
	}
	inst, err := s.resolver.Resolve(nil, nil)
	return inst, err == nil
}

func permissionList(p openchat.Permissions) string {
	return strings.Join(p.Strings(), ", ")
}

func (s *Service) chatContext(_ context.Context, mem agent.Memory) Result {
	all := s.registry.All()
	if len(all) == 0 {
		return Result{Text: "OpenChat: Not installed in any chats"}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "OpenChat: Installed in %d chat(s)", len(all))
	for _, inst := range all {
		fmt.Fprintf(&b, "\n- %s %s: %s", inst.Scope.Kind, inst.Scope.ChatID, permissionList(inst.Permissions))
	}
	if strings.HasPrefix(mem.RoomID, installation.RoomPrefix) {
		if inst, err := s.resolver.FromRoom(mem.RoomID); err == nil {
			fmt.Fprintf(&b, "\nCurrent chat: %s %s", inst.Scope.Kind, inst.Scope.ChatID)
		}
	}
	return Result{Text: b.String(), Data: len(all)}
}

func (s *Service) chatDetails(ctx context.Context, mem agent.Memory) Result {
	if s.registry.Len() == 0 {
		return Result{Text: "OpenChat: No chat details available"}
	}
	inst, ok := s.pick(mem)
	if !ok {
		return Result{Text: "OpenChat: Chat details not available"}
	}
	scope, perms := inst.Scope, permissionList(inst.Permissions)

	basic := fmt.Sprintf("OpenChat %s (%s)\n- Permissions: %s", scope.Kind, scope.ChatID, perms)
	if inst.Permissions.Has(openchat.PermReadChatSummary) {
		client, err := s.factory.ForScope(inst.Scope, inst.Permissions)
		if err == nil {
			var summary openchat.ChatSummary
			summary, err = client.ChatSummary(ctx)
			if err == nil {
				return Result{Text: detailsText(scope.Kind, summary, perms), Data: summary}
			}
		}
		s.logger.Warn("could not fetch chat details", slog.String("scope", inst.Key()), slog.Any("error", err))
		return Result{Text: basic}
	}
	return Result{Text: basic + "\n- Bot installed: Yes"}
}

func detailsText(kind openchat.ScopeKind, summary openchat.ChatSummary, perms string) string {
	orDefault := func(s, def string) string {
		if s == "" {
			return def
		}
		return s
	}
	members := "Unknown"
	if summary.MemberCount > 0 {
		members = fmt.Sprint(summary.MemberCount)
	}
	visibility := "Private"
	if summary.IsPublic {
		visibility = "Public"
	}
	return fmt.Sprintf("OpenChat %s Details:\n- Name: %s\n- Description: %s\n- Members: %s\n- Type: %s\n- Permissions: %s",
		kind, orDefault(summary.Name, "Unknown"), orDefault(summary.Description, "N/A"), members, visibility, perms)
}

func (s *Service) messageHistory(ctx context.Context, mem agent.Memory) Result {
	if s.registry.Len() == 0 {
		return Result{Text: "OpenChat: No message history available"}
	}
	inst, ok := s.pick(mem)
	if !ok {
		return Result{Text: "OpenChat: Message history not available"}
	}
	if !inst.Permissions.Has(openchat.PermReadMessages) {
		return Result{Text: "OpenChat: Missing ReadMessages permission"}
	}

	client, err := s.factory.ForScope(inst.Scope, inst.Permissions)
	if err != nil {
		s.logger.Warn("could not create client", slog.String("scope", inst.Key()), slog.Any("error", err))
		return Result{Text: "OpenChat: Error retrieving message history"}
	}
	events, err := client.ChatEvents(ctx, HistoryLimit)
	if err != nil {
		s.logger.Warn("could not fetch message history", slog.String("scope", inst.Key()), slog.Any("error", err))
		return Result{Text: "OpenChat: Error retrieving message history"}
	}
	if len(events) == 0 {
		return Result{Text: "OpenChat: No recent messages"}
	}

	oldestFirst := slices.Clone(events)
	slices.Reverse(oldestFirst)
	lines := make([]string, 0, len(oldestFirst))
	for _, ev := range oldestFirst {
		sender := ev.Sender
		if sender == "" {
			sender = "Unknown"
		}
		text := ev.Text
		if text == "" {
			text = "[Media message]"
		}
		ts := time.UnixMilli(ev.Timestamp).In(s.location).Format(time.TimeOnly)
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", ts, sender, text))
	}
	return Result{Text: "Recent OpenChat messages:\n" + strings.Join(lines, "\n"), Data: oldestFirst}
}
