package openchat

import (
	"context"
	"fmt"
)

// Client performs platform operations within one scope. Callers check the
// installation's permissions before invoking permissioned operations.
type Client interface {
	Scope() Scope
	Permissions() Permissions

	SendMessage(ctx context.Context, msg *Message) error
	DeleteMessages(ctx context.Context, messageIDs []string) error
	AddReaction(ctx context.Context, messageID, reaction string) error
	RemoveReaction(ctx context.Context, messageID, reaction string) error
	PinMessage(ctx context.Context, messageID string) error
	UnpinMessage(ctx context.Context, messageID string) error
	InviteUsers(ctx context.Context, userIDs []string) error
	RemoveUsers(ctx context.Context, userIDs []string) error
	CreateChannel(ctx context.Context, spec ChannelSpec) (ChannelResult, error)
	DeleteChannel(ctx context.Context, channelID string) error
	ChatSummary(ctx context.Context) (ChatSummary, error)
	ChatEvents(ctx context.Context, limit int) ([]ChatEvent, error)
}

// ChannelSpec describes a channel to create inside a community.
type ChannelSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

// ChannelResult is returned by CreateChannel.
type ChannelResult struct {
	ChannelID ID `json:"channel_id"`
}

// ChatSummary describes the chat a scope addresses.
type ChatSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MemberCount int    `json:"member_count"`
	IsPublic    bool   `json:"is_public"`
}

// ChatEvent is one message from the chat history, newest first as returned by the platform.
type ChatEvent struct {
	MessageID ID     `json:"message_id"`
	Sender    string `json:"sender"`
	Text      string `json:"text,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// APIError is a non-2xx gateway response.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("openchat %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("openchat %s: status %d: %s", e.Op, e.Status, e.Body)
}
