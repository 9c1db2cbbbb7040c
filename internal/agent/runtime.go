package agent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceOpenChat marks content that originated on the platform.
const SourceOpenChat = "openchat"

// Attachment is a media reference carried by message content.
type Attachment struct {
	URL         string `json:"url"`
	Type        string `json:"type,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Content is the body of a runtime memory.
type Content struct {
	Text        string       `json:"text"`
	Source      string       `json:"source,omitempty"`
	InReplyTo   string       `json:"inReplyTo,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Memory is one message as seen by the runtime.
type Memory struct {
	ID        uuid.UUID `json:"id"`
	AgentID   uuid.UUID `json:"agentId"`
	EntityID  uuid.UUID `json:"entityId"`
	RoomID    string    `json:"roomId"`
	RoomUUID  uuid.UUID `json:"roomUuid"`
	Content   Content   `json:"content"`
	MessageID string    `json:"messageId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoomUUID derives a stable room UUID from a room id; an empty id yields a random one.
func RoomUUID(roomID string) uuid.UUID {
	if roomID == "" {
		return uuid.New()
	}
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(roomID))
}

// EntityUUID derives a stable user UUID from a platform user id; empty yields a random one.
func EntityUUID(userID string) uuid.UUID {
	if userID == "" {
		return uuid.New()
	}
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte("openchat-user-"+userID))
}

// Runtime couples the persona with a text generator.
type Runtime struct {
	AgentID   uuid.UUID
	Character Character
	generator Generator
	logger    *slog.Logger
}

// NewRuntime creates a runtime. A nil generator falls back to StaticGenerator.
func NewRuntime(log *slog.Logger, character Character, generator Generator) *Runtime {
	if generator == nil {
		generator = StaticGenerator{Character: character}
	}
	return &Runtime{
		AgentID:   uuid.NewSHA1(uuid.NameSpaceDNS, []byte("agent-"+character.Name)),
		Character: character,
		generator: generator,
		logger:    log.With(slog.String("component", "agent")),
	}
}

// Name is the persona name.
func (r *Runtime) Name() string { return r.Character.Name }

// NewMemory builds a platform-sourced memory for text sent by userID in roomID.
func (r *Runtime) NewMemory(roomID, userID, text string) Memory {
	return Memory{
		ID:       uuid.New(),
		AgentID:  r.AgentID,
		EntityID: EntityUUID(userID),
		RoomID:   roomID,
		RoomUUID: RoomUUID(roomID),
		Content: Content{
			Text:   text,
			Source: SourceOpenChat,
		},
		CreatedAt: time.Now(),
	}
}

// Reply generates a trimmed persona reply to message.
func (r *Runtime) Reply(ctx context.Context, message string) (string, error) {
	text, err := r.generator.Generate(ctx, ChatPrompt(r.Character, message))
	if err != nil {
		r.logger.Error("text generation failed", slog.Any("error", err))
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackGreeting, nil
	}
	return text, nil
}

// IsMentioned reports whether text mentions the persona as "@<name>".
func (r *Runtime) IsMentioned(text string) bool {
	return strings.Contains(text, "@"+r.Character.Name)
}

// StripMention removes "@<name>" mentions from text.
func (r *Runtime) StripMention(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "@"+r.Character.Name, ""))
}
