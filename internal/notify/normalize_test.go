package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/openchat-bot/internal/openchat"
)

func TestLookupType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  EventType
	}{
		{"bot_installed", EventInstalled},
		{"BotInstalled", EventInstalled},
		{"bot-uninstalled", EventUninstalled},
		{"Message", EventMessage},
		{"MembersJoined", EventMemberJoined},
		{"member_left", EventMemberLeft},
		{"ReactionAdded", EventReaction},
		{"bot_upgraded", EventUnknown},
		{"", EventUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LookupType(tt.input), tt.input)
	}
}

func TestNormalizeShapes(t *testing.T) {
	t.Parallel()
	want := openchat.Scope{Kind: openchat.KindGroup, ChatID: "42"}

	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"flat snake_case", map[string]any{
			"event_type":          "bot_installed",
			"scope":               map[string]any{"kind": "group", "chat_id": "42"},
			"granted_permissions": []any{"SendMessages"},
		}},
		{"nested under data", map[string]any{
			"type": "BotInstalled",
			"data": map[string]any{
				"scope":       map[string]any{"kind": "group", "chatId": int64(42)},
				"permissions": []any{"SendMessages"},
			},
		}},
		{"wrapper carries type", map[string]any{
			"event": map[string]any{
				"type":        "installed",
				"scope":       map[string]any{"kind": "group", "chatId": "42"},
				"permissions": []any{"SendMessages"},
			},
		}},
		{"tagged union", map[string]any{
			"BotInstalled": map[string]any{
				"location":    map[string]any{"Group": "42"},
				"permissions": map[string]any{"chat": []any{}, "message": []any{"Text"}},
			},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Normalize(tt.raw)
			assert.Equal(t, EventInstalled, ev.Type)
			assert.Equal(t, want.Key(), ev.Scope.Key())
			assert.True(t, ev.Permissions.Has(openchat.PermSendMessages))
		})
	}
}

func TestNormalizeMessage(t *testing.T) {
	t.Parallel()
	ev := Normalize(map[string]any{
		"type":  "message",
		"scope": map[string]any{"Chat": map[string]any{"Direct": "7"}},
		"message": map[string]any{
			"message_id": uint64(99),
			"content":    map[string]any{"Text": map[string]any{"text": "hello @Eliza"}},
			"sender":     "user-1",
			"reply_to":   "98",
		},
	})
	assert.Equal(t, EventMessage, ev.Type)
	assert.Equal(t, openchat.KindDirect, ev.Scope.Kind)
	assert.Equal(t, openchat.ID("7"), ev.Scope.ChatID)
	assert.Equal(t, MessageEvent{ID: "99", Text: "hello @Eliza", ReplyTo: "98"}, ev.Message)
	assert.Equal(t, "user-1", ev.Sender)
}

func TestNormalizeChannelScope(t *testing.T) {
	t.Parallel()
	ev := Normalize(map[string]any{
		"type":  "member_joined",
		"scope": map[string]any{"Channel": map[string]any{"community_id": "7", "channel_id": "9"}},
		"members": []any{
			map[string]any{"user_id": "u1", "username": "alice"},
			"u2",
		},
	})
	assert.Equal(t, openchat.Scope{Kind: openchat.KindChannel, ChatID: "9", CommunityID: "7"}, ev.Scope)
	require.Len(t, ev.Members, 2)
	assert.Equal(t, Member{UserID: "u1", Username: "alice"}, ev.Members[0])
	assert.Equal(t, Member{UserID: "u2"}, ev.Members[1])
}

func TestNormalizeBitfieldPermissions(t *testing.T) {
	t.Parallel()
	bits := openchat.PermissionSet{Chat: []string{"DeleteMessages"}, Message: []string{"Text"}}.Encode()
	ev := Normalize(map[string]any{
		"type":        "installed",
		"scope":       map[string]any{"kind": "group", "chatId": "1"},
		"permissions": map[string]any{"chat": bits.Chat, "community": 0, "message": bits.Message},
	})
	assert.True(t, ev.Permissions.Has(openchat.PermDeleteMessages))
	assert.True(t, ev.Permissions.Has(openchat.PermSendMessages))
}

func TestNormalizeUnknown(t *testing.T) {
	t.Parallel()
	ev := Normalize(map[string]any{"type": "bot_upgraded", "scope": map[string]any{"kind": "group", "chatId": "1"}})
	assert.Equal(t, EventUnknown, ev.Type)
	assert.Equal(t, "bot_upgraded", ev.RawType)
	assert.True(t, ev.Scope.IsZero())

	assert.Equal(t, EventUnknown, Normalize(map[string]any{}).Type)
}
