package notify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/memohai/openchat-bot/internal/openchat"
)

// EventType is the canonical notification type.
type EventType string

const (
	EventInstalled    EventType = "installed"
	EventUninstalled  EventType = "uninstalled"
	EventMessage      EventType = "message"
	EventMemberJoined EventType = "member_joined"
	EventMemberLeft   EventType = "member_left"
	EventReaction     EventType = "reaction"
	EventUnknown      EventType = "unknown"
)

// eventAliases maps squashed spellings (lowercase, no separators) to canonical types.
var eventAliases = map[string]EventType{
	"installed":            EventInstalled,
	"botinstalled":         EventInstalled,
	"botinstalledevent":    EventInstalled,
	"uninstalled":          EventUninstalled,
	"botuninstalled":       EventUninstalled,
	"botuninstalledevent":  EventUninstalled,
	"message":              EventMessage,
	"newmessage":           EventMessage,
	"messagecreated":       EventMessage,
	"chatmessage":          EventMessage,
	"memberjoined":         EventMemberJoined,
	"membersjoined":        EventMemberJoined,
	"participantjoined":    EventMemberJoined,
	"userjoined":           EventMemberJoined,
	"memberleft":           EventMemberLeft,
	"membersleft":          EventMemberLeft,
	"participantleft":      EventMemberLeft,
	"userleft":             EventMemberLeft,
	"reaction":             EventReaction,
	"reactionadded":        EventReaction,
	"messagereaction":      EventReaction,
	"messagereactionadded": EventReaction,
}

// fieldAliases lists, per canonical field, the spellings seen on the wire.
var fieldAliases = map[string][]string{
	"type":        {"type", "event_type", "eventType", "kind", "event"},
	"scope":       {"scope", "chat_scope", "chatScope", "location"},
	"kind":        {"kind", "chat_kind", "chatKind", "chat_type", "chatType"},
	"chatId":      {"chatId", "chat_id", "chatID", "group_id", "groupId", "channel_id", "channelId", "user_id", "userId"},
	"communityId": {"communityId", "community_id", "communityID"},
	"apiGateway":  {"apiGateway", "api_gateway", "bot_api_gateway", "botApiGateway"},
	"permissions": {"permissions", "granted_permissions", "grantedPermissions", "autonomous_permissions"},
	"message":     {"message", "msg"},
	"text":        {"text", "content", "body"},
	"messageId":   {"messageId", "message_id", "messageID", "id"},
	"replyTo":     {"replyTo", "reply_to", "inReplyTo", "replies_to", "repliesTo"},
	"sender":      {"sender", "sender_id", "senderId", "initiator", "user_id", "userId"},
	"member":      {"member", "user", "participant"},
	"members":     {"members", "users", "participants"},
	"username":    {"username", "user_name", "displayName", "display_name", "name"},
	"reaction":    {"reaction", "emoji"},
}

// wrapperKeys are envelopes the event body may be nested under.
var wrapperKeys = []string{"data", "event", "notification", "payload"}

// Member is a user named by a membership event.
type Member struct {
	UserID   string
	Username string
}

// MessageEvent is the message carried by a message or reaction event.
type MessageEvent struct {
	ID      string
	Text    string
	ReplyTo string
}

// Event is a normalized notification.
type Event struct {
	Type        EventType
	RawType     string
	Scope       openchat.Scope
	Permissions openchat.Permissions
	Message     MessageEvent
	Sender      string
	Members     []Member
	Reaction    string
}

// SquashType lowercases name and strips separators for alias lookup.
func SquashType(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ', '.':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}

// LookupType maps a raw type spelling onto the canonical set.
func LookupType(name string) EventType {
	if t, ok := eventAliases[SquashType(name)]; ok {
		return t
	}
	return EventUnknown
}

// Normalize maps a decoded payload onto an Event. The type may be a field at
// the top level, a field of a wrapper object, or the single key of a
// tagged-union payload.
func Normalize(raw map[string]any) Event {
	body, rawType := locate(raw)
	ev := Event{Type: LookupType(rawType), RawType: rawType}
	if ev.Type == EventUnknown {
		return ev
	}

	if scope, ok := lookup(body, "scope"); ok {
		ev.Scope = parseScope(scope)
	}
	if perms, ok := lookup(body, "permissions"); ok {
		ev.Permissions = parsePermissions(perms)
	}
	if sender, ok := lookup(body, "sender"); ok {
		ev.Sender = idString(sender)
	}
	if msg, ok := lookup(body, "message"); ok {
		ev.Message = parseMessage(msg)
	} else if text, ok := lookup(body, "text"); ok {
		ev.Message.Text = textOf(text)
	}
	if ev.Sender == "" {
		if m, ok := asMap(mustLookup(body, "message")); ok {
			if sender, ok := lookup(m, "sender"); ok {
				ev.Sender = idString(sender)
			}
		}
	}
	if reaction, ok := lookup(body, "reaction"); ok {
		ev.Reaction = textOf(reaction)
	}
	ev.Members = parseMembers(body)
	return ev
}

func locate(raw map[string]any) (map[string]any, string) {
	if t := typeString(raw); t != "" {
		for _, w := range wrapperKeys {
			if inner, ok := asMap(raw[w]); ok {
				return merge(raw, inner), t
			}
		}
		return raw, t
	}
	for _, w := range wrapperKeys {
		if inner, ok := asMap(raw[w]); ok {
			if t := typeString(inner); t != "" {
				return merge(raw, inner), t
			}
		}
	}
	if len(raw) == 1 {
		for k, v := range raw {
			if LookupType(k) != EventUnknown {
				inner, _ := asMap(v)
				return inner, k
			}
		}
	}
	return raw, ""
}

// typeString returns the event type field when it is a string. "event" may
// also hold the wrapper object, which is skipped here.
func typeString(m map[string]any) string {
	for _, name := range fieldAliases["type"] {
		if s, ok := m[name].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// merge overlays inner on outer without mutating either.
func merge(outer, inner map[string]any) map[string]any {
	out := make(map[string]any, len(outer)+len(inner))
	for k, v := range outer {
		out[k] = v
	}
	for k, v := range inner {
		out[k] = v
	}
	return out
}

func lookup(m map[string]any, field string) (any, bool) {
	for _, name := range fieldAliases[field] {
		if v, ok := m[name]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func mustLookup(m map[string]any, field string) any {
	v, _ := lookup(m, field)
	return v
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok && m != nil
}

// parseScope accepts {kind, chatId, communityId} objects as well as the
// tagged forms {"Group": "42"}, {"Chat": {"Group": "42"}} and
// {"Channel": {"community_id": "7", "channel_id": "9"}}.
func parseScope(v any) openchat.Scope {
	m, ok := asMap(v)
	if !ok {
		return openchat.Scope{}
	}
	var scope openchat.Scope
	if kind, ok := lookup(m, "kind"); ok {
		scope.Kind = openchat.ScopeKind(strings.ToLower(idString(kind)))
		scope.ChatID = openchat.ID(idString(mustLookup(m, "chatId")))
		scope.CommunityID = openchat.ID(idString(mustLookup(m, "communityId")))
	} else {
		for k, inner := range m {
			switch strings.ToLower(k) {
			case "chat":
				tagged := parseScope(inner)
				tagged.APIGateway = textOf(mustLookup(m, "apiGateway"))
				return tagged
			case string(openchat.KindDirect), string(openchat.KindGroup), string(openchat.KindCommunity):
				scope.Kind = openchat.ScopeKind(strings.ToLower(k))
				scope.ChatID = openchat.ID(idString(inner))
			case string(openchat.KindChannel):
				scope.Kind = openchat.KindChannel
				if ch, ok := asMap(inner); ok {
					scope.ChatID = openchat.ID(idString(mustLookup(ch, "chatId")))
					scope.CommunityID = openchat.ID(idString(mustLookup(ch, "communityId")))
				} else {
					scope.ChatID = openchat.ID(idString(inner))
				}
			}
		}
	}
	if gw, ok := lookup(m, "apiGateway"); ok {
		scope.APIGateway = textOf(gw)
	}
	if scope.Kind == openchat.KindCommunity && scope.CommunityID == "" {
		scope.CommunityID = scope.ChatID
	}
	return scope
}

// parsePermissions accepts a flat list of names, a {chat, community, message}
// object of name lists, or the same object of bitfields. Message Text grants
// SendMessages.
func parsePermissions(v any) openchat.Permissions {
	switch p := v.(type) {
	case []any:
		return openchat.NewPermissions(stringList(p))
	case []string:
		return openchat.NewPermissions(p)
	case map[string]any:
		var set openchat.PermissionSet
		var bits openchat.EncodedPermissions
		numeric := false
		for key, dst := range map[string]*[]string{"chat": &set.Chat, "community": &set.Community, "message": &set.Message} {
			switch val := p[key].(type) {
			case []any:
				*dst = stringList(val)
			case nil:
			default:
				if n, ok := uintValue(val); ok {
					numeric = true
					switch key {
					case "chat":
						bits.Chat = n
					case "community":
						bits.Community = n
					case "message":
						bits.Message = n
					}
				}
			}
		}
		if numeric {
			decoded := bits.Decode()
			set.Chat = append(set.Chat, decoded.Chat...)
			set.Community = append(set.Community, decoded.Community...)
			set.Message = append(set.Message, decoded.Message...)
		}
		names := append(append([]string{}, set.Chat...), set.Community...)
		for _, m := range set.Message {
			if m == "Text" {
				names = append(names, string(openchat.PermSendMessages))
			}
		}
		return openchat.NewPermissions(names)
	}
	return nil
}

func parseMessage(v any) MessageEvent {
	m, ok := asMap(v)
	if !ok {
		return MessageEvent{Text: textOf(v)}
	}
	var out MessageEvent
	out.ID = idString(mustLookup(m, "messageId"))
	out.Text = textOf(mustLookup(m, "text"))
	out.ReplyTo = idString(mustLookup(m, "replyTo"))
	return out
}

func parseMembers(body map[string]any) []Member {
	var raw []any
	if list, ok := lookup(body, "members"); ok {
		raw, _ = list.([]any)
	}
	if member, ok := lookup(body, "member"); ok {
		raw = append(raw, member)
	}
	out := make([]Member, 0, len(raw))
	for _, item := range raw {
		if m, ok := asMap(item); ok {
			out = append(out, Member{
				UserID:   idString(mustLookup(m, "sender")),
				Username: textOf(mustLookup(m, "username")),
			})
			continue
		}
		if id := idString(item); id != "" {
			out = append(out, Member{UserID: id})
		}
	}
	if len(out) == 0 {
		if name, ok := lookup(body, "username"); ok {
			out = append(out, Member{Username: textOf(name)})
		}
	}
	return out
}

// textOf extracts text from a string or a content object such as
// {"Text": {"text": "hi"}}.
func textOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case map[string]any:
		for _, key := range []string{"Text", "text", "content"} {
			if inner, ok := t[key]; ok {
				return textOf(inner)
			}
		}
	}
	return ""
}

// idString renders an identifier that may arrive as a string or any number type.
func idString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t)
	}
	return ""
}

func uintValue(v any) (uint32, bool) {
	s := idString(v)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func stringList(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := textOf(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
