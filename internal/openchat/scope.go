// Package openchat implements the bot side of the OpenChat bot API: scopes,
// permissions, messages, command tokens and the HTTP gateway client.
package openchat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ScopeKind is the kind of conversation a scope addresses.
type ScopeKind string

const (
	KindDirect    ScopeKind = "direct"
	KindGroup     ScopeKind = "group"
	KindChannel   ScopeKind = "channel"
	KindCommunity ScopeKind = "community"
)

// Valid reports whether k is a known scope kind.
func (k ScopeKind) Valid() bool {
	switch k {
	case KindDirect, KindGroup, KindChannel, KindCommunity:
		return true
	}
	return false
}

// ID is an opaque platform identifier. The platform sends some ids as numbers
// and others as strings; both decode into the same textual form.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: want string or number, got %s", string(data))
	}
	if i, err := n.Int64(); err == nil {
		*id = ID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Scope identifies the conversation a command, event or action targets.
type Scope struct {
	Kind        ScopeKind `json:"kind"`
	ChatID      ID        `json:"chatId"`
	CommunityID ID        `json:"communityId,omitempty"`
	APIGateway  string    `json:"apiGateway,omitempty"`
}

// Key returns the registry key "<kind>-<chatId>".
func (s Scope) Key() string {
	return ScopeKey(s.Kind, string(s.ChatID))
}

// IsZero reports whether the scope carries no chat identity.
func (s Scope) IsZero() bool {
	return s.Kind == "" && s.ChatID == ""
}

// ScopeKey builds the registry key for a kind and chat id.
func ScopeKey(kind ScopeKind, chatID string) string {
	return string(kind) + "-" + chatID
}

// ParseScopeKey splits a registry key at the first dash. Chat ids may contain dashes.
func ParseScopeKey(key string) (ScopeKind, string, bool) {
	kind, chatID, ok := strings.Cut(key, "-")
	if !ok || chatID == "" || !ScopeKind(kind).Valid() {
		return "", "", false
	}
	return ScopeKind(kind), chatID, true
}
