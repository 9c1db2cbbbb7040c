package openchat

import (
	"encoding/json"
	"testing"
)

func TestIDUnmarshal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  ID
	}{
		{"string", `"42"`, "42"},
		{"integer", `42`, "42"},
		{"large integer", `18446744073709`, "18446744073709"},
		{"canister text", `"rrkah-fqaaa-aaaaa-aaaaq-cai"`, "rrkah-fqaaa-aaaaa-aaaaq-cai"},
		{"null", `null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var id ID
			if err := json.Unmarshal([]byte(tt.input), &id); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.input, err)
			}
			if id != tt.want {
				t.Fatalf("got %q, want %q", id, tt.want)
			}
		})
	}
}

func TestIDUnmarshalRejectsObjects(t *testing.T) {
	t.Parallel()
	var id ID
	if err := json.Unmarshal([]byte(`{"a":1}`), &id); err == nil {
		t.Fatal("expected error for object")
	}
}

func TestScopeKeyFromNumericChatID(t *testing.T) {
	t.Parallel()
	var scope Scope
	if err := json.Unmarshal([]byte(`{"kind":"group","chatId":42}`), &scope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if scope.Key() != "group-42" {
		t.Fatalf("unexpected key %q", scope.Key())
	}
}

func TestParseScopeKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		key    string
		kind   ScopeKind
		chatID string
		ok     bool
	}{
		{"group-42", KindGroup, "42", true},
		{"channel-abc-def-cai", KindChannel, "abc-def-cai", true},
		{"direct-", "", "", false},
		{"planet-1", "", "", false},
		{"nodash", "", "", false},
	}
	for _, tt := range tests {
		kind, chatID, ok := ParseScopeKey(tt.key)
		if ok != tt.ok || kind != tt.kind || chatID != tt.chatID {
			t.Errorf("ParseScopeKey(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.key, kind, chatID, ok, tt.kind, tt.chatID, tt.ok)
		}
	}
}
