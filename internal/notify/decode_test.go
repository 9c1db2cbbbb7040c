package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestDecodeMsgpack(t *testing.T) {
	t.Parallel()
	body, err := msgpack.Marshal(map[string]any{
		"type":  "bot_installed",
		"scope": map[string]any{"kind": "group", "chatId": 42},
	})
	require.NoError(t, err)

	m, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, "bot_installed", m["type"])
	scope := m["scope"].(map[string]any)
	assert.Equal(t, "42", idString(scope["chatId"]))
}

func TestDecodeJSONFallback(t *testing.T) {
	t.Parallel()
	m, err := Decode([]byte(`{"type":"message","scope":{"kind":"direct","chatId":12345678901234567890}}`))
	require.NoError(t, err)
	assert.Equal(t, "message", m["type"])
	assert.Equal(t, "12345678901234567890", idString(m["scope"].(map[string]any)["chatId"]))
}

func TestDecodeInvalid(t *testing.T) {
	t.Parallel()
	for _, body := range [][]byte{nil, []byte("   "), []byte("not a payload"), []byte("[1,2,3]"), {0x93, 0x01, 0x02, 0x03}} {
		_, err := Decode(body)
		assert.True(t, errors.Is(err, ErrInvalidPayload), "body %q", body)
	}
}
