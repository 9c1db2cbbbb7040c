// Package notify handles platform webhook notifications: decoding,
// event normalization and per-event handlers.
package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrInvalidPayload means the body is neither a MessagePack nor a JSON object.
var ErrInvalidPayload = errors.New("invalid notification payload")

// Decode parses a notification body, trying MessagePack first and JSON second.
func Decode(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrInvalidPayload
	}
	if m, err := decodeMsgpack(body); err == nil {
		return m, nil
	}
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil || m == nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return m, nil
}

func decodeMsgpack(body []byte) (map[string]any, error) {
	var v any
	dec := msgpack.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("msgpack body is %T, not a map", v)
	}
	return m, nil
}
