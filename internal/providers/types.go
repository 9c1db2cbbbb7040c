package providers

import "errors"

// ErrUnknownProvider means no provider has the requested name.
var ErrUnknownProvider = errors.New("unknown provider")

// Result is the context a provider contributes to the runtime.
type Result struct {
	Text string `json:"text"`
	Data any    `json:"data,omitempty"`
}

// Descriptor is the listing form of a provider.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Provider names.
const (
	NameChatContext    = "openchatChatContext"
	NameChatDetails    = "openchatChatDetails"
	NameMessageHistory = "openchatMessageHistory"
)

// HistoryLimit is the number of recent messages the history provider fetches.
const HistoryLimit = 10
