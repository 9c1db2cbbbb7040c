package handlers

// Plain-text bodies of the platform-facing endpoints.
const (
	TextOK              = "OK"
	TextInvalidPayload  = "Invalid notification payload"
	TextInternalError   = "Internal server error"
	TextTooManyRequests = "Too many requests"
)

const maxRequestBodyBytes = 1 << 20

// ErrorResponse is the runtime API error body.
type ErrorResponse struct {
	Message string `json:"message"`
}
