package models

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Error codes returned in the "error" field of interpreter routes
const (
	ErrMessageRequired    = "message is required"
	ErrPlaceIndexRequired = "place_index_required"
	ErrSpawnFailed        = "python_spawn_failed"
	ErrChatbotFailed      = "chatbot_failed"
	ErrInvalidJSON        = "invalid_json_from_python"
)

// ProcessFailureResponse is returned when the interpreter exits non-zero without output
type ProcessFailureResponse struct {
	Error    string `json:"error"`
	ExitCode int    `json:"exitCode"`
	Stderr   string `json:"stderr"`
	TimedOut bool   `json:"timedOut,omitempty"`
}

// DecodeFailureResponse is returned when the interpreter output is not a JSON object
type DecodeFailureResponse struct {
	Error string `json:"error"`
	Raw   string `json:"raw"`
}

// MessageResponse is the plain acknowledgement used by the account routes
type MessageResponse struct {
	Message string `json:"message"`
}
