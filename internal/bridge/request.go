package bridge

import (
	"fmt"
	"strings"
)

// Mode is the envelope discriminator understood by the interpreter
type Mode string

const (
	ModeChat Mode = "chat"
	ModeVibe Mode = "vibe"
)

// Turn is one prior message of a chat conversation
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the closed set of units of work the interpreter accepts.
// ChatRequest and VibeRequest are the only implementations.
type Request interface {
	Mode() Mode
	Validate() error
	envelope() any
}

// ChatRequest asks the interpreter to answer a chat message
type ChatRequest struct {
	Message string
	History []Turn
}

// VibeRequest asks the interpreter to describe the place at a 1-based index
type VibeRequest struct {
	PlaceIndex int
}

// ValidationError reports a request that must not reach the interpreter
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (r ChatRequest) Mode() Mode { return ModeChat }

func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return &ValidationError{Field: "message", Reason: "must be a non-empty string"}
	}
	return nil
}

func (r ChatRequest) envelope() any {
	history := r.History
	if history == nil {
		history = []Turn{}
	}
	return chatEnvelope{Mode: ModeChat, Message: r.Message, History: history}
}

func (r VibeRequest) Mode() Mode { return ModeVibe }

func (r VibeRequest) Validate() error {
	if r.PlaceIndex < 1 {
		return &ValidationError{Field: "place_index", Reason: "must be an integer >= 1"}
	}
	return nil
}

func (r VibeRequest) envelope() any {
	return vibeEnvelope{Mode: ModeVibe, PlaceIndex: r.PlaceIndex}
}

type chatEnvelope struct {
	Mode    Mode   `json:"mode"`
	Message string `json:"message"`
	History []Turn `json:"history"`
}

type vibeEnvelope struct {
	Mode       Mode `json:"mode"`
	PlaceIndex int  `json:"place_index"`
}
