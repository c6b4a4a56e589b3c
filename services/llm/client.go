package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrDisabled is returned by the disabled backend. Callers surface a
// configuration hint to the user instead of failing the request.
var ErrDisabled = errors.New("llm backend disabled")

// Message roles, mirroring the chat completion wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolChoice values for ChatRequest.
const (
	ToolChoiceAuto = "auto"
	ToolChoiceNone = "none"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role       string
	Content    string
	Name       string
	ToolCallID string
	ToolCalls  []ToolCall
}

// ToolCall is a function invocation requested by the model. Arguments
// is the raw JSON argument object.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Tool declares a function the model may call. Parameters is a JSON
// Schema object describing the arguments.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ChatRequest is a single chat completion call.
type ChatRequest struct {
	Messages    []Message
	Tools       []Tool
	ToolChoice  string
	Temperature float32
}

// ChatResult is the model's reply: free text, tool calls, or both.
type ChatResult struct {
	Content   string
	ToolCalls []ToolCall
}

// Client defines the standard interface for any chat-capable LLM backend.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResult, error)
}

// Disabled is the no-credentials backend. Every call fails with
// ErrDisabled.
type Disabled struct{}

func (Disabled) Chat(context.Context, ChatRequest) (*ChatResult, error) {
	return nil, ErrDisabled
}
