// Package chat models chat history in the LLM wire shape and reconciles it
// into a context the provider accepts.
package chat

import (
	"encoding/json"
	"strings"
	"time"
)

// Role is the author of a message.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolTypeFunction is the only tool type the provider supports.
const ToolTypeFunction = "function"

// FunctionCall is the function an assistant asked to run. Arguments is raw JSON text.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is one tool invocation requested by an assistant message.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// Message is one chat entry.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// ToolDefinition describes a callable tool. Parameters is a JSON schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

var now = time.Now

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content, Timestamp: now()}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: now()}
}

// NewAssistantMessage creates an assistant message, optionally requesting tool calls.
func NewAssistantMessage(content string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls, Timestamp: now()}
}

// NewToolMessage creates a tool response. Non-string results are JSON encoded.
func NewToolMessage(callID, name string, result any) Message {
	var content string
	switch v := result.(type) {
	case string:
		content = v
	case []byte:
		content = string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			data, _ = json.Marshal(map[string]any{"success": false, "message": err.Error()})
		}
		content = string(data)
	}
	return Message{Role: RoleTool, Content: content, ToolCallID: callID, Name: name, Timestamp: now()}
}

// HasToolCalls reports whether an assistant message requests tools.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// Visible reports whether the message is shown to the user.
func (m Message) Visible() bool {
	switch m.Role {
	case RoleUser:
		return true
	case RoleAssistant:
		return strings.TrimSpace(m.Content) != ""
	default:
		return false
	}
}

// DisplayMessages hides system and tool messages and assistant messages without text.
func DisplayMessages(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Visible() {
			out = append(out, m)
		}
	}
	return out
}
