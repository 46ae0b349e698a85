package schema

import (
	"encoding/json"
	"strings"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Message is a single turn in a conversation with the model.
type Message struct {
	Role    string         `json:"role"`          // "user" or "assistant"
	Content []ContentBlock `json:"content"`       // Ordered content parts
	Meta    map[string]any `json:"meta,omitzero"` // Provider-specific metadata
}

// ContentBlock is one part of a message. Exactly one field is set.
type ContentBlock struct {
	Text       *string     `json:"text,omitempty"`
	ToolCall   *ToolCall   `json:"tool_call,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// ToolCall is a tool invocation requested by the model
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input,omitempty"`
}

// ToolResult is the outcome of dispatching a tool call. Either Content or
// Error is set, and a failed call always has zero cost.
type ToolResult struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Content json.RawMessage `json:"content,omitempty"`
	Error   string          `json:"error,omitempty"`
	Cost    float64         `json:"cost"`
}

// Conversation is an ordered list of messages
type Conversation []*Message

////////////////////////////////////////////////////////////////////////////////
// CONSTANTS

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewTextMessage returns a message with a single text block
func NewTextMessage(role, text string) *Message {
	return &Message{
		Role:    role,
		Content: []ContentBlock{{Text: types.Ptr(text)}},
	}
}

// NewToolResult returns a successful tool result, with the payload encoded
// as JSON
func NewToolResult(id, name string, v any, cost float64) ToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return NewToolError(id, name, err)
	}
	return ToolResult{
		ID:      id,
		Name:    name,
		Content: json.RawMessage(data),
		Cost:    cost,
	}
}

// NewToolError returns a failed tool result, which carries no cost
func NewToolError(id, name string, err error) ToolResult {
	return ToolResult{
		ID:    id,
		Name:  name,
		Error: err.Error(),
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Text returns the concatenated text content from all text blocks
func (m Message) Text() string {
	var result []string
	for _, block := range m.Content {
		if block.Text != nil {
			result = append(result, *block.Text)
		}
	}
	return strings.Join(result, "\n")
}

// ToolCalls returns all tool calls in the message, in order
func (m Message) ToolCalls() []ToolCall {
	var result []ToolCall
	for _, block := range m.Content {
		if block.ToolCall != nil {
			result = append(result, *block.ToolCall)
		}
	}
	return result
}

// IsError returns true if the tool call failed
func (r ToolResult) IsError() bool {
	return r.Error != ""
}

// Args decodes the tool call input into a map. Empty input returns an
// empty map.
func (c ToolCall) Args() map[string]any {
	args := make(map[string]any)
	if len(c.Input) > 0 {
		_ = json.Unmarshal(c.Input, &args)
	}
	return args
}

// Append adds a message to the conversation
func (c *Conversation) Append(message *Message) {
	*c = append(*c, message)
}

// Clone returns a shallow copy of the conversation, so appending to the
// copy leaves the original untouched
func (c Conversation) Clone() Conversation {
	result := make(Conversation, len(c))
	copy(result, c)
	return result
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (m Message) String() string {
	return types.Stringify(m)
}

func (r ToolResult) String() string {
	return types.Stringify(r)
}
