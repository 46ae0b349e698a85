package schema

import "encoding/json"

///////////////////////////////////////////////////////////////////////////////
// SSE EVENT NAMES

const (
	EventText       = "text"        // Incremental assistant text
	EventToolCall   = "tool_call"   // A tool call has been issued
	EventToolResult = "tool_result" // A tool call has completed
	EventDone       = "done"        // Terminal, carries the session cost
	EventError      = "error"       // Terminal, carries a message
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Event is one unit of the chat stream
type Event struct {
	Kind string `json:"event"`
	Data any    `json:"data"`
}

// TextEvent is a fragment of assistant text
type TextEvent struct {
	Text string `json:"text"`
}

// ToolCallEvent announces a tool call
type ToolCallEvent struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResultEvent reports a completed tool call
type ToolResultEvent struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Cost  float64 `json:"cost"`
	Error string  `json:"error,omitempty"`
}

// DoneEvent ends a successful stream
type DoneEvent struct {
	TotalCost float64 `json:"totalCost"`
}

// ErrorEvent ends a failed stream
type ErrorEvent struct {
	Message string `json:"message"`
}

// EventFn receives stream events in order
type EventFn func(Event)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func NewTextEvent(text string) Event {
	return Event{Kind: EventText, Data: TextEvent{Text: text}}
}

func NewToolCallEvent(call ToolCall) Event {
	return Event{Kind: EventToolCall, Data: ToolCallEvent{ID: call.ID, Name: call.Name, Args: call.Args()}}
}

func NewToolResultEvent(result ToolResult) Event {
	return Event{Kind: EventToolResult, Data: ToolResultEvent{
		ID:    result.ID,
		Name:  result.Name,
		Cost:  result.Cost,
		Error: result.Error,
	}}
}

func NewDoneEvent(totalCost float64) Event {
	return Event{Kind: EventDone, Data: DoneEvent{TotalCost: totalCost}}
}

func NewErrorEvent(err error) Event {
	return Event{Kind: EventError, Data: ErrorEvent{Message: err.Error()}}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// IsTerminal returns true for the events which end a stream
func (e Event) IsTerminal() bool {
	return e.Kind == EventDone || e.Kind == EventError
}

// DecodeEvent unmarshals raw event data, as received by a stream client,
// into a pointer to the payload type for the event kind
func DecodeEvent(kind string, data []byte) (Event, error) {
	var v any
	switch kind {
	case EventText:
		v = new(TextEvent)
	case EventToolCall:
		v = new(ToolCallEvent)
	case EventToolResult:
		v = new(ToolResultEvent)
	case EventDone:
		v = new(DoneEvent)
	case EventError:
		v = new(ErrorEvent)
	default:
		return Event{Kind: kind, Data: json.RawMessage(data)}, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return Event{}, err
	}
	return Event{Kind: kind, Data: v}, nil
}
