package model

// EventType tags one event of a streaming chat turn
type EventType string

const (
	EventTextDelta  EventType = "text-delta"
	EventToolStart  EventType = "tool-invocation-start"
	EventToolResult EventType = "tool-invocation-result"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

// ChatEvent is one element of the ordered event stream a chat turn
// produces. Exactly one terminal event (done or error) ends a stream.
type ChatEvent struct {
	Type EventType `json:"type"`

	// Delta carries incremental answer text for EventTextDelta
	Delta string `json:"delta,omitempty"`

	// Tool fields describe the invocation for EventToolStart and
	// EventToolResult
	ToolName string         `json:"toolName,omitempty"`
	Args     map[string]any `json:"args,omitempty"`
	Result   any            `json:"result,omitempty"`

	// Error carries the failure message for EventError
	Error string `json:"error,omitempty"`
}

func NewTextDelta(delta string) *ChatEvent {
	return &ChatEvent{Type: EventTextDelta, Delta: delta}
}

func NewToolStart(toolName string, args map[string]any) *ChatEvent {
	return &ChatEvent{Type: EventToolStart, ToolName: toolName, Args: args}
}

func NewToolResult(toolName string, result any) *ChatEvent {
	return &ChatEvent{Type: EventToolResult, ToolName: toolName, Result: result}
}

func NewDone() *ChatEvent {
	return &ChatEvent{Type: EventDone}
}

func NewError(err error) *ChatEvent {
	return &ChatEvent{Type: EventError, Error: err.Error()}
}
