package model

import (
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Role is the author of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Part types. A message is an ordered sequence of parts, each either
// plain text or a record of one tool invocation.
const (
	PartTypeText           = "text"
	PartTypeToolInvocation = "tool-invocation"
)

// Part is one element of a chat message
type Part struct {
	Type string `json:"type"`

	// Text is set when Type is PartTypeText
	Text string `json:"text,omitempty"`

	// Tool fields are set when Type is PartTypeToolInvocation
	ToolName string         `json:"toolName,omitempty"`
	Args     map[string]any `json:"args,omitempty"`
	Result   any            `json:"result,omitempty"`
}

// TextPart builds a plain text part
func TextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// ToolInvocationPart builds a part recording one tool invocation
func ToolInvocationPart(toolName string, args map[string]any, result any) Part {
	return Part{
		Type:     PartTypeToolInvocation,
		ToolName: toolName,
		Args:     args,
		Result:   result,
	}
}

// ChatMessage is one message in a chat session, as exchanged with
// clients over the chat endpoint
type ChatMessage struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Text concatenates the text parts of the message
func (m *ChatMessage) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartTypeText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// Validate checks that the message is well formed
func (m *ChatMessage) Validate() error {
	switch m.Role {
	case RoleUser, RoleAssistant:
	default:
		return goerr.New("invalid message role", goerr.V("role", m.Role))
	}
	for _, p := range m.Parts {
		switch p.Type {
		case PartTypeText, PartTypeToolInvocation:
		default:
			return goerr.New("invalid message part type", goerr.V("type", p.Type))
		}
	}
	return nil
}

// ParseChatMessages decodes the request body of the chat endpoint,
// `{"messages": [...]}`, and validates each message.
func ParseChatMessages(data []byte) ([]*ChatMessage, error) {
	var body struct {
		Messages []*ChatMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, goerr.Wrap(err, "failed to decode chat request body")
	}

	for _, msg := range body.Messages {
		if err := msg.Validate(); err != nil {
			return nil, err
		}
	}

	return body.Messages, nil
}
