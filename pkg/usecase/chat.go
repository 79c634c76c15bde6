package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/notelens/notelens/pkg/agent/tool/notes"
	"github.com/notelens/notelens/pkg/domain/interfaces"
	"github.com/notelens/notelens/pkg/domain/model"
	"github.com/notelens/notelens/pkg/domain/model/auth"
	"github.com/notelens/notelens/pkg/service/embedding"
	"github.com/notelens/notelens/pkg/utils/logging"
)

//go:embed prompt/chat_system.md
var chatSystemPromptTmpl string

var chatSystemPrompt = template.Must(template.New("chat_system").Parse(chatSystemPromptTmpl))

// DefaultHistoryWindow caps how many recent messages of the session
// are given to the model
const DefaultHistoryWindow = 10

// DefaultTurnTimeout bounds a whole chat turn, tool rounds included
const DefaultTurnTimeout = 120 * time.Second

// EventSink receives the ordered event stream of one chat turn. A sink
// error aborts the turn.
type EventSink func(ctx context.Context, event *model.ChatEvent) error

// ChatUseCase runs one conversational turn: recency-windowed history,
// retrieval tool bound to the caller, streamed events out.
type ChatUseCase struct {
	repo        interfaces.Repository
	llmClient   gollem.LLMClient
	embedder    *embedding.Embedder
	window      int
	turnTimeout time.Duration
}

type ChatOption func(*ChatUseCase)

// WithHistoryWindow overrides the recency window size
func WithHistoryWindow(n int) ChatOption {
	return func(uc *ChatUseCase) {
		if n > 0 {
			uc.window = n
		}
	}
}

// WithTurnTimeout overrides the per-turn deadline
func WithTurnTimeout(d time.Duration) ChatOption {
	return func(uc *ChatUseCase) {
		if d > 0 {
			uc.turnTimeout = d
		}
	}
}

func NewChatUseCase(repo interfaces.Repository, llmClient gollem.LLMClient, embedder *embedding.Embedder, opts ...ChatOption) *ChatUseCase {
	uc := &ChatUseCase{
		repo:        repo,
		llmClient:   llmClient,
		embedder:    embedder,
		window:      DefaultHistoryWindow,
		turnTimeout: DefaultTurnTimeout,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// HandleTurn executes one chat turn for the given identity and message
// history, emitting events to sink in order. Exactly one terminal
// event is emitted unless the caller cancels ctx, in which case the
// turn stops without one.
func (uc *ChatUseCase) HandleTurn(ctx context.Context, id *auth.Identity, messages []*model.ChatMessage, sink EventSink) error {
	logger := logging.From(ctx)

	if id == nil {
		return goerr.Wrap(ErrUnauthorized, "chat turn without identity")
	}
	if len(messages) == 0 {
		return goerr.New("message history is empty")
	}

	window := windowMessages(messages, uc.window)

	last := window[len(window)-1]
	if last.Role != model.RoleUser {
		return goerr.New("last message must be from the user", goerr.V("role", last.Role))
	}

	systemPrompt, err := buildChatSystemPrompt(id, window[:len(window)-1])
	if err != nil {
		return goerr.Wrap(err, "failed to build system prompt")
	}

	retrievalTools := notes.New(uc.repo, uc.embedder, id.UserID)
	wrapped := make([]gollem.Tool, len(retrievalTools))
	for i, t := range retrievalTools {
		wrapped[i] = &eventEmittingTool{inner: t, sink: sink}
	}

	agent := gollem.New(uc.llmClient,
		gollem.WithSystemPrompt(systemPrompt),
		gollem.WithTools(wrapped...),
		gollem.WithResponseMode(gollem.ResponseModeStreaming),
		gollem.WithMessageHook(func(ctx context.Context, msg string) error {
			if msg == "" {
				return nil
			}
			return sink(ctx, model.NewTextDelta(msg))
		}),
		gollem.WithToolMiddleware(
			func(next gollem.ToolHandler) gollem.ToolHandler {
				return func(ctx context.Context, req *gollem.ToolExecRequest) (*gollem.ToolExecResponse, error) {
					logger.Debug("executing tool", "tool", req.Tool.Name)
					resp, err := next(ctx, req)
					if resp != nil && resp.Error != nil {
						logger.Warn("tool execution failed", "tool", req.Tool.Name, "error", resp.Error.Error())
					}
					return resp, err
				}
			},
		),
	)

	turnCtx, cancel := context.WithTimeout(ctx, uc.turnTimeout)
	defer cancel()

	if _, err := agent.Execute(turnCtx, gollem.Text(last.Text())); err != nil {
		// A cancelled turn gets no terminal event, the client is gone.
		// The turn deadline is checked on the outer context so a
		// timeout still produces an error event.
		if ctx.Err() != nil {
			logger.Debug("chat turn cancelled", "userID", id.UserID)
			return nil
		}

		if sinkErr := sink(ctx, model.NewError(err)); sinkErr != nil {
			logger.Error("failed to emit error event", "error", sinkErr.Error())
		}
		return goerr.Wrap(err, "failed to execute chat agent", goerr.V("userID", id.UserID))
	}

	if ctx.Err() != nil {
		return nil
	}

	return sink(ctx, model.NewDone())
}

// windowMessages returns the n most recent messages, oldest dropped
// first, preserving order
func windowMessages(messages []*model.ChatMessage, n int) []*model.ChatMessage {
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}

// promptMessage represents a conversation message for template rendering
type promptMessage struct {
	Role string
	Text string
}

// chatPromptData holds all data for the chat system prompt template
type chatPromptData struct {
	Name     string
	Email    string
	Messages []promptMessage
}

func buildChatSystemPrompt(id *auth.Identity, history []*model.ChatMessage) (string, error) {
	data := chatPromptData{
		Name:  id.Name,
		Email: id.Email,
	}

	for _, msg := range history {
		text := msg.Text()
		if text == "" {
			continue
		}
		data.Messages = append(data.Messages, promptMessage{
			Role: string(msg.Role),
			Text: text,
		})
	}

	var buf bytes.Buffer
	if err := chatSystemPrompt.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to render chat system prompt")
	}

	return buf.String(), nil
}

// eventEmittingTool wraps a retrieval tool so each invocation is
// visible in the turn's event stream, before and after it runs.
type eventEmittingTool struct {
	inner gollem.Tool
	sink  EventSink
}

func (t *eventEmittingTool) Spec() gollem.ToolSpec {
	return t.inner.Spec()
}

func (t *eventEmittingTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	name := t.inner.Spec().Name

	if sinkErr := t.sink(ctx, model.NewToolStart(name, args)); sinkErr != nil {
		return nil, goerr.Wrap(sinkErr, "failed to emit tool start event")
	}

	result, err := t.inner.Run(ctx, args)
	if err != nil {
		if sinkErr := t.sink(ctx, model.NewToolResult(name, map[string]any{"error": err.Error()})); sinkErr != nil {
			logging.From(ctx).Error("failed to emit tool result event", "error", sinkErr.Error())
		}
		return nil, err
	}

	if sinkErr := t.sink(ctx, model.NewToolResult(name, result)); sinkErr != nil {
		return nil, goerr.Wrap(sinkErr, "failed to emit tool result event")
	}

	return result, nil
}
