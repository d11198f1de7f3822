package agent

import (
	"context"
	"errors"

	"github.com/recrsn/nanocoder/internal/llm"
	"github.com/recrsn/nanocoder/internal/tools"
)

// ErrInterrupted is returned by Console.ReadInput when the human cancels the
// current line. The loop prompts again.
var ErrInterrupted = errors.New("input interrupted")

// Console is the human-facing side of the loop
type Console interface {
	// ReadInput reads one line. io.EOF ends the conversation.
	ReadInput(prompt string) (string, error)

	// PrintAssistantText displays one text block from the model
	PrintAssistantText(text string)

	// PrintToolCall displays one answered invocation
	PrintToolCall(trace ToolTrace)

	// PrintError displays a failure that did not end the conversation
	PrintError(message string)

	// PrintNotice displays a non-fatal local notice
	PrintNotice(message string)
}

// ToolTrace is the operator-visible record of one invocation
type ToolTrace struct {
	ID          string
	Name        string
	Arguments   map[string]any
	Explanation string
	Result      string
	IsError     bool
}

// ToolDispatcher resolves invocations to tools. *tools.Registry implements it.
type ToolDispatcher interface {
	Schemas() []llm.ToolDefinition
	Explain(name string, args map[string]any) string
	Dispatch(ctx context.Context, name string, args map[string]any) (tools.Result, error)
}

// Recorder persists transcript snapshots
type Recorder interface {
	// Begin allocates the session and returns its identifier
	Begin() (string, error)

	// Checkpoint stores the transcript under a strictly increasing sequence number
	Checkpoint(transcript []llm.Message, sequence int) error
}
