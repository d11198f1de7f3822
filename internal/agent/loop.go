package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/recrsn/nanocoder/internal/llm"
	"github.com/recrsn/nanocoder/internal/logging"
	"github.com/recrsn/nanocoder/internal/tools"
	"github.com/sourcegraph/conc/iter"
)

// Prompt is the label shown when the loop waits for the human
const Prompt = "You: "

// State is a node of the conversation state machine
type State int

const (
	AwaitingHumanInput State = iota
	AwaitingModelTurn
	ProcessingToolCalls
	Terminated
)

func (s State) String() string {
	switch s {
	case AwaitingHumanInput:
		return "awaiting-human-input"
	case AwaitingModelTurn:
		return "awaiting-model-turn"
	case ProcessingToolCalls:
		return "processing-tool-calls"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Options configures a Loop
type Options struct {
	// Instructions returns the system instructions. It is called before
	// every model turn.
	Instructions func() string

	// Recorder receives a checkpoint after every tool-result round. Nil
	// disables recording.
	Recorder Recorder

	// ParallelTools dispatches the invocations of one turn concurrently.
	ParallelTools bool

	Logger *slog.Logger
}

// Loop owns one conversation: the transcript and the cycle of prompting the
// human, calling the model and answering tool invocations.
type Loop struct {
	service      llm.ChatService
	tools        ToolDispatcher
	console      Console
	recorder     Recorder
	instructions func() string
	parallel     bool
	logger       *slog.Logger

	schemas    []llm.ToolDefinition
	transcript []llm.Message
	state      State
	sequence   int
}

// NewLoop creates a loop. The tool schema set is captured here and stays
// fixed for the life of the loop.
func NewLoop(service llm.ChatService, dispatcher ToolDispatcher, console Console, opts Options) *Loop {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	instructions := opts.Instructions
	if instructions == nil {
		instructions = func() string { return "" }
	}

	return &Loop{
		service:      service,
		tools:        dispatcher,
		console:      console,
		recorder:     opts.Recorder,
		instructions: instructions,
		parallel:     opts.ParallelTools,
		logger:       logger.With("component", "loop"),
		schemas:      dispatcher.Schemas(),
		state:        AwaitingHumanInput,
	}
}

// State returns the current state
func (l *Loop) State() State {
	return l.state
}

// Transcript returns a copy of the conversation so far
func (l *Loop) Transcript() []llm.Message {
	return slices.Clone(l.transcript)
}

// Run drives the state machine until the human exits. It always starts by
// prompting the human.
func (l *Loop) Run(ctx context.Context) error {
	l.state = AwaitingHumanInput
	l.beginSession()

	for l.state != Terminated {
		next := l.step(ctx)
		if next != l.state {
			l.logger.Debug("transition", "from", l.state.String(), "to", next.String())
		}
		l.state = next
	}
	return nil
}

func (l *Loop) step(ctx context.Context) State {
	switch l.state {
	case AwaitingHumanInput:
		return l.awaitHuman()
	case AwaitingModelTurn:
		return l.awaitModel(ctx)
	case ProcessingToolCalls:
		return l.processToolCalls(ctx)
	default:
		return Terminated
	}
}

func (l *Loop) awaitHuman() State {
	input, err := l.console.ReadInput(Prompt)
	if err != nil {
		if errors.Is(err, ErrInterrupted) {
			return AwaitingHumanInput
		}
		if !errors.Is(err, io.EOF) {
			l.logger.Error("reading input", "error", err)
		}
		return Terminated
	}

	input = strings.TrimSpace(input)
	if input == "" || strings.EqualFold(input, "exit") {
		return Terminated
	}

	l.transcript = append(l.transcript, llm.NewUserMessage(input))
	return AwaitingModelTurn
}

func (l *Loop) awaitModel(ctx context.Context) State {
	req := llm.Request{
		System:   l.instructions(),
		Messages: l.Transcript(),
		Tools:    l.schemas,
	}

	resp, err := l.service.Generate(ctx, req)
	if err != nil {
		// nothing from the failed turn reaches the transcript
		l.logger.Error("model turn failed", "error", err)
		l.console.PrintError("Error calling model: " + err.Error())
		return AwaitingHumanInput
	}

	turn := llm.Message{Role: llm.RoleAssistant, Content: slices.Clone(resp.Blocks)}
	l.transcript = append(l.transcript, turn)

	uses := turn.ToolUses()
	if len(uses) == 0 {
		if resp.Signal == llm.HasPendingToolWork {
			l.logger.Warn("service signalled pending tool work without invocations")
		}
		for _, block := range turn.Content {
			if block.Type == llm.BlockText {
				l.console.PrintAssistantText(block.Text)
			}
		}
		return AwaitingHumanInput
	}

	if resp.Signal != llm.HasPendingToolWork {
		l.logger.Warn("service returned invocations without signalling pending tool work", "invocations", len(uses))
	}
	return ProcessingToolCalls
}

// outcome is the answer to one invocation plus its trace
type outcome struct {
	result llm.ContentBlock
	trace  ToolTrace
}

func (l *Loop) processToolCalls(ctx context.Context) State {
	turn := l.transcript[len(l.transcript)-1]
	uses := turn.ToolUses()

	var results []llm.ContentBlock
	if l.parallel && len(uses) > 1 {
		results = l.invokeParallel(ctx, turn, uses)
	} else {
		results = l.invokeSequential(ctx, turn, len(uses))
	}

	l.transcript = append(l.transcript, llm.Message{Role: llm.RoleTool, Content: results})
	l.checkpoint()

	return AwaitingModelTurn
}

// invokeSequential walks the turn in order: each text block is shown as soon
// as it is reached and each invocation runs before the next block.
func (l *Loop) invokeSequential(ctx context.Context, turn llm.Message, count int) []llm.ContentBlock {
	results := make([]llm.ContentBlock, 0, count)
	for _, block := range turn.Content {
		switch block.Type {
		case llm.BlockText:
			l.console.PrintAssistantText(block.Text)
		case llm.BlockToolUse:
			o := l.invoke(ctx, block)
			l.console.PrintToolCall(o.trace)
			results = append(results, o.result)
		}
	}
	return results
}

// invokeParallel runs every invocation at once, then replays the turn in
// block order. Text before an invocation is shown when it starts.
func (l *Loop) invokeParallel(ctx context.Context, turn llm.Message, uses []llm.ContentBlock) []llm.ContentBlock {
	leading := 0
	for _, block := range turn.Content {
		if block.Type == llm.BlockToolUse {
			break
		}
		if block.Type == llm.BlockText {
			l.console.PrintAssistantText(block.Text)
		}
		leading++
	}

	outcomes := iter.Map(uses, func(use *llm.ContentBlock) outcome {
		return l.invoke(ctx, *use)
	})

	next := 0
	for _, block := range turn.Content[leading:] {
		switch block.Type {
		case llm.BlockText:
			l.console.PrintAssistantText(block.Text)
		case llm.BlockToolUse:
			l.console.PrintToolCall(outcomes[next].trace)
			next++
		}
	}

	results := make([]llm.ContentBlock, 0, len(outcomes))
	for _, o := range outcomes {
		results = append(results, o.result)
	}
	return results
}

// invoke answers one invocation. It never fails: decoding errors, unknown
// tools and tool failures all become error results.
func (l *Loop) invoke(ctx context.Context, use llm.ContentBlock) outcome {
	trace := ToolTrace{ID: use.ID, Name: use.Name}

	args, err := use.DecodeArguments()
	if err != nil {
		trace.Result, trace.IsError = err.Error(), true
		trace.Arguments = map[string]any{"raw": use.RawInput}
		return outcome{result: llm.ToolResultBlock(use.ID, trace.Result, true), trace: trace}
	}
	trace.Arguments = args
	trace.Explanation = l.tools.Explain(use.Name, args)

	res, err := l.tools.Dispatch(ctx, use.Name, args)
	if err != nil {
		res = tools.Result{Content: tools.ToolResultContent(err), IsError: true}
	}
	if res.IsError {
		l.logger.Info("tool invocation failed", "tool", use.Name, "id", use.ID, "result", res.Content)
	}

	trace.Result, trace.IsError = res.Content, res.IsError
	return outcome{result: llm.ToolResultBlock(use.ID, res.Content, res.IsError), trace: trace}
}

func (l *Loop) beginSession() {
	if l.recorder == nil {
		return
	}
	id, err := l.recorder.Begin()
	if err != nil {
		l.logger.Error("starting session recording", "error", err)
		l.console.PrintNotice("Session recording disabled: " + err.Error())
		l.recorder = nil
		return
	}
	l.logger.Info("session started", "session", id)
}

func (l *Loop) checkpoint() {
	if l.recorder == nil {
		return
	}
	l.sequence++
	if err := l.recorder.Checkpoint(l.Transcript(), l.sequence); err != nil {
		l.logger.Error("checkpoint failed", "sequence", l.sequence, "error", err)
		l.console.PrintNotice("Could not save session checkpoint: " + err.Error())
	}
}
