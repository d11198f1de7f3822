package llm

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Role identifies the author of a transcript entry
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// BlockType discriminates the ContentBlock variants
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is a union of text, tool invocation and tool result blocks.
// Only the fields belonging to Type are meaningful.
type ContentBlock struct {
	Type BlockType `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
	// RawInput holds arguments the service delivered as encoded text.
	// Callers decode it with DecodeArguments.
	RawInput string `json:"raw_input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// TextBlock creates a text content block
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ToolUseBlock creates a tool invocation with structured arguments
func ToolUseBlock(id, name string, input map[string]any) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ID: id, Name: name, Input: input}
}

// RawToolUseBlock creates a tool invocation whose arguments are still encoded
func RawToolUseBlock(id, name, rawInput string) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ID: id, Name: name, RawInput: rawInput}
}

// ToolResultBlock creates the answer to the invocation identified by toolUseID
func ToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Content: content, IsError: isError}
}

// ArgumentDecodingError reports tool arguments that could not be parsed
type ArgumentDecodingError struct {
	Tool string
	Err  error
}

func (e *ArgumentDecodingError) Error() string {
	return fmt.Sprintf("Error parsing arguments for %s: %s", e.Tool, e.Err.Error())
}

func (e *ArgumentDecodingError) Unwrap() error {
	return e.Err
}

// DecodeArguments returns the invocation's arguments as a map, parsing
// RawInput when the service delivered them as text.
func (b ContentBlock) DecodeArguments() (map[string]any, error) {
	if b.RawInput == "" {
		if b.Input == nil {
			return map[string]any{}, nil
		}
		return b.Input, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(b.RawInput), &args); err != nil {
		return nil, &ArgumentDecodingError{Tool: b.Name, Err: err}
	}
	if args == nil {
		// "null" decodes without error
		args = map[string]any{}
	}
	return args, nil
}

// Message is one transcript entry
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// NewUserMessage creates a human message carrying plain text
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

// ToolUses returns the tool invocation blocks of the message in order
func (m Message) ToolUses() []ContentBlock {
	var uses []ContentBlock
	for _, block := range m.Content {
		if block.Type == BlockToolUse {
			uses = append(uses, block)
		}
	}
	return uses
}

// Text joins the message's text blocks
func (m Message) Text() string {
	var parts []string
	for _, block := range m.Content {
		if block.Type == BlockText {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ContinuationSignal tells the caller whether the model expects tool results
// before the conversation may return to the human.
type ContinuationSignal int

const (
	NeedsHumanInput ContinuationSignal = iota
	HasPendingToolWork
)

func (s ContinuationSignal) String() string {
	switch s {
	case HasPendingToolWork:
		return "has-pending-tool-work"
	default:
		return "needs-human-input"
	}
}
