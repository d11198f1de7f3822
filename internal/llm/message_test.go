package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeArguments(t *testing.T) {
	tests := []struct {
		name    string
		block   ContentBlock
		want    map[string]any
		wantErr bool
	}{
		{
			name:  "structured input",
			block: ToolUseBlock("1", "read", map[string]any{"path": "a.txt"}),
			want:  map[string]any{"path": "a.txt"},
		},
		{
			name:  "nil input",
			block: ToolUseBlock("1", "list", nil),
			want:  map[string]any{},
		},
		{
			name:  "raw input",
			block: RawToolUseBlock("1", "run", `{"command":"ls -la"}`),
			want:  map[string]any{"command": "ls -la"},
		},
		{
			name:  "raw null",
			block: RawToolUseBlock("1", "list", `null`),
			want:  map[string]any{},
		},
		{
			name:    "truncated raw input",
			block:   RawToolUseBlock("1", "run", `{"command": "ls`),
			wantErr: true,
		},
		{
			name:    "raw input that is not an object",
			block:   RawToolUseBlock("1", "run", `["ls"]`),
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.block.DecodeArguments()
			if tc.wantErr {
				var decodeErr *ArgumentDecodingError
				require.True(t, errors.As(err, &decodeErr))
				assert.Equal(t, tc.block.Name, decodeErr.Tool)
				assert.Contains(t, err.Error(), "Error parsing arguments for "+tc.block.Name+": ")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMessage_ToolUsesAndText(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: []ContentBlock{
		TextBlock("first"),
		ToolUseBlock("a", "list", nil),
		TextBlock("second"),
		RawToolUseBlock("b", "run", `{}`),
	}}

	uses := msg.ToolUses()
	require.Len(t, uses, 2)
	assert.Equal(t, "a", uses[0].ID)
	assert.Equal(t, "b", uses[1].ID)
	assert.Equal(t, "first\nsecond", msg.Text())

	assert.Empty(t, NewUserMessage("hi").ToolUses())
	assert.Equal(t, "hi", NewUserMessage("hi").Text())
}

func TestContinuationSignal_String(t *testing.T) {
	assert.Equal(t, "needs-human-input", NeedsHumanInput.String())
	assert.Equal(t, "has-pending-tool-work", HasPendingToolWork.String())
}

func TestServiceError(t *testing.T) {
	inner := errors.New("connection refused")
	err := error(&ServiceError{Provider: "openai", Err: inner})

	assert.Equal(t, "openai: connection refused", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestNewService(t *testing.T) {
	svc, err := NewService("", ServiceConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &AnthropicService{}, svc)

	svc, err = NewService("openai", ServiceConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIService{}, svc)

	_, err = NewService("carrier-pigeon", ServiceConfig{}, nil)
	assert.EqualError(t, err, "unknown provider: carrier-pigeon")
}
