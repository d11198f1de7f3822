package llm

import (
	"context"
	"fmt"
)

const (
	defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel    = "gpt-4o"
)

// openAIMessage represents a message in a chat-completions conversation
type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

// openAIFunctionCall carries arguments as a JSON-encoded string
type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

type openAITool struct {
	Type     string                   `json:"type"`
	Function openAIFunctionDefinition `json:"function"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Tools       []openAITool    `json:"tools,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIChoice struct {
	Index        int           `json:"index"`
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Choices []openAIChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// OpenAIService talks to an OpenAI-compatible chat-completions endpoint.
// Tool arguments arrive as serialized JSON text and are left undecoded in
// ContentBlock.RawInput.
type OpenAIService struct {
	client *httpClient
	config ServiceConfig
}

// NewOpenAIService creates a chat-completions client
func NewOpenAIService(cfg ServiceConfig, logger APILogger) *OpenAIService {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultOpenAIEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}

	headers := map[string]string{
		"Authorization": "Bearer " + cfg.APIKey,
	}

	return &OpenAIService{
		client: newHTTPClient(cfg.Endpoint, headers, logger),
		config: cfg,
	}
}

// Generate implements ChatService
func (s *OpenAIService) Generate(ctx context.Context, req Request) (Response, error) {
	wireReq := openAIRequest{
		Model:       s.config.Model,
		Messages:    toOpenAIMessages(req.System, req.Messages),
		Temperature: s.config.Temperature,
		MaxTokens:   s.config.MaxTokens,
	}
	for _, tool := range req.Tools {
		wireReq.Tools = append(wireReq.Tools, openAITool{
			Type: "function",
			Function: openAIFunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.InputSchema,
			},
		})
	}

	var resp openAIResponse
	if err := s.client.post(ctx, wireReq, &resp, decodeOpenAIError); err != nil {
		return Response{}, &ServiceError{Provider: "openai", Err: err}
	}

	if len(resp.Choices) == 0 {
		return Response{}, &ServiceError{Provider: "openai", Err: fmt.Errorf("no response choices")}
	}

	choice := resp.Choices[0]
	out := Response{Signal: NeedsHumanInput}
	if choice.FinishReason == "tool_calls" {
		out.Signal = HasPendingToolWork
	}
	if choice.Message.Content != "" {
		out.Blocks = append(out.Blocks, TextBlock(choice.Message.Content))
	}
	for _, call := range choice.Message.ToolCalls {
		out.Blocks = append(out.Blocks, RawToolUseBlock(call.ID, call.Function.Name, call.Function.Arguments))
	}
	return out, nil
}

// toOpenAIMessages flattens the transcript. Each tool result becomes its own
// "tool" message, in the order the results were recorded.
func toOpenAIMessages(system string, messages []Message) []openAIMessage {
	wire := make([]openAIMessage, 0, len(messages)+1)
	if system != "" {
		wire = append(wire, openAIMessage{Role: "system", Content: system})
	}

	for _, msg := range messages {
		switch msg.Role {
		case RoleTool:
			for _, block := range msg.Content {
				if block.Type == BlockToolResult {
					wire = append(wire, openAIMessage{
						Role:       "tool",
						Content:    block.Content,
						ToolCallID: block.ToolUseID,
					})
				}
			}
		case RoleAssistant:
			out := openAIMessage{Role: "assistant", Content: msg.Text()}
			for _, use := range msg.ToolUses() {
				args := use.RawInput
				if args == "" {
					input, _ := use.DecodeArguments()
					encoded, err := json.Marshal(input)
					if err != nil {
						encoded = []byte("{}")
					}
					args = string(encoded)
				}
				out.ToolCalls = append(out.ToolCalls, openAIToolCall{
					ID:       use.ID,
					Type:     "function",
					Function: openAIFunctionCall{Name: use.Name, Arguments: args},
				})
			}
			wire = append(wire, out)
		default:
			wire = append(wire, openAIMessage{Role: string(msg.Role), Content: msg.Text()})
		}
	}
	return wire
}

func decodeOpenAIError(status int, body []byte) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Errorf("API error: %s", errResp.Error.Message)
	}
	return fmt.Errorf("unexpected status code: %d", status)
}
