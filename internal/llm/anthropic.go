package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	defaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"
	defaultAnthropicModel    = "claude-3-5-haiku-latest"
	anthropicVersion         = "2023-06-01"
	defaultMaxTokens         = 4096
)

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Tools       []ToolDefinition   `json:"tools,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicBlock struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Input     any    `json:"input,omitempty"`
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

type anthropicResponse struct {
	ID         string           `json:"id"`
	Role       string           `json:"role"`
	Model      string           `json:"model"`
	Content    []anthropicBlock `json:"content"`
	StopReason string           `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// AnthropicService talks to the Anthropic Messages API. Tool arguments
// arrive as structured JSON objects.
type AnthropicService struct {
	client *httpClient
	config ServiceConfig
}

// NewAnthropicService creates a Messages API client
func NewAnthropicService(cfg ServiceConfig, logger APILogger) *AnthropicService {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultAnthropicEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = defaultAnthropicModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	headers := map[string]string{
		"X-API-Key":         cfg.APIKey,
		"Anthropic-Version": anthropicVersion,
	}

	return &AnthropicService{
		client: newHTTPClient(cfg.Endpoint, headers, logger),
		config: cfg,
	}
}

// Generate implements ChatService
func (s *AnthropicService) Generate(ctx context.Context, req Request) (Response, error) {
	wireReq := anthropicRequest{
		Model:       s.config.Model,
		MaxTokens:   s.config.MaxTokens,
		System:      req.System,
		Messages:    toAnthropicMessages(req.Messages),
		Tools:       req.Tools,
		Temperature: s.config.Temperature,
	}

	var resp anthropicResponse
	if err := s.client.post(ctx, wireReq, &resp, decodeAnthropicError); err != nil {
		return Response{}, &ServiceError{Provider: "anthropic", Err: err}
	}

	out := Response{Signal: NeedsHumanInput}
	if resp.StopReason == "tool_use" {
		out.Signal = HasPendingToolWork
	}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Blocks = append(out.Blocks, TextBlock(block.Text))
		case "tool_use":
			input, _ := block.Input.(map[string]any)
			out.Blocks = append(out.Blocks, ToolUseBlock(block.ID, block.Name, input))
		}
	}
	return out, nil
}

// toAnthropicMessages maps the transcript onto the wire roles. Tool results
// travel as user messages in this API.
func toAnthropicMessages(messages []Message) []anthropicMessage {
	wire := make([]anthropicMessage, 0, len(messages))
	for _, msg := range messages {
		role := string(msg.Role)
		if msg.Role == RoleTool {
			role = string(RoleUser)
		}

		blocks := make([]anthropicBlock, 0, len(msg.Content))
		for _, block := range msg.Content {
			switch block.Type {
			case BlockText:
				blocks = append(blocks, anthropicBlock{Type: "text", Text: block.Text})
			case BlockToolUse:
				// the API requires an input object even when it is empty
				input, err := block.DecodeArguments()
				if err != nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropicBlock{Type: "tool_use", ID: block.ID, Name: block.Name, Input: input})
			case BlockToolResult:
				blocks = append(blocks, anthropicBlock{
					Type:      "tool_result",
					ToolUseID: block.ToolUseID,
					Content:   block.Content,
					IsError:   block.IsError,
				})
			}
		}
		wire = append(wire, anthropicMessage{Role: role, Content: blocks})
	}
	return wire
}

func decodeAnthropicError(status int, body []byte) error {
	var errResp struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Errorf("API error (%d, %s): %s", status, errResp.Error.Type, errResp.Error.Message)
	}
	return fmt.Errorf("unexpected status code: %d: %s", status, strings.TrimSpace(string(body)))
}
