package llm

import (
	"context"
	"fmt"

	"github.com/recrsn/nanocoder/internal/schema"
)

// ToolDefinition advertises a tool to the model
type ToolDefinition struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	InputSchema schema.Schema `json:"input_schema"`
}

// Request is everything the model sees for one turn
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolDefinition
}

// Response is the model output for one turn
type Response struct {
	Blocks []ContentBlock
	Signal ContinuationSignal
}

// ChatService produces one assistant turn from the transcript
type ChatService interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// ServiceError wraps any failure of the remote chat call
type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Err.Error())
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewService builds the ChatService for the named provider
func NewService(kind string, cfg ServiceConfig, logger APILogger) (ChatService, error) {
	switch kind {
	case "", "anthropic":
		return NewAnthropicService(cfg, logger), nil
	case "openai":
		return NewOpenAIService(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", kind)
	}
}

// ServiceConfig carries the connection and sampling settings shared by providers
type ServiceConfig struct {
	Endpoint    string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}
