package tools

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/recrsn/nanocoder/internal/schema"
)

// Descriptor is the advertised identity of a tool
type Descriptor struct {
	Name        string
	Description string
	InputSchema schema.Schema
}

// Tool is a unit of work the model can invoke by name
type Tool interface {
	Descriptor() Descriptor
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Explainer is implemented by tools that can describe an invocation before
// it runs, for the operator trace
type Explainer interface {
	Explain(args map[string]any) string
}

// Result is the outcome of one dispatch. Failures are carried as content.
type Result struct {
	Content string
	IsError bool
}

// ExecutionError is any failure inside a tool
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("Error executing %s: %s", e.Tool, e.Err.Error())
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// decodeArgs copies the loosely typed argument map into a tool's argument struct
func decodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: false,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("creating argument decoder: %w", err)
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("decoding arguments: %w", err)
	}
	return nil
}
