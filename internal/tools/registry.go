package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/recrsn/nanocoder/internal/llm"
)

// ErrRegistrySealed is returned when registering after the schema set was published
var ErrRegistrySealed = errors.New("tool registry is sealed")

// DuplicateToolError reports a second registration under the same name
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %s already registered", e.Name)
}

// UnknownToolError reports an invocation of a tool that was never registered
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return "Unknown tool: " + e.Name
}

// ToolResultContent converts a dispatch failure into tool result text
func ToolResultContent(err error) string {
	var unknown *UnknownToolError
	if errors.As(err, &unknown) {
		return unknown.Error()
	}
	return err.Error()
}

// Registry maps tool names to tools. It is filled at startup and read-only
// once Schemas has been called.
type Registry struct {
	tools   map[string]Tool
	schemas []llm.ToolDefinition
	sealed  bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// NewDefaultRegistry registers the built-in list, read, write and run tools
func NewDefaultRegistry(shell ShellOptions) (*Registry, error) {
	registry := NewRegistry()
	for _, tool := range []Tool{
		NewListTool(),
		NewReadTool(),
		NewWriteTool(),
		NewShellTool(shell),
	} {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Register adds a tool under its descriptor name
func (r *Registry) Register(tool Tool) error {
	if r.sealed {
		return ErrRegistrySealed
	}
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	name := tool.Descriptor().Name
	if name == "" {
		return fmt.Errorf("tool name is empty")
	}
	if _, exists := r.tools[name]; exists {
		return &DuplicateToolError{Name: name}
	}
	r.tools[name] = tool
	return nil
}

// Names returns the registered tool names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns the tool definitions advertised to the model. The set is
// computed on first use and the registry is sealed from then on.
func (r *Registry) Schemas() []llm.ToolDefinition {
	if !r.sealed {
		r.sealed = true
		for _, name := range r.Names() {
			d := r.tools[name].Descriptor()
			r.schemas = append(r.schemas, llm.ToolDefinition{
				Name:        d.Name,
				Description: d.Description,
				InputSchema: d.InputSchema,
			})
		}
	}

	out := make([]llm.ToolDefinition, len(r.schemas))
	copy(out, r.schemas)
	return out
}

// Explain describes an invocation before it runs. Tools without an
// explanation return "".
func (r *Registry) Explain(name string, args map[string]any) string {
	tool, ok := r.tools[name]
	if !ok {
		return ""
	}
	explainer, ok := tool.(Explainer)
	if !ok {
		return ""
	}
	return explainer.Explain(args)
}

// Dispatch runs the named tool. The only error returned is
// *UnknownToolError; every failure of a known tool, including invalid
// arguments and panics, is folded into an error Result.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (result Result, err error) {
	tool, ok := r.tools[name]
	if !ok {
		return Result{}, &UnknownToolError{Name: name}
	}

	defer func() {
		if p := recover(); p != nil {
			execErr := &ExecutionError{Tool: name, Err: fmt.Errorf("panic: %v", p)}
			result = Result{Content: execErr.Error(), IsError: true}
			err = nil
		}
	}()

	if err := tool.Descriptor().InputSchema.Validate(args); err != nil {
		execErr := &ExecutionError{Tool: name, Err: err}
		return Result{Content: execErr.Error(), IsError: true}, nil
	}

	output, runErr := tool.Execute(ctx, args)
	if runErr != nil {
		execErr := &ExecutionError{Tool: name, Err: runErr}
		return Result{Content: execErr.Error(), IsError: true}, nil
	}
	return Result{Content: output}, nil
}
