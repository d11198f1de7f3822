package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/recrsn/nanocoder/internal/schema"
)

type listArgs struct {
	Path string `mapstructure:"path"`
}

// ListTool lists the entries of a directory
type ListTool struct{}

// NewListTool creates a tool to list files and directories
func NewListTool() *ListTool {
	return &ListTool{}
}

func (t *ListTool) Descriptor() Descriptor {
	return Descriptor{
		Name:        "list",
		Description: "List the entries of a directory, one per line. Directories end with a slash.",
		InputSchema: schema.Object(map[string]schema.Property{
			"path": schema.String("The directory path to list"),
		}, "path"),
	}
}

func (t *ListTool) Execute(_ context.Context, input map[string]any) (string, error) {
	var args listArgs
	if err := decodeArgs(input, &args); err != nil {
		return "", err
	}

	info, err := os.Stat(args.Path)
	if err != nil {
		return "", fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", args.Path)
	}

	entries, err := os.ReadDir(args.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	return strings.Join(names, "\n"), nil
}
