package tools

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/recrsn/nanocoder/internal/schema"
)

type readArgs struct {
	Path string `mapstructure:"path"`
}

// ReadTool returns the full text of a file
type ReadTool struct{}

// NewReadTool creates a tool for reading files
func NewReadTool() *ReadTool {
	return &ReadTool{}
}

func (t *ReadTool) Descriptor() Descriptor {
	return Descriptor{
		Name:        "read",
		Description: "Read the contents of a text file",
		InputSchema: schema.Object(map[string]schema.Property{
			"path": schema.String("The path to the file to read"),
		}, "path"),
	}
}

func (t *ReadTool) Explain(input map[string]any) string {
	path, _ := input["path"].(string)
	return fmt.Sprintf("Will read the entire contents of '%s'", path)
}

func (t *ReadTool) Execute(_ context.Context, input map[string]any) (string, error) {
	var args readArgs
	if err := decodeArgs(input, &args); err != nil {
		return "", err
	}

	info, err := os.Stat(args.Path)
	if err != nil {
		return "", fmt.Errorf("failed to access file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file")
	}

	content, err := os.ReadFile(args.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	// content is returned verbatim; binary files are refused rather than transcoded
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%s is not a text file", args.Path)
	}

	return string(content), nil
}
