package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/recrsn/nanocoder/internal/schema"
	"github.com/sergi/go-diff/diffmatchpatch"
)

type writeArgs struct {
	Path    string `mapstructure:"path"`
	Content string `mapstructure:"content"`
}

// WriteTool overwrites or creates a file with the given content
type WriteTool struct{}

// NewWriteTool creates a new tool for writing files
func NewWriteTool() *WriteTool {
	return &WriteTool{}
}

func (t *WriteTool) Descriptor() Descriptor {
	return Descriptor{
		Name:        "write",
		Description: "Write content to a file (overwrites existing content)",
		InputSchema: schema.Object(map[string]schema.Property{
			"path":    schema.String("The path to the file to write"),
			"content": schema.String("The content to write to the file"),
		}, "path", "content"),
	}
}

// Explain shows a diff against the current file, or the new content when
// the file does not exist yet
func (t *WriteTool) Explain(input map[string]any) string {
	path, _ := input["path"].(string)
	content, _ := input["content"].(string)

	existing, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("Will create '%s' (%s)", path, describeSize(len(content)))
	}
	if string(existing) == content {
		return fmt.Sprintf("'%s' is unchanged", path)
	}
	return fmt.Sprintf("Will write %s to '%s'\n\n%s", describeSize(len(content)), path, prettyDiff(string(existing), content))
}

func (t *WriteTool) Execute(_ context.Context, input map[string]any) (string, error) {
	var args writeArgs
	if err := decodeArgs(input, &args); err != nil {
		return "", err
	}

	if dir := filepath.Dir(args.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(args.Path, []byte(args.Content), 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return fmt.Sprintf("File written to %s (%s)", args.Path, describeSize(len(args.Content))), nil
}

func describeSize(n int) string {
	if n == 1 {
		return "1 byte"
	}
	return fmt.Sprintf("%d bytes", n)
}

// prettyDiff renders a line-oriented diff with +/- markers
func prettyDiff(oldText, newText string) string {
	dmp := diffmatchpatch.New()
	oldChars, newChars, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(strings.TrimSuffix(line, "\n"))
			out.WriteString("\n")
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}
