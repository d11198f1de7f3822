package prompts

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/recrsn/nanocoder/internal/llm"
	"github.com/recrsn/nanocoder/internal/logging"
	"github.com/recrsn/nanocoder/internal/platform"
)

//go:embed default.md
var DefaultPromptTemplate string

// PromptData contains data to be injected into the prompt template
type PromptData struct {
	Tools               []llm.ToolDefinition
	Platform            string
	Date                string
	WorkingDirectory    string
	ProjectInstructions string
}

// RenderSystemPrompt renders the embedded template with the given data
func RenderSystemPrompt(data PromptData) (string, error) {
	tmpl, err := template.New("prompt").Parse(DefaultPromptTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}

// Loader produces the system instructions for each model turn
type Loader struct {
	// File, when present on disk, replaces the default template entirely.
	File       string
	WorkingDir string
	Tools      []llm.ToolDefinition
	Logger     *slog.Logger
	now        func() time.Time
}

// NewLoader creates a loader rooted at workingDir
func NewLoader(file, workingDir string, tools []llm.ToolDefinition, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Loader{
		File:       file,
		WorkingDir: workingDir,
		Tools:      tools,
		Logger:     logger,
		now:        time.Now,
	}
}

// Load reads the instructions file afresh so edits apply on the next turn.
// Without a readable file the default template is rendered.
func (l *Loader) Load() string {
	if l.File != "" {
		path := l.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.WorkingDir, path)
		}
		content, err := os.ReadFile(path)
		if err == nil {
			return string(content)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			l.Logger.Warn("couldn't read instructions file", "path", path, "error", err)
		}
	}

	prompt, err := RenderSystemPrompt(PromptData{
		Tools:               l.Tools,
		Platform:            platform.GetPlatformInfo().String(),
		Date:                l.now().Format("2006-01-02"),
		WorkingDirectory:    l.WorkingDir,
		ProjectInstructions: GetAgentInstructions(l.WorkingDir),
	})
	if err != nil {
		l.Logger.Error("rendering default prompt", "error", err)
		return ""
	}
	return prompt
}
