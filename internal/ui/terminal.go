package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	md "github.com/MichaelMure/go-term-markdown"
	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	jsoniter "github.com/json-iterator/go"
	"github.com/pterm/pterm"

	"github.com/recrsn/nanocoder/internal/agent"
	"github.com/recrsn/nanocoder/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	userColor      = "#e11d48"
	assistantColor = "#d97757"
	toolColor      = "#0d9488"
	ruleWidth      = 50
	markdownWidth  = 80
)

// Styles colour the role labels of the console
type Styles struct {
	User      lipgloss.Style
	Assistant lipgloss.Style
	Tool      lipgloss.Style
	Muted     lipgloss.Style
}

// NewStyles returns the console palette, or unstyled output when colour is off
func NewStyles(colorEnabled bool) Styles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return Styles{User: plain, Assistant: plain, Tool: plain, Muted: plain}
	}
	return Styles{
		User:      lipgloss.NewStyle().Foreground(lipgloss.Color(userColor)).Bold(true),
		Assistant: lipgloss.NewStyle().Foreground(lipgloss.Color(assistantColor)).Bold(true),
		Tool:      lipgloss.NewStyle().Foreground(lipgloss.Color(toolColor)).Bold(true),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Terminal is the interactive console: readline for input, pterm and
// lipgloss for output
type Terminal struct {
	config   config.UIConfig
	styles   Styles
	readline *readline.Instance
	out      io.Writer
}

var _ agent.Console = (*Terminal)(nil)

// NewTerminal creates a console with persistent input history
func NewTerminal(cfg config.UIConfig, historyFile string) (*Terminal, error) {
	if !cfg.ColorEnabled {
		pterm.DisableColor()
	}

	styles := NewStyles(cfg.ColorEnabled)

	instance, err := readline.NewEx(&readline.Config{
		Prompt:          styles.User.Render(strings.TrimSpace(agent.Prompt)) + " ",
		HistoryFile:     historyFile,
		HistoryLimit:    1000,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    GetPathCompleter(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %w", err)
	}

	return &Terminal{
		config:   cfg,
		styles:   styles,
		readline: instance,
		out:      os.Stdout,
	}, nil
}

// Close releases the terminal
func (t *Terminal) Close() error {
	return t.readline.Close()
}

// ShowHeader displays the welcome banner
func (t *Terminal) ShowHeader() {
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, t.styles.Assistant.Render("Welcome to nanocoder!"))
	pterm.Info.WithWriter(t.out).Println("Type a request, or an empty line or \"exit\" to quit.")
	fmt.Fprintln(t.out)
}

// ReadInput reads one line
func (t *Terminal) ReadInput(prompt string) (string, error) {
	t.readline.SetPrompt(t.styles.User.Render(strings.TrimSpace(prompt)) + " ")

	text, err := t.readline.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) {
			return "", agent.ErrInterrupted
		}
		return "", err
	}
	return text, nil
}

// PrintAssistantText prints one text block from the model
func (t *Terminal) PrintAssistantText(text string) {
	label := t.styles.Assistant.Render("nanocoder:")
	if t.config.RenderMarkdown {
		rendered := strings.TrimRight(string(md.Render(text, markdownWidth, 0)), "\n")
		fmt.Fprintln(t.out, label)
		fmt.Fprintln(t.out, rendered)
		return
	}
	fmt.Fprintln(t.out, label+" "+text)
}

// PrintToolCall prints the framed trace of one invocation
func (t *Terminal) PrintToolCall(trace agent.ToolTrace) {
	fmt.Fprintln(t.out, FormatToolTrace(trace, t.styles))
}

// PrintError prints an error message
func (t *Terminal) PrintError(message string) {
	pterm.Error.WithWriter(t.out).Println(message)
}

// PrintNotice prints a non-fatal warning
func (t *Terminal) PrintNotice(message string) {
	pterm.Warning.WithWriter(t.out).Println(message)
}

// PrintSuccess prints a success message
func (t *Terminal) PrintSuccess(message string) {
	pterm.Success.WithWriter(t.out).Println(message)
}

// FormatToolTrace renders a tool invocation between two rules
func FormatToolTrace(trace agent.ToolTrace, styles Styles) string {
	rule := styles.Muted.Render(strings.Repeat("─", ruleWidth))

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(styles.Tool.Render("🔧 " + trace.Name))
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n")

	b.WriteString(styles.Tool.Render("Arguments:"))
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render(FormatArguments(trace.Arguments)))
	b.WriteString("\n")

	if trace.Explanation != "" {
		b.WriteString(trace.Explanation)
		b.WriteString("\n")
	}

	if trace.IsError {
		b.WriteString(styles.Tool.Render("Error:"))
	} else {
		b.WriteString(styles.Tool.Render("Result:"))
	}
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render(trace.Result))
	b.WriteString("\n")
	b.WriteString(rule)
	return b.String()
}

// FormatArguments pretty-prints arguments as indented JSON with sorted keys
func FormatArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	out, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(out)
}
