package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/recrsn/nanocoder/internal/schema"
	"golang.org/x/sync/errgroup"
)

// pipeCloseDelay bounds how long output is still collected after cancellation
const pipeCloseDelay = time.Second

type shellArgs struct {
	Command string `mapstructure:"command"`
}

// ShellOptions configures the run tool
type ShellOptions struct {
	// Shell is the interpreter invoked with -c. Defaults to sh.
	Shell string
	// Timeout bounds each command; zero means no limit.
	Timeout time.Duration
}

// ShellTool runs a command in a subordinate shell
type ShellTool struct {
	options ShellOptions
}

// NewShellTool creates a tool to execute shell commands
func NewShellTool(options ShellOptions) *ShellTool {
	if options.Shell == "" {
		options.Shell = "sh"
	}
	return &ShellTool{options: options}
}

func (t *ShellTool) Descriptor() Descriptor {
	return Descriptor{
		Name:        "run",
		Description: "Execute a shell command and return its output",
		InputSchema: schema.Object(map[string]schema.Property{
			"command": schema.String("The shell command to execute"),
		}, "command"),
	}
}

func (t *ShellTool) Explain(input map[string]any) string {
	command, _ := input["command"].(string)
	return fmt.Sprintf("Shell(%s)", command)
}

func (t *ShellTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	var args shellArgs
	if err := decodeArgs(input, &args); err != nil {
		return "", err
	}
	if strings.TrimSpace(args.Command) == "" {
		return "", fmt.Errorf("command is empty")
	}

	if t.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.options.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, t.options.Shell, "-c", args.Command)
	cmd.WaitDelay = pipeCloseDelay
	killProcessGroup(cmd)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("starting command: %w", err)
	}

	// Both pipes must be drained together or a chatty stream can fill its
	// buffer and block the child forever.
	var stdout, stderr bytes.Buffer
	var drain errgroup.Group
	drain.Go(func() error {
		_, err := io.Copy(&stdout, stdoutPipe)
		return err
	})
	drain.Go(func() error {
		_, err := io.Copy(&stderr, stderrPipe)
		return err
	})

	// A process that escaped the kill can still hold the pipes open; stop
	// reading from them once the command has been cancelled for a while.
	drained := make(chan struct{})
	go func() {
		select {
		case <-drained:
		case <-ctx.Done():
			select {
			case <-drained:
			case <-time.After(pipeCloseDelay):
				stdoutPipe.Close()
				stderrPipe.Close()
			}
		}
	}()

	drainErr := drain.Wait()
	close(drained)
	waitErr := cmd.Wait()

	output := formatOutput(stdout.String(), stderr.String())

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if t.options.Timeout > 0 {
			return output + fmt.Sprintf("\nCommand timed out after %s", t.options.Timeout), nil
		}
		return output + "\nCommand timed out", nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return output + fmt.Sprintf("\nExit code: %d", exitErr.ExitCode()), nil
	}
	if waitErr != nil {
		return "", fmt.Errorf("waiting for command: %w", waitErr)
	}
	if drainErr != nil {
		return "", fmt.Errorf("reading command output: %w", drainErr)
	}

	return output, nil
}

// formatOutput labels both streams when anything was written to stderr
func formatOutput(stdout, stderr string) string {
	if stderr != "" {
		return "STDERR:\n" + stderr + "\nSTDOUT:\n" + stdout
	}
	return stdout
}
