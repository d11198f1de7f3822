package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/recrsn/nanocoder/internal/agent"
	"github.com/recrsn/nanocoder/internal/config"
	"github.com/recrsn/nanocoder/internal/llm"
	"github.com/recrsn/nanocoder/internal/logging"
	"github.com/recrsn/nanocoder/internal/platform"
	"github.com/recrsn/nanocoder/internal/prompts"
	"github.com/recrsn/nanocoder/internal/session"
	"github.com/recrsn/nanocoder/internal/tools"
	"github.com/recrsn/nanocoder/internal/ui"
)

const appName = "nanocoder"

// Version is set at build time
var Version = "0.1.0"

type rootFlags struct {
	configFile string
}

// NewRootCommand builds the nanocoder command
func NewRootCommand() *cobra.Command {
	return newRootCommand(viper.New())
}

// newRootCommand binds the command's flags to v
func newRootCommand(v *viper.Viper) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "A minimal terminal agent that reads, writes and runs things for you",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), loadConfig(v, flags.configFile, os.Stderr))
		},
	}

	cmd.Flags().StringVar(&flags.configFile, "config", "", "config file (default .nanocoder.yaml in . or $HOME)")
	cmd.Flags().String("provider", "", "chat service: anthropic or openai")
	cmd.Flags().String("model", "", "model name")
	cmd.Flags().Bool("no-session", false, "do not record the session transcript")
	cmd.Flags().Bool("parallel-tools", false, "run the tool invocations of one turn concurrently")

	_ = v.BindPFlag("provider.kind", cmd.Flags().Lookup("provider"))
	_ = v.BindPFlag("provider.model", cmd.Flags().Lookup("model"))
	_ = v.BindPFlag("agent.parallel_tools", cmd.Flags().Lookup("parallel-tools"))
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		if noSession, _ := cmd.Flags().GetBool("no-session"); noSession {
			v.Set("session.enabled", false)
		}
	}

	return cmd
}

// loadConfig decodes the configuration. An unreadable config file is reported
// and skipped; flags bound to v still apply.
func loadConfig(v *viper.Viper, configFile string, stderr io.Writer) config.Config {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		fmt.Fprintln(stderr, "Ignoring config file")
	}
	return cfg
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func run(ctx context.Context, cfg config.Config) error {
	dirs, err := platform.GetDirectories(appName)
	if err != nil {
		return fmt.Errorf("resolving directories: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	logger, logFile, err := logging.OpenFile(dirs.Data, level)
	if err != nil {
		return err
	}
	defer logFile.Close()

	registry, err := tools.NewDefaultRegistry(tools.ShellOptions{
		Shell:   cfg.Tools.Shell,
		Timeout: cfg.Tools.RunTimeout,
	})
	if err != nil {
		return fmt.Errorf("registering tools: %w", err)
	}

	service, err := llm.NewService(cfg.Provider.Kind, llm.ServiceConfig{
		Endpoint:    cfg.Provider.Endpoint,
		APIKey:      cfg.Provider.APIKey,
		Model:       cfg.Provider.Model,
		MaxTokens:   cfg.Provider.MaxTokens,
		Temperature: cfg.Provider.Temperature,
	}, llm.NewAPILogger(dirs.Data, logger))
	if err != nil {
		return err
	}

	terminal, err := ui.NewTerminal(cfg.UI, dirs.HistoryFile())
	if err != nil {
		return fmt.Errorf("creating console: %w", err)
	}
	defer terminal.Close()

	workingDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	loader := prompts.NewLoader(cfg.Agent.InstructionsFile, workingDir, registry.Schemas(), logger)

	opts := agent.Options{
		Instructions:  loader.Load,
		ParallelTools: cfg.Agent.ParallelTools,
		Logger:        logger,
	}
	if cfg.Session.Enabled {
		dir := cfg.Session.Dir
		if dir == "" {
			dir = dirs.SessionsDir()
		}
		opts.Recorder = session.NewFileRecorder(dir)
	}

	logger.Info("starting", slog.String("provider", cfg.Provider.Kind), slog.String("model", cfg.Provider.Model))

	terminal.ShowHeader()
	loop := agent.NewLoop(service, registry, terminal, opts)
	if err := loop.Run(ctx); err != nil {
		return err
	}
	terminal.PrintSuccess("Goodbye!")
	return nil
}
