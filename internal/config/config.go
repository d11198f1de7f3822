package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	UI       UIConfig       `mapstructure:"ui"`
	Session  SessionConfig  `mapstructure:"session"`
	Agent    AgentConfig    `mapstructure:"agent"`
	Tools    ToolsConfig    `mapstructure:"tools"`
	Log      LogConfig      `mapstructure:"log"`
}

// ProviderConfig holds provider-specific configuration
type ProviderConfig struct {
	Kind        string  `mapstructure:"kind"`
	Endpoint    string  `mapstructure:"endpoint"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// UIConfig holds UI-specific configuration
type UIConfig struct {
	ColorEnabled   bool `mapstructure:"color_enabled"`
	RenderMarkdown bool `mapstructure:"render_markdown"`
}

// SessionConfig controls transcript recording
type SessionConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// AgentConfig controls the conversation loop
type AgentConfig struct {
	// InstructionsFile is re-read before every model turn
	InstructionsFile string `mapstructure:"instructions_file"`
	ParallelTools    bool   `mapstructure:"parallel_tools"`
}

// ToolsConfig configures the built-in tools
type ToolsConfig struct {
	Shell      string        `mapstructure:"shell"`
	RunTimeout time.Duration `mapstructure:"run_timeout"`
}

// LogConfig configures the diagnostic log
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// EnvPrefix prefixes environment overrides, e.g. NANOCODER_PROVIDER_MODEL
const EnvPrefix = "NANOCODER"

// Load reads configuration into v and decodes it. When configFile is empty
// .nanocoder.yaml is searched in the current and home directories; a
// missing file is not an error. A file that cannot be read is skipped and
// reported, but the returned Config still carries the defaults and every
// override bound to v.
func Load(v *viper.Viper, configFile string) (Config, error) {
	setDefaults(v, DefaultConfig())

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".nanocoder")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(homeDir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var readErr error
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			readErr = fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = providerKeyFromEnv(cfg.Provider.Kind)
	}

	return cfg, readErr
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the config file
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("provider.kind", cfg.Provider.Kind)
	v.SetDefault("provider.endpoint", cfg.Provider.Endpoint)
	v.SetDefault("provider.api_key", cfg.Provider.APIKey)
	v.SetDefault("provider.model", cfg.Provider.Model)
	v.SetDefault("provider.max_tokens", cfg.Provider.MaxTokens)
	v.SetDefault("provider.temperature", cfg.Provider.Temperature)

	v.SetDefault("ui.color_enabled", cfg.UI.ColorEnabled)
	v.SetDefault("ui.render_markdown", cfg.UI.RenderMarkdown)

	v.SetDefault("session.enabled", cfg.Session.Enabled)
	v.SetDefault("session.dir", cfg.Session.Dir)

	v.SetDefault("agent.instructions_file", cfg.Agent.InstructionsFile)
	v.SetDefault("agent.parallel_tools", cfg.Agent.ParallelTools)

	v.SetDefault("tools.shell", cfg.Tools.Shell)
	v.SetDefault("tools.run_timeout", cfg.Tools.RunTimeout)

	v.SetDefault("log.level", cfg.Log.Level)
}

// providerKeyFromEnv falls back to the conventional variable of each provider
func providerKeyFromEnv(kind string) string {
	switch kind {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
}
