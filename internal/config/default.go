package config

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		Provider: ProviderConfig{
			Kind:      "anthropic",
			Model:     "claude-3-5-haiku-latest",
			MaxTokens: 4096,
		},
		UI: UIConfig{
			ColorEnabled:   true,
			RenderMarkdown: true,
		},
		Session: SessionConfig{
			Enabled: true,
		},
		Agent: AgentConfig{
			InstructionsFile: "prompt.md",
		},
		Tools: ToolsConfig{
			Shell: "sh",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
