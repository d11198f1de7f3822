package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps a developer's own config and keys out of the test
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_File(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "nanocoder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider:
  kind: openai
  model: gpt-4o-mini
  api_key: from-file
ui:
  render_markdown: false
agent:
  parallel_tools: true
tools:
  run_timeout: 30s
log:
  level: debug
`), 0644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider.Kind)
	assert.Equal(t, "gpt-4o-mini", cfg.Provider.Model)
	assert.Equal(t, "from-file", cfg.Provider.APIKey)
	assert.Equal(t, 4096, cfg.Provider.MaxTokens)
	assert.False(t, cfg.UI.RenderMarkdown)
	assert.True(t, cfg.UI.ColorEnabled)
	assert.True(t, cfg.Agent.ParallelTools)
	assert.Equal(t, "prompt.md", cfg.Agent.InstructionsFile)
	assert.Equal(t, 30*time.Second, cfg.Tools.RunTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_SearchesWorkingDirectory(t *testing.T) {
	isolate(t)

	require.NoError(t, os.WriteFile(".nanocoder.yaml", []byte("provider:\n  model: from-cwd\n"), 0644))

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "from-cwd", cfg.Provider.Model)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("NANOCODER_PROVIDER_MODEL", "from-env")
	t.Setenv("NANOCODER_SESSION_ENABLED", "false")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Provider.Model)
	assert.False(t, cfg.Session.Enabled)
}

func TestLoad_ProviderKeyFallback(t *testing.T) {
	isolate(t)
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "anthropic-key", cfg.Provider.APIKey)

	t.Setenv("NANOCODER_PROVIDER_KIND", "openai")
	cfg, err = Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "openai-key", cfg.Provider.APIKey)
}

func TestLoad_MalformedFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed"), 0644))

	cfg, err := Load(viper.New(), path)
	assert.ErrorContains(t, err, "reading config")
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_MalformedFileKeepsFlagsAndEnv(t *testing.T) {
	isolate(t)
	t.Setenv("NANOCODER_TOOLS_RUN_TIMEOUT", "45s")

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed"), 0644))

	v := viper.New()
	v.Set("provider.kind", "openai")
	v.Set("provider.model", "flag-model")
	v.Set("agent.parallel_tools", true)

	cfg, err := Load(v, path)
	assert.ErrorContains(t, err, "reading config")
	assert.Equal(t, "openai", cfg.Provider.Kind)
	assert.Equal(t, "flag-model", cfg.Provider.Model)
	assert.True(t, cfg.Agent.ParallelTools)
	assert.Equal(t, 45*time.Second, cfg.Tools.RunTimeout)
	assert.Equal(t, DefaultConfig().UI, cfg.UI)
}
