package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONDUIT_PROVIDER_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider.Name)
	assert.Equal(t, "claude-3-5-sonnet-20240620", cfg.Provider.Model)
	assert.Equal(t, 0.5, cfg.Provider.Temperature)
	assert.Equal(t, 1024, cfg.Provider.MaxTokens)
	assert.Equal(t, 25, cfg.Agent.MaxTurns)
	assert.Equal(t, "https://api.getpostman.com", cfg.Tools.Postman.BaseURL)
	assert.Equal(t, "insurance-demo.postman.co", cfg.Tools.Postman.TeamDomain)
	assert.Equal(t, "sk-test", cfg.Provider.APIKey)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnvAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conduit.yaml")
	body := `
provider:
  name: openrouter
  api_key: from-file
  model: anthropic/claude-3.5-sonnet
agent:
  max_turns: 3
  truncate_limit: 500
  retry:
    get_weather:
      attempts: 2
      backoff: 250ms
store:
  path: /tmp/audit.db
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("WEATHER_API_KEY", "wk")
	t.Setenv("POSTMAN_BASE_URL", "http://postman.local")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openrouter", cfg.Provider.Name)
	assert.Equal(t, 3, cfg.Agent.MaxTurns)
	assert.Equal(t, 500, cfg.Agent.TruncateLimit)
	assert.Equal(t, RetryPolicy{Attempts: 2, Backoff: 250 * time.Millisecond}, cfg.Agent.Retry["get_weather"])
	assert.Equal(t, "wk", cfg.Tools.Weather.APIKey)
	assert.Equal(t, "http://postman.local", cfg.Tools.Postman.BaseURL)
	assert.Equal(t, "/tmp/audit.db", cfg.Store.Path)
}

func TestLoad_EnvOverridesKeysWithoutFile(t *testing.T) {
	t.Setenv("CONDUIT_PROVIDER_API_KEY", "sk-test")
	t.Setenv("CONDUIT_STORE_PATH", "/tmp/x.db")
	t.Setenv("CONDUIT_AGENT_TOOL_TIMEOUT", "30s")
	t.Setenv("CONDUIT_PROVIDER_SYSTEM_PROMPT", "be brief")
	t.Setenv("CONDUIT_PROVIDER_BASE_URL", "http://llm.local")
	t.Setenv("CONDUIT_PROVIDER_TIMEOUT", "1m")
	t.Setenv("CONDUIT_TOOLS_HTTP_TIMEOUT", "5s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.db", cfg.Store.Path)
	assert.Equal(t, 30*time.Second, cfg.Agent.ToolTimeout)
	assert.Equal(t, "be brief", cfg.Provider.SystemPrompt)
	assert.Equal(t, "http://llm.local", cfg.Provider.BaseURL)
	assert.Equal(t, time.Minute, cfg.Provider.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Tools.HTTPTimeout)
}

func TestLoad_UnsetKeysStayZero(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Store.Path)
	assert.Zero(t, cfg.Agent.ToolTimeout)
	assert.Zero(t, cfg.Provider.Timeout)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{Provider: Provider{Name: "anthropic", APIKey: "k", MaxTokens: 1024, Temperature: 0.5}}
	}

	require.NoError(t, base().Validate())

	c := base()
	c.Provider.APIKey = ""
	assert.ErrorContains(t, c.Validate(), "provider.api_key")

	c = base()
	c.Provider.Temperature = 1.5
	assert.ErrorContains(t, c.Validate(), "temperature")

	c = base()
	c.Agent.Retry = map[string]RetryPolicy{"get_weather": {Attempts: -1}}
	assert.ErrorContains(t, c.Validate(), "get_weather")
}
