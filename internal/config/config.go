package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime configuration. It is built once at startup and passed
// explicitly to the provider, the tools and the front ends; nothing reads the
// environment after Load returns.
type Config struct {
	Provider Provider `mapstructure:"provider"`
	Agent    Agent    `mapstructure:"agent"`
	Tools    Tools    `mapstructure:"tools"`
	Server   Server   `mapstructure:"server"`
	Store    Store    `mapstructure:"store"`
	Log      Log      `mapstructure:"log"`
}

// Provider selects and parameterizes the model backend.
type Provider struct {
	// Name is the registered provider ("anthropic" or "openrouter").
	Name    string `mapstructure:"name"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	// Temperature and MaxTokens are sent on every completion request.
	Temperature  float64 `mapstructure:"temperature"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	SystemPrompt string  `mapstructure:"system_prompt"`
	// Timeout bounds one provider HTTP call; 0 leaves it to the transport.
	Timeout time.Duration `mapstructure:"timeout"`
}

// Agent tunes the orchestration loop and executor chain.
type Agent struct {
	// MaxTurns caps model calls per user request; 0 disables the ceiling.
	MaxTurns int `mapstructure:"max_turns"`
	// ToolTimeout bounds a single tool call; 0 = none.
	ToolTimeout time.Duration `mapstructure:"tool_timeout"`
	// TruncateLimit caps tool output runes, marker included; 0 disables.
	TruncateLimit int `mapstructure:"truncate_limit"`
	// Retry holds per-tool retry policies keyed by tool name.
	Retry map[string]RetryPolicy `mapstructure:"retry"`
}

// RetryPolicy is a bounded exponential backoff for one tool. Attempts is the
// number of retries after the first call.
type RetryPolicy struct {
	Attempts int           `mapstructure:"attempts"`
	Backoff  time.Duration `mapstructure:"backoff"`
}

// Tools carries per-tool credentials and endpoints.
type Tools struct {
	Weather    Weather    `mapstructure:"weather"`
	Song       Song       `mapstructure:"song"`
	Confluence Confluence `mapstructure:"confluence"`
	Image      Image      `mapstructure:"image"`
	Postman    Postman    `mapstructure:"postman"`
	// HTTPTimeout applies to the shared tool HTTP client; 0 = none.
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

type Weather struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type Song struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type Confluence struct {
	BaseURL  string `mapstructure:"base_url"`
	Email    string `mapstructure:"email"`
	APIToken string `mapstructure:"api_token"`
}

type Image struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Size    string `mapstructure:"size"`
}

type Postman struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	// TeamDomain builds "Postman View" links, e.g. acme.postman.co.
	TeamDomain string `mapstructure:"team_domain"`
}

// Server configures the SSE/websocket transport.
type Server struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// InboxSize is the number of queued requests per session before 429.
	InboxSize int `mapstructure:"inbox_size"`
}

// Store configures the tool-call audit log. An empty Path disables it.
type Store struct {
	Path   string        `mapstructure:"path"`
	MaxAge time.Duration `mapstructure:"max_age"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// envAliases binds the conventional variable names alongside CONDUIT_* ones.
var envAliases = map[string][]string{
	"provider.api_key":           {"CONDUIT_PROVIDER_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"},
	"tools.weather.api_key":      {"CONDUIT_TOOLS_WEATHER_API_KEY", "WEATHER_API_KEY"},
	"tools.song.api_key":         {"CONDUIT_TOOLS_SONG_API_KEY", "SONG_API_KEY"},
	"tools.song.base_url":        {"CONDUIT_TOOLS_SONG_BASE_URL", "SONG_BASE_URL"},
	"tools.confluence.base_url":  {"CONDUIT_TOOLS_CONFLUENCE_BASE_URL", "CONFLUENCE_BASE_URL"},
	"tools.confluence.email":     {"CONDUIT_TOOLS_CONFLUENCE_EMAIL", "CONFLUENCE_EMAIL"},
	"tools.confluence.api_token": {"CONDUIT_TOOLS_CONFLUENCE_API_TOKEN", "CONFLUENCE_API_TOKEN"},
	"tools.image.api_key":        {"CONDUIT_TOOLS_IMAGE_API_KEY", "IMAGE_API_KEY", "OPENAI_API_KEY"},
	"tools.postman.api_key":      {"CONDUIT_TOOLS_POSTMAN_API_KEY", "POSTMAN_API_KEY"},
	"tools.postman.base_url":     {"CONDUIT_TOOLS_POSTMAN_BASE_URL", "POSTMAN_BASE_URL"},
	"tools.postman.team_domain":  {"CONDUIT_TOOLS_POSTMAN_TEAM_DOMAIN", "POSTMAN_TEAM_DOMAIN"},
}

// setDefaults registers every key, zero values included: AutomaticEnv only
// overrides keys viper already knows.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.name", "anthropic")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.model", "claude-3-5-sonnet-20240620")
	v.SetDefault("provider.temperature", 0.5)
	v.SetDefault("provider.max_tokens", 1024)
	v.SetDefault("provider.system_prompt", "")
	v.SetDefault("provider.timeout", time.Duration(0))

	v.SetDefault("agent.max_turns", 25)
	v.SetDefault("agent.tool_timeout", time.Duration(0))
	v.SetDefault("agent.truncate_limit", 10000)

	v.SetDefault("tools.http_timeout", time.Duration(0))

	v.SetDefault("tools.weather.base_url", "https://api.weatherapi.com/v1")
	v.SetDefault("tools.song.base_url", "http://localhost:3000")
	v.SetDefault("tools.image.base_url", "https://api.openai.com")
	v.SetDefault("tools.image.model", "dall-e-3")
	v.SetDefault("tools.image.size", "1024x1024")
	v.SetDefault("tools.postman.base_url", "https://api.getpostman.com")
	v.SetDefault("tools.postman.team_domain", "insurance-demo.postman.co")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.inbox_size", 8)

	v.SetDefault("store.path", "")
	v.SetDefault("store.max_age", 7*24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
}

// Load reads defaults, the optional config file at path and the environment.
// A missing file is an error only when path was given explicitly.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CONDUIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("conduit")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks settings needed before any front end starts. Per-tool
// credentials are not checked here; a tool without its key reports the error
// when called.
func (c *Config) Validate() error {
	if c.Provider.Name == "" {
		return errors.New("config: provider.name is empty")
	}
	if c.Provider.APIKey == "" {
		return fmt.Errorf("config: provider.api_key is required for %s", c.Provider.Name)
	}
	if c.Provider.MaxTokens <= 0 {
		return fmt.Errorf("config: provider.max_tokens must be positive, got %d", c.Provider.MaxTokens)
	}
	if c.Provider.Temperature < 0 || c.Provider.Temperature > 1 {
		return fmt.Errorf("config: provider.temperature must be within [0,1], got %v", c.Provider.Temperature)
	}
	if c.Agent.MaxTurns < 0 {
		return fmt.Errorf("config: agent.max_turns must not be negative")
	}
	if c.Agent.TruncateLimit < 0 {
		return fmt.Errorf("config: agent.truncate_limit must not be negative")
	}
	for name, p := range c.Agent.Retry {
		if p.Attempts < 0 {
			return fmt.Errorf("config: agent.retry.%s.attempts must not be negative", name)
		}
	}
	return nil
}
