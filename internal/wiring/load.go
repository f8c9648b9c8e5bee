// Package wiring assembles the provider client, tool executor chain and
// agent loop from configuration.
package wiring

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	// Provider packages register themselves.
	_ "github.com/hattiebot/conduit/internal/anthropic"
	_ "github.com/hattiebot/conduit/internal/openrouter"

	"github.com/hattiebot/conduit/internal/agent"
	"github.com/hattiebot/conduit/internal/config"
	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/middleware"
	"github.com/hattiebot/conduit/internal/registry"
	"github.com/hattiebot/conduit/internal/tools"
)

// LoadClient builds the provider named by cfg.Name. An unknown provider or a
// failing factory is an error; there is no fallback.
func LoadClient(cfg config.Provider) (core.LLMClient, error) {
	factory, ok := registry.GetClientFactory(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %s)", cfg.Name, strings.Join(registry.ClientNames(), ", "))
	}
	c, err := safeInitClient(factory, cfg, &http.Client{Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("init provider %q: %w", cfg.Name, err)
	}
	return c, nil
}

func safeInitClient(f registry.ClientFactory, cfg config.Provider, hc *http.Client) (c core.LLMClient, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = logPanicError{r}
		}
	}()
	return f(cfg, hc)
}

// BuildExecutor layers the executor chain: registry dispatch, then result
// truncation, then auditing when rec is non-nil.
func BuildExecutor(cfg config.Agent, reg *tools.Registry, rec middleware.Recorder, log zerolog.Logger) core.ToolExecutor {
	var exec core.ToolExecutor = tools.NewExecutor(reg, cfg, log)
	exec = middleware.NewTruncatingExecutor(exec, cfg.TruncateLimit)
	if rec != nil {
		exec = middleware.NewAuditingExecutor(exec, rec, log)
	}
	return exec
}

// BuildLoop returns the agent loop over client and exec advertising reg's tools.
func BuildLoop(cfg *config.Config, client core.LLMClient, exec core.ToolExecutor, reg *tools.Registry, log zerolog.Logger) *agent.Loop {
	return &agent.Loop{
		Client:   client,
		Executor: exec,
		Tools:    reg.Definitions(),
		Options:  agent.OptionsFromConfig(cfg.Provider, cfg.Agent),
		Log:      log,
	}
}

type logPanicError struct {
	Reason any
}

func (e logPanicError) Error() string {
	return fmt.Sprintf("panic during initialization: %v", e.Reason)
}
