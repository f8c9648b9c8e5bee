// Conduit is a tool-using conversational agent: a model provider, a fixed
// catalogue of HTTP-backed tools and either an interactive console or an
// SSE/websocket server in front.
//
// Usage:
//
//	conduit [-config path]          interactive console
//	conduit [-config path] serve    HTTP server
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dimiro1/banner"
	"github.com/rs/zerolog"

	"github.com/hattiebot/conduit/internal/agent"
	"github.com/hattiebot/conduit/internal/channels/terminal"
	"github.com/hattiebot/conduit/internal/config"
	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/gateway"
	"github.com/hattiebot/conduit/internal/health"
	"github.com/hattiebot/conduit/internal/logging"
	"github.com/hattiebot/conduit/internal/middleware"
	"github.com/hattiebot/conduit/internal/server"
	"github.com/hattiebot/conduit/internal/store"
	"github.com/hattiebot/conduit/internal/tools/builtin"
	"github.com/hattiebot/conduit/internal/wiring"
)

const version = "dev"

// exitError carries a process exit code out of run.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func main() {
	configPath := flag.String("config", os.Getenv("CONDUIT_CONFIG"), "path to config file (yaml, toml or json)")
	flag.Parse()

	if err := run(*configPath, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		code := 1
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		os.Exit(code)
	}
}

func run(configPath string, args []string) error {
	mode := "chat"
	if len(args) > 0 {
		mode = args[0]
	}
	if mode != "chat" && mode != "serve" {
		return fmt.Errorf("unknown command %q (want serve or nothing)", mode)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logging.New(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := health.NewRegistry()

	var rec middleware.Recorder
	if cfg.Store.Path != "" {
		db, err := store.Open(ctx, cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close()
		audit := store.NewToolCallLog(db)
		if n, err := audit.Cleanup(ctx, cfg.Store.MaxAge); err != nil {
			log.Warn().Err(err).Msg("audit cleanup failed")
		} else if n > 0 {
			log.Info().Int64("removed", n).Msg("pruned old audit entries")
		}
		checks.Register("store", health.CheckerFunc(func(ctx context.Context) health.ComponentHealth {
			if err := audit.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusError, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusOK}
		}))
		rec = audit
	}

	reg, err := builtin.Registry(cfg.Tools, builtin.HTTPClient(cfg.Tools))
	if err != nil {
		var dup *core.DuplicateToolError
		if errors.As(err, &dup) {
			log.Error().Err(err).Str("tool", dup.Name).Msg("invalid tool catalogue")
			return &exitError{code: 2, err: err}
		}
		return err
	}

	client, err := wiring.LoadClient(cfg.Provider)
	if err != nil {
		return err
	}
	tracker := health.NewTracker("provider")
	checks.Register("provider", tracker)
	client = health.TrackClient(client, tracker)

	exec := wiring.BuildExecutor(cfg.Agent, reg, rec, logging.Component(log, "tools"))
	loop := wiring.BuildLoop(cfg, client, exec, reg, logging.Component(log, "agent"))
	log.Info().Str("provider", cfg.Provider.Name).Str("model", cfg.Provider.Model).
		Strs("tools", reg.Names()).Msg("ready")

	printBanner(mode)

	if mode == "serve" {
		hub := gateway.NewHub(loop, cfg.Server.InboxSize, logging.Component(log, "gateway"))
		checks.Register("sessions", hub)
		srv := server.New(cfg.Server, hub, checks, logging.Component(log, "server"))
		return srv.Run(ctx)
	}
	return runConsole(ctx, loop, log)
}

func runConsole(ctx context.Context, loop *agent.Loop, log zerolog.Logger) error {
	term := &terminal.Terminal{
		In:      os.Stdin,
		Out:     os.Stdout,
		Session: agent.NewSession("console", loop),
		Log:     logging.Component(log, "terminal"),
	}
	return term.Run(ctx)
}

func printBanner(mode string) {
	tpl := "{{ .Title \"Conduit\" \"\" 0 }}\nVersion: " + version + "\n"
	if mode == "chat" {
		tpl += "Type quit or exit to leave.\n"
	}
	tpl += "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}
