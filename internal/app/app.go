// Package app wires configuration, storage, maintenance, and the HTTP
// surface into one server lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"reciprodb/internal/maintenance"
	"reciprodb/pkg/config"
	"reciprodb/pkg/logger"
	"reciprodb/pkg/state"
	"reciprodb/pkg/store"
)

// Options carries the resolved startup inputs.
type Options struct {
	Config  *config.Config
	Addr    string
	DBPath  string
	Source  string
	Version string
	Commit  string
	Date    string
}

// App encapsulates the server components and lifecycle.
type App struct {
	opts Options

	srv         *http.Server
	maintCancel context.CancelFunc
}

// New initializes resources that do not require a running context: env
// file, config validation, state dirs, audit sink, and the store. Call
// Run to start the scheduler and HTTP server and block until shutdown.
func New(opts Options) (*App, error) {
	_ = godotenv.Load(".env")

	if err := validateConfig(opts); err != nil {
		return nil, err
	}

	runtimeCfg := &config.RuntimeConfig{
		BackendKeys: map[string]struct{}{},
		AdminKeys:   map[string]struct{}{},
	}
	for _, k := range opts.Config.Security.APIKeys.Backend {
		runtimeCfg.BackendKeys[k] = struct{}{}
	}
	for _, k := range opts.Config.Security.APIKeys.Admin {
		runtimeCfg.AdminKeys[k] = struct{}{}
	}
	config.SetRuntime(runtimeCfg)

	if err := state.EnsureStateDirs(opts.DBPath); err != nil {
		return nil, fmt.Errorf("failed to prepare state directories: %w", err)
	}
	if err := logger.AttachAuditFileSink(state.AuditPath(opts.DBPath)); err != nil {
		logger.Warn("audit_sink_attach_failed", "error", err)
	}

	if err := store.Open(state.StorePath(opts.DBPath)); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", opts.DBPath, err)
	}

	return &App{opts: opts}, nil
}

// Run starts the maintenance scheduler and the HTTP server, and blocks
// until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	maintenance.SetConfig(a.opts.Config)
	cancel, err := maintenance.Start(ctx, a.opts.Config)
	if err != nil {
		return fmt.Errorf("failed to start maintenance scheduler: %w", err)
	}
	a.maintCancel = cancel

	a.printBanner()
	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		a.shutdown()
		return nil
	case err := <-errCh:
		a.shutdown()
		return err
	}
}

func (a *App) shutdown() {
	if a.maintCancel != nil {
		a.maintCancel()
	}
	if a.srv != nil {
		grace := a.opts.Config.Server.ShutdownGrace.Duration()
		if grace <= 0 {
			grace = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), grace)
		if err := a.srv.Shutdown(ctx); err != nil {
			_ = a.srv.Close()
		}
		cancel()
	}
	if err := store.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
	}
}
