package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"go.uber.org/zap"

	"github.com/isdmx/tryrun/mcpserver"
)

const shutdownTimeout = 10 * time.Second

type ServeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	transport string
	port      int
}

// NewServeCommand returns the serve command.
func NewServeCommand(rootCmd *RootCommand, app *kingpin.Application) *ServeCommand {
	c := &ServeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("serve", "Expose run as the run_package MCP tool.")
	c.Cmd.Flag("transport", "MCP transport, overrides server.transport.").EnumVar(&c.transport, "stdio", "http")
	c.Cmd.Flag("port", "HTTP port, overrides server.http_port.").IntVar(&c.port)

	return c
}

func (c ServeCommand) Name() string { return c.Cmd.FullCommand() }

func (c ServeCommand) Run(ctx context.Context) (int, error) {
	cfg, err := c.rootCmd.LoadConfig()
	if err != nil {
		return ToolFailureExitCode, err
	}
	if c.transport != "" {
		cfg.Server.Transport = c.transport
	}
	if c.port != 0 {
		cfg.Server.HTTPPort = c.port
	}
	if err := cfg.Validate(); err != nil {
		return ToolFailureExitCode, fmt.Errorf("config validation error: %w", err)
	}

	var (
		server *mcpserver.MCPServer
		logger *zap.Logger
	)
	if _, err := newApp(cfg, c.rootCmd.Stderr, &server, &logger); err != nil {
		return ToolFailureExitCode, err
	}
	defer logger.Sync() //nolint:errcheck // stderr sync fails on some terminals

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				logger.Info("termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// MCP server.
	switch cfg.Server.Transport {
	case "stdio":
		serveCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				return server.ServeStdio(serveCtx)
			},
			func(_ error) {
				cancel()
			},
		)
	case "http":
		httpServer := server.NewHTTPServer()

		g.Add(
			func() error {
				err := server.ServeHTTP(httpServer)
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			},
			func(_ error) {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					logger.Warn("http server shutdown failed", zap.Error(err))
				}
			},
		)
	}

	if err := g.Run(); err != nil && !errors.Is(err, context.Canceled) {
		return ToolFailureExitCode, fmt.Errorf("server failed: %w", err)
	}

	return 0, nil
}
