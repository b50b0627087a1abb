package main

import (
	"context"
	"fmt"
	"io"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/isdmx/tryrun/config"
	"github.com/isdmx/tryrun/logger"
	"github.com/isdmx/tryrun/mcpserver"
	"github.com/isdmx/tryrun/pipeline"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	// Run returns the exit code of the process.
	Run(ctx context.Context) (int, error)
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	ConfigPath string
	Debug      bool
	Verbose    bool
	LogMode    string
	Installer  string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("config", "Path to the configuration file.").Short('c').StringVar(&c.ConfigPath)
	app.Flag("debug", "Enable debug logging.").BoolVar(&c.Debug)
	app.Flag("verbose", "Log every pipeline stage.").Short('v').BoolVar(&c.Verbose)
	app.Flag("log-mode", "Selects the logger mode.").EnumVar(&c.LogMode, "development", "production")
	app.Flag("installer", "Package manager command, overrides installer.command.").StringVar(&c.Installer)

	return c
}

// LoadConfig loads the configuration and applies the command line overrides.
func (c *RootCommand) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}

	switch {
	case c.Debug:
		cfg.Logging.Level = "debug"
	case c.Verbose:
		cfg.Logging.Level = "info"
	}
	if c.LogMode != "" {
		cfg.Logging.Mode = c.LogMode
	}
	if c.Installer != "" {
		cfg.Installer.Command = c.Installer
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return cfg, nil
}

// newApp builds the dependency graph for cfg and fills targets from it. Logs
// go to logOut.
func newApp(cfg *config.Config, logOut io.Writer, targets ...any) (*fx.App, error) {
	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(
			func(cfg *config.Config) (*zap.Logger, error) {
				return logger.NewFromConfig(cfg, logOut)
			},
			pipeline.NewFromConfig,
			mcpserver.New,
		),
		fx.Populate(targets...),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("could not build application: %w", err)
	}

	return app, nil
}
