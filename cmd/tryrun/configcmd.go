package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"gopkg.in/yaml.v3"
)

type ConfigCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewConfigCommand returns the config command.
func NewConfigCommand(rootCmd *RootCommand, app *kingpin.Application) *ConfigCommand {
	c := &ConfigCommand{rootCmd: rootCmd}
	c.Cmd = app.Command("config", "Print the effective configuration as YAML.")
	return c
}

func (c ConfigCommand) Name() string { return c.Cmd.FullCommand() }

func (c ConfigCommand) Run(_ context.Context) (int, error) {
	cfg, err := c.rootCmd.LoadConfig()
	if err != nil {
		return ToolFailureExitCode, err
	}

	enc := yaml.NewEncoder(c.rootCmd.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return ToolFailureExitCode, fmt.Errorf("could not encode configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return ToolFailureExitCode, fmt.Errorf("could not encode configuration: %w", err)
	}

	return 0, nil
}
