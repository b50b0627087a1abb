package main

import (
	"context"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/isdmx/tryrun/pipeline"
	"github.com/isdmx/tryrun/process"
)

// ToolFailureExitCode is the exit code used when the pipeline fails before
// the package ran.
const ToolFailureExitCode = 101

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	pkg  string
	args []string
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Install a package into a temporary root, run its executable once and discard it.")
	c.Cmd.Arg("package", "Package to install.").Required().StringVar(&c.pkg)
	c.Cmd.Arg("args", "Arguments passed verbatim to the executable.").StringsVar(&c.args)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) (int, error) {
	cfg, err := c.rootCmd.LoadConfig()
	if err != nil {
		return ToolFailureExitCode, err
	}

	var (
		p      *pipeline.Pipeline
		logger *zap.Logger
	)
	if _, err := newApp(cfg, c.rootCmd.Stderr, &p, &logger); err != nil {
		return ToolFailureExitCode, err
	}
	defer logger.Sync() //nolint:errcheck // stderr sync fails on some terminals

	outcome, err := p.Run(ctx, pipeline.Request{
		Package: c.pkg,
		Args:    c.args,
		Stdin:   c.rootCmd.Stdin,
		Stdout:  c.rootCmd.Stdout,
		Stderr:  c.rootCmd.Stderr,
	})
	if err != nil {
		return ToolFailureExitCode, err
	}

	return ExitCode(outcome.Status), nil
}

// ExitCode maps the executable's status to the exit code of tryrun. A signal
// termination is reported the way shells do, 128 plus the signal number.
func ExitCode(status process.ExitStatus) int {
	switch {
	case status.Exited():
		return status.Code
	case status.Signal > 0:
		return 128 + status.Signal
	default:
		return 1
	}
}
