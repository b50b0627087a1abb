package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// Run runs the main application and returns the exit code for the process.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	app := kingpin.New("tryrun", "Install a package into a temporary root, run it once and discard it.")
	app.Version(Version)
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	// Everything after the package name belongs to the executed package,
	// flags included.
	app.Interspersed(false)

	rootCmd := NewRootCommand(app)

	runCmd := NewRunCommand(rootCmd, app)
	serveCmd := NewServeCommand(rootCmd, app)
	configCmd := NewConfigCommand(rootCmd, app)

	cmds := map[string]Command{
		runCmd.Name():    runCmd,
		serveCmd.Name():  serveCmd,
		configCmd.Name(): configCmd,
	}

	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return ToolFailureExitCode, fmt.Errorf("invalid command configuration: %w", err)
	}

	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr

	code, err := cmds[cmdName].Run(ctx)
	if err != nil {
		return code, fmt.Errorf("%q command failed: %w", cmdName, err)
	}

	return code, nil
}

func main() {
	ctx := context.Background()
	code, err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(code)
}
