// Package installer installs a named package into a sandbox root by running
// the external package manager, e.g. `cargo install <package> --root <root>`.
//
// The layout under the root is whatever the package manager produces. By
// convention executables end up in <root>/bin.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/isdmx/tryrun/process"
)

// ErrInstallFailed matches any FailedError.
var ErrInstallFailed = errors.New("install failed")

// FailedError is returned when the package manager ran but did not exit with
// status zero. The cause (unknown package, build error) is not distinguished.
type FailedError struct {
	Status process.ExitStatus
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("package manager failed with %s", e.Status)
}

func (*FailedError) Is(target error) bool {
	return target == ErrInstallFailed
}

// Config describes the package manager command line:
// Command Args... <package> RootFlag <root> ExtraArgs...
type Config struct {
	Command   string
	Args      []string
	RootFlag  string
	ExtraArgs []string
}

// DefaultConfig installs with cargo.
func DefaultConfig() Config {
	return Config{
		Command:  "cargo",
		Args:     []string{"install"},
		RootFlag: "--root",
	}
}

// Installer runs the package manager.
type Installer struct {
	logger    *zap.Logger
	config    Config
	cmdRunner process.CommandRunner
}

// Option defines a functional option for Installer
type Option func(*Installer)

// WithCommandRunner sets the CommandRunner for Installer
func WithCommandRunner(cmdRunner process.CommandRunner) Option {
	return func(i *Installer) {
		i.cmdRunner = cmdRunner
	}
}

// New creates a new Installer with default implementations and optional interfaces
func New(logger *zap.Logger, config Config, opts ...Option) *Installer {
	inst := &Installer{
		logger:    logger,
		config:    config,
		cmdRunner: &process.RealCommandRunner{},
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// Command returns the package manager invocation for pkg and root.
func (i *Installer) Command(pkg, root string) process.Command {
	args := make([]string, 0, len(i.config.Args)+len(i.config.ExtraArgs)+3)
	args = append(args, i.config.Args...)
	args = append(args, pkg, i.config.RootFlag, root)
	args = append(args, i.config.ExtraArgs...)

	return process.Command{
		Path: i.config.Command,
		Args: args,
	}
}

// Install runs the package manager synchronously. Its output is forwarded to
// stdout and stderr. The error wraps process.ErrSpawn when the package
// manager could not be started, and is a *FailedError when it exited badly.
func (i *Installer) Install(ctx context.Context, pkg, root string, stdout, stderr io.Writer) error {
	cmd := i.Command(pkg, root)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	i.logger.Info("installing package",
		zap.String("package", pkg),
		zap.String("root", root),
		zap.String("command", cmd.Path),
		zap.Strings("args", cmd.Args))

	status, err := i.cmdRunner.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("failed to execute %s: %w", cmd.Path, err)
	}

	if !status.Success() {
		return &FailedError{Status: status}
	}

	i.logger.Info("package installed", zap.String("package", pkg))

	return nil
}
