// Package process runs external commands to completion and reports how they
// terminated.
//
// Both the package manager and the installed executable are started through
// the CommandRunner interface so the stages that use them can be tested
// without spawning anything.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"
)

// ErrSpawn is wrapped by errors returned when a command could not be started
// at all, e.g. the binary is missing or the working directory is unusable.
var ErrSpawn = errors.New("process could not be spawned")

// Command describes a single child process.
type Command struct {
	Path   string
	Args   []string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ExitStatus is the termination status of a child process. Code is -1 when
// the process did not exit normally (absent status), Signal holds the signal
// number when the platform reports one.
type ExitStatus struct {
	Code   int
	Signal int
}

// Exited reports whether the process exited on its own and Code is meaningful.
func (s ExitStatus) Exited() bool {
	return s.Code >= 0
}

// Success reports a zero exit code. An absent status is never a success.
func (s ExitStatus) Success() bool {
	return s.Code == 0
}

func (s ExitStatus) String() string {
	switch {
	case s.Exited():
		return fmt.Sprintf("exit status %d", s.Code)
	case s.Signal > 0:
		return fmt.Sprintf("terminated by signal %d", s.Signal)
	default:
		return "terminated without exit status"
	}
}

// CommandRunner defines an interface for executing system commands
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (ExitStatus, error)
}

// RealCommandRunner implements CommandRunner using actual exec commands.
//
// The context is only checked before the process is started. Once running,
// the child is waited for without timeout or cancellation.
type RealCommandRunner struct{}

// Run starts the command and blocks until it terminates. A non-zero or absent
// exit status is not an error, it is reported through ExitStatus.
func (RealCommandRunner) Run(ctx context.Context, c Command) (ExitStatus, error) {
	if c.Path == "" {
		return ExitStatus{}, fmt.Errorf("%w: no command provided", ErrSpawn)
	}
	if err := ctx.Err(); err != nil {
		return ExitStatus{}, fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	cmd := exec.Command(c.Path, c.Args...) //nolint:gosec // Running the requested command is the purpose of this type
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	if err := cmd.Start(); err != nil {
		return ExitStatus{}, fmt.Errorf("%w: %s: %w", ErrSpawn, c.Path, err)
	}

	err := cmd.Wait()
	if err != nil {
		var exitError *exec.ExitError
		if !errors.As(err, &exitError) {
			return statusOf(cmd), fmt.Errorf("failed waiting for %s: %w", c.Path, err)
		}
	}

	return statusOf(cmd), nil
}

func statusOf(cmd *exec.Cmd) ExitStatus {
	state := cmd.ProcessState
	if state == nil {
		return ExitStatus{Code: -1}
	}

	status := ExitStatus{Code: state.ExitCode()}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		status.Signal = int(ws.Signal())
	}

	return status
}
