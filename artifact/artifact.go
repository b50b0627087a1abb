// Package artifact finds the executable a package installed and runs it.
//
// Discovery is a single, non-recursive scan of the sandbox bin directory for
// an entry whose file stem equals the package name. The first match in
// directory iteration order wins; that order is whatever the filesystem
// returns, so two entries sharing a stem (tool and tool.exe) resolve to either.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/isdmx/tryrun/process"
	"github.com/isdmx/tryrun/sandbox"
)

var (
	// ErrNotFound is returned when no entry matches the package name or the
	// directory can't be read.
	ErrNotFound = errors.New("executable not found")
	// ErrWorkdir is returned when the run working directory can't be created.
	ErrWorkdir = errors.New("working directory could not be created")
)

// Stem returns the file name without its last extension. A name that is only
// an extension, like ".profile", is its own stem.
func Stem(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" {
		return name
	}
	return stem
}

// Locator scans a directory for a package executable.
type Locator struct {
	logger *zap.Logger
	fs     sandbox.FileSystem
}

// NewLocator creates a Locator on top of fs.
func NewLocator(logger *zap.Logger, fs sandbox.FileSystem) *Locator {
	return &Locator{logger: logger, fs: fs}
}

// Find returns the path of the first entry in dir whose stem is exactly pkg.
func (l *Locator) Find(pkg, dir string) (string, error) {
	l.logger.Info("searching for executable", zap.String("package", pkg), zap.String("dir", dir))

	entries, err := l.fs.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: cannot read %s: %w", ErrNotFound, dir, err)
	}

	for _, entry := range entries {
		if Stem(entry.Name()) == pkg {
			path := filepath.Join(dir, entry.Name())
			l.logger.Info("found executable matching install name", zap.String("package", pkg), zap.String("path", path))
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: no entry named %s in %s", ErrNotFound, pkg, dir)
}

// RunRequest describes one run of a located executable.
type RunRequest struct {
	Executable string
	// Workdir is created by Run and must not exist yet.
	Workdir string
	Args    []string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// Runner starts a located executable in a fresh working directory.
type Runner struct {
	logger    *zap.Logger
	fs        sandbox.FileSystem
	cmdRunner process.CommandRunner
}

// NewRunner creates a Runner.
func NewRunner(logger *zap.Logger, fs sandbox.FileSystem, cmdRunner process.CommandRunner) *Runner {
	return &Runner{logger: logger, fs: fs, cmdRunner: cmdRunner}
}

// Run creates the working directory, then runs the executable with the
// arguments exactly as given and waits for it. The child's status is
// returned unmodified, a signal termination is a status, not an error.
func (r *Runner) Run(ctx context.Context, req RunRequest) (process.ExitStatus, error) {
	r.logger.Info("creating working directory", zap.String("dir", req.Workdir))
	if err := r.fs.Mkdir(req.Workdir, sandbox.DirPermission); err != nil {
		return process.ExitStatus{}, fmt.Errorf("%w: %w", ErrWorkdir, err)
	}

	name := filepath.Base(req.Executable)
	if len(req.Args) == 0 {
		r.logger.Info("running executable", zap.String("executable", name))
	} else {
		r.logger.Info("running executable with args", zap.String("executable", name), zap.Strings("args", req.Args))
	}

	status, err := r.cmdRunner.Run(ctx, process.Command{
		Path:   req.Executable,
		Args:   req.Args,
		Dir:    req.Workdir,
		Stdin:  req.Stdin,
		Stdout: req.Stdout,
		Stderr: req.Stderr,
	})
	if err != nil {
		return status, fmt.Errorf("failed to run %s: %w", name, err)
	}

	if status.Exited() {
		r.logger.Info("exited with status code", zap.Int("code", status.Code))
	} else {
		r.logger.Warn("terminated without exit status", zap.Int("signal", status.Signal))
	}

	return status, nil
}
