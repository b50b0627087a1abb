// Package pipeline implements the install, run once, discard workflow.
//
// A run goes through four strictly sequential stages: the package name is
// validated, a sandbox is acquired, the package manager installs the package
// into it, and the same-named executable is located and run in a fresh
// working directory. Any failure aborts the run without retries. The sandbox
// is removed on every path.
package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/isdmx/tryrun/artifact"
	"github.com/isdmx/tryrun/config"
	"github.com/isdmx/tryrun/installer"
	"github.com/isdmx/tryrun/pkgname"
	"github.com/isdmx/tryrun/process"
	"github.com/isdmx/tryrun/sandbox"
)

// Config holds the stage configuration of a Pipeline.
type Config struct {
	Installer installer.Config
	Sandbox   sandbox.Config
}

// Request is one invocation.
type Request struct {
	Package string
	// Args are handed to the executable verbatim.
	Args []string

	Stdin io.Reader
	// Stdout receives the executable's standard output.
	Stdout io.Writer
	// Stderr receives the executable's standard error and all package
	// manager output.
	Stderr io.Writer

	// ArchiveWorkdir returns what the executable left in its working
	// directory as a tar.gz in Outcome.WorkdirTar, capped at ArchiveLimit
	// bytes when positive.
	ArchiveWorkdir bool
	ArchiveLimit   int
}

// Outcome is the result of an invocation. When Run returns an error, Status is
// absent (Code -1) since the executable never ran to completion.
type Outcome struct {
	InvocationID string
	Status       process.ExitStatus
	// WorkdirTar is only set when requested and archiving succeeded.
	WorkdirTar []byte
}

// Pipeline runs invocations. It holds no per invocation state and can be used
// concurrently, each invocation gets its own sandbox.
type Pipeline struct {
	logger    *zap.Logger
	sandboxes *sandbox.Manager
	installer *installer.Installer
	locator   *artifact.Locator
	runner    *artifact.Runner
}

type options struct {
	cmdRunner process.CommandRunner
	fs        sandbox.FileSystem
}

// Option defines a functional option for Pipeline
type Option func(*options)

// WithCommandRunner sets the CommandRunner used for the install and the run.
func WithCommandRunner(cmdRunner process.CommandRunner) Option {
	return func(o *options) {
		o.cmdRunner = cmdRunner
	}
}

// WithFileSystem sets the FileSystem used for the sandbox and the scan.
func WithFileSystem(fs sandbox.FileSystem) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// New creates a new Pipeline with default implementations and optional interfaces
func New(logger *zap.Logger, cfg Config, opts ...Option) *Pipeline {
	o := options{
		cmdRunner: &process.RealCommandRunner{},
		fs:        &sandbox.RealFileSystem{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Pipeline{
		logger:    logger,
		sandboxes: sandbox.NewManager(logger, cfg.Sandbox, sandbox.WithFileSystem(o.fs)),
		installer: installer.New(logger, cfg.Installer, installer.WithCommandRunner(o.cmdRunner)),
		locator:   artifact.NewLocator(logger, o.fs),
		runner:    artifact.NewRunner(logger, o.fs, o.cmdRunner),
	}
}

// NewFromConfig creates a Pipeline from the application configuration
func NewFromConfig(logger *zap.Logger, cfg *config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return New(logger, Config{
		Installer: installer.Config{
			Command:   cfg.Installer.Command,
			Args:      cfg.Installer.Args,
			RootFlag:  cfg.Installer.RootFlag,
			ExtraArgs: cfg.Installer.ExtraArgs,
		},
		Sandbox: sandbox.Config{
			BaseDir: cfg.Sandbox.BaseDir,
			Prefix:  cfg.Sandbox.Prefix,
		},
	}), nil
}

// Run executes one invocation. On success the Outcome carries the status of
// the executable, whatever it is. Any earlier failure is returned as an
// *Error and no status is produced.
func (p *Pipeline) Run(ctx context.Context, req Request) (Outcome, error) {
	outcome := Outcome{
		InvocationID: ulid.Make().String(),
		Status:       process.ExitStatus{Code: -1},
	}
	logger := p.logger.With(
		zap.String("invocation_id", outcome.InvocationID),
		zap.String("package", req.Package))

	if req.Stdout == nil {
		req.Stdout = io.Discard
	}
	if req.Stderr == nil {
		req.Stderr = io.Discard
	}

	logger.Debug("validating package name")
	if err := pkgname.Validate(req.Package); err != nil {
		return outcome, p.fail(logger, classify(StageValidate, err))
	}

	err := p.sandboxes.Use(strings.ToLower(outcome.InvocationID), func(sb *sandbox.Sandbox) error {
		logger.Info("installing to sandbox", zap.String("root", sb.Root()))
		if err := p.installer.Install(ctx, req.Package, sb.Root(), req.Stderr, req.Stderr); err != nil {
			return classify(StageInstall, err)
		}

		exe, err := p.locator.Find(req.Package, sb.BinDir())
		if err != nil {
			return classify(StageLocate, err)
		}

		status, err := p.runner.Run(ctx, artifact.RunRequest{
			Executable: exe,
			Workdir:    sb.CwdDir(),
			Args:       req.Args,
			Stdin:      req.Stdin,
			Stdout:     req.Stdout,
			Stderr:     req.Stderr,
		})
		if err != nil {
			return classify(StageRun, err)
		}

		outcome.Status = status

		if req.ArchiveWorkdir {
			archive, err := artifact.ArchiveDir(sb.CwdDir(), req.ArchiveLimit)
			if err != nil {
				logger.Warn("working directory not archived", zap.Error(err))
				return nil
			}
			outcome.WorkdirTar = archive
		}

		return nil
	})
	if err != nil {
		var pipelineErr *Error
		if !errors.As(err, &pipelineErr) {
			pipelineErr = classify(StageSandbox, err)
		}
		return outcome, p.fail(logger, pipelineErr)
	}

	logger.Info("invocation finished", zap.Stringer("status", outcome.Status))

	return outcome, nil
}

func (*Pipeline) fail(logger *zap.Logger, err *Error) error {
	logger.Info("invocation aborted",
		zap.String("stage", err.Stage),
		zap.Stringer("kind", err.Kind),
		zap.Error(err.Err))
	return err
}
