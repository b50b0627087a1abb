package pipeline

import (
	"errors"
	"fmt"

	"github.com/isdmx/tryrun/artifact"
	"github.com/isdmx/tryrun/installer"
	"github.com/isdmx/tryrun/pkgname"
	"github.com/isdmx/tryrun/process"
	"github.com/isdmx/tryrun/sandbox"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidPackageName
	KindSandboxCreation
	KindProcessSpawn
	KindInstallFailed
	KindExecutableNotFound
	KindDirectoryCreation
)

func (k Kind) String() string {
	switch k {
	case KindInvalidPackageName:
		return "InvalidPackageName"
	case KindSandboxCreation:
		return "SandboxCreationError"
	case KindProcessSpawn:
		return "ProcessSpawnError"
	case KindInstallFailed:
		return "InstallFailed"
	case KindExecutableNotFound:
		return "ExecutableNotFound"
	case KindDirectoryCreation:
		return "DirectoryCreationError"
	default:
		return "Unknown"
	}
}

// Stage names used in error messages and logs.
const (
	StageValidate = "validate"
	StageSandbox  = "sandbox"
	StageInstall  = "install"
	StageLocate   = "locate"
	StageRun      = "run"
)

// Sentinels matching an *Error of the corresponding kind with errors.Is.
var (
	ErrInvalidPackageName = errors.New("invalid package name")
	ErrSandboxCreation    = errors.New("sandbox creation failed")
	ErrProcessSpawn       = errors.New("process spawn failed")
	ErrInstallFailed      = errors.New("install failed")
	ErrExecutableNotFound = errors.New("executable not found")
	ErrDirectoryCreation  = errors.New("directory creation failed")
)

var kindSentinels = map[Kind]error{
	KindInvalidPackageName: ErrInvalidPackageName,
	KindSandboxCreation:    ErrSandboxCreation,
	KindProcessSpawn:       ErrProcessSpawn,
	KindInstallFailed:      ErrInstallFailed,
	KindExecutableNotFound: ErrExecutableNotFound,
	KindDirectoryCreation:  ErrDirectoryCreation,
}

// Error is the typed failure of a pipeline stage. Status is only set for
// KindInstallFailed.
type Error struct {
	Kind   Kind
	Stage  string
	Status process.ExitStatus
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// classify wraps a stage error into an *Error. Spawn failures can come out of
// both the install and the run stage.
func classify(stage string, err error) *Error {
	e := &Error{Stage: stage, Err: err}

	var failed *installer.FailedError
	switch {
	case errors.Is(err, pkgname.ErrInvalid):
		e.Kind = KindInvalidPackageName
	case errors.Is(err, sandbox.ErrCreate):
		e.Kind = KindSandboxCreation
	case errors.Is(err, process.ErrSpawn):
		e.Kind = KindProcessSpawn
	case errors.As(err, &failed):
		e.Kind = KindInstallFailed
		e.Status = failed.Status
	case errors.Is(err, artifact.ErrNotFound):
		e.Kind = KindExecutableNotFound
	case errors.Is(err, artifact.ErrWorkdir):
		e.Kind = KindDirectoryCreation
	}

	return e
}
