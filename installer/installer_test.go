package installer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/tryrun/process"
)

// MockCommandRunner implements process.CommandRunner for testing
type MockCommandRunner struct {
	status process.ExitStatus
	err    error
	output string
	calls  []process.Command
}

func (m *MockCommandRunner) Run(_ context.Context, cmd process.Command) (process.ExitStatus, error) {
	m.calls = append(m.calls, cmd)
	if m.output != "" && cmd.Stderr != nil {
		_, _ = io.WriteString(cmd.Stderr, m.output)
	}
	return m.status, m.err
}

func TestInstallerCommand(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("DefaultCargoInvocation", func(t *testing.T) {
		inst := New(logger, DefaultConfig())

		cmd := inst.Command("status-return", "/tmp/tryrun-1")
		assert.Equal(t, "cargo", cmd.Path)
		assert.Equal(t, []string{"install", "status-return", "--root", "/tmp/tryrun-1"}, cmd.Args)
	})

	t.Run("ExtraArgsComeLast", func(t *testing.T) {
		inst := New(logger, Config{
			Command:   "/opt/bin/cargo",
			Args:      []string{"+nightly", "install"},
			RootFlag:  "--root",
			ExtraArgs: []string{"--locked"},
		})

		cmd := inst.Command("ripgrep", "/sb")
		assert.Equal(t, "/opt/bin/cargo", cmd.Path)
		assert.Equal(t, []string{"+nightly", "install", "ripgrep", "--root", "/sb", "--locked"}, cmd.Args)
	})
}

func TestInstallerInstall(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	tests := map[string]struct {
		runner    *MockCommandRunner
		expErr    error
		expStatus *process.ExitStatus
	}{
		"Zero exit status is a success": {
			runner: &MockCommandRunner{status: process.ExitStatus{Code: 0}, output: "Installed package"},
		},
		"Non zero exit status is an install failure": {
			runner:    &MockCommandRunner{status: process.ExitStatus{Code: 101}},
			expErr:    ErrInstallFailed,
			expStatus: &process.ExitStatus{Code: 101},
		},
		"Absent exit status is an install failure": {
			runner:    &MockCommandRunner{status: process.ExitStatus{Code: -1, Signal: 15}},
			expErr:    ErrInstallFailed,
			expStatus: &process.ExitStatus{Code: -1, Signal: 15},
		},
		"Spawn failure is propagated": {
			runner: &MockCommandRunner{err: errors.Join(process.ErrSpawn, errors.New("executable file not found in $PATH"))},
			expErr: process.ErrSpawn,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			inst := New(logger, DefaultConfig(), WithCommandRunner(test.runner))
			var stdout, stderr bytes.Buffer

			err := inst.Install(ctx, "status-return", "/sb", &stdout, &stderr)

			require.Len(t, test.runner.calls, 1)
			call := test.runner.calls[0]
			assert.Equal(t, []string{"install", "status-return", "--root", "/sb"}, call.Args)
			assert.Equal(t, &stdout, call.Stdout)
			assert.Equal(t, &stderr, call.Stderr)
			assert.Equal(t, test.runner.output, stderr.String())

			if test.expErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, test.expErr)

			if test.expStatus != nil {
				var failed *FailedError
				require.ErrorAs(t, err, &failed)
				assert.Equal(t, *test.expStatus, failed.Status)
			}
		})
	}
}

func TestFailedErrorMessage(t *testing.T) {
	err := &FailedError{Status: process.ExitStatus{Code: 101}}
	assert.Equal(t, "package manager failed with exit status 101", err.Error())
	assert.NotErrorIs(t, err, process.ErrSpawn)
}
