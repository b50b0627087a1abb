package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/isdmx/tryrun/config"
	"github.com/isdmx/tryrun/process"
)

const fakeCargo = `#!/bin/sh
pkg="$2"
root="$4"
case "$pkg" in
fail-*) echo "error: could not find $pkg" >&2; exit 101 ;;
esac
mkdir -p "$root/bin"
cat > "$root/bin/$pkg" <<'EOF'
#!/bin/sh
[ $# -gt 0 ] && printf '%s\n' "$@"
exit "${1:-42}"
EOF
chmod +x "$root/bin/$pkg"
`

// testEnv isolates a test from any tryrun.yaml on the machine and points the
// sandbox at a temp dir. It returns the sandbox base dir and the config path.
func testEnv(t *testing.T) (string, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake package manager requires a POSIX shell")
	}
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	pm := filepath.Join(dir, "fake-cargo")
	require.NoError(t, os.WriteFile(pm, []byte(fakeCargo), 0o700))

	base := filepath.Join(dir, "sandboxes")
	require.NoError(t, os.Mkdir(base, 0o755))

	cfgPath := filepath.Join(dir, "tryrun.yaml")
	cfg := "installer:\n  command: " + pm + "\nsandbox:\n  base_dir: " + base + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	return base, cfgPath
}

func runApp(t *testing.T, args ...string) (int, string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code, err := Run(context.Background(), append([]string{"tryrun"}, args...), strings.NewReader(""), &stdout, &stderr)
	return code, stdout.String(), stderr.String(), err
}

func TestRunCommand(t *testing.T) {
	t.Run("ExitCodeOfThePackage", func(t *testing.T) {
		base, cfgPath := testEnv(t)

		code, stdout, _, err := runApp(t, "--config", cfgPath, "run", "status-return")
		require.NoError(t, err)
		assert.Equal(t, 42, code)
		assert.Empty(t, stdout)

		entries, err := os.ReadDir(base)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("PassThroughArgs", func(t *testing.T) {
		_, cfgPath := testEnv(t)

		code, stdout, _, err := runApp(t, "--config", cfgPath, "run", "status-return", "99")
		require.NoError(t, err)
		assert.Equal(t, 99, code)
		assert.Equal(t, "99\n", stdout)
	})

	t.Run("FlagsAfterPackageArePassedThrough", func(t *testing.T) {
		_, cfgPath := testEnv(t)

		code, stdout, _, err := runApp(t, "--config", cfgPath, "run", "status-return", "7", "-x", "--verbose")
		require.NoError(t, err)
		assert.Equal(t, 7, code)
		assert.Equal(t, "7\n-x\n--verbose\n", stdout)
	})

	t.Run("LogsGoToGivenStderr", func(t *testing.T) {
		_, cfgPath := testEnv(t)

		code, stdout, stderr, err := runApp(t, "--config", cfgPath, "--verbose", "run", "status-return", "3")
		require.NoError(t, err)
		assert.Equal(t, 3, code)
		assert.Equal(t, "3\n", stdout)
		assert.Contains(t, stderr, "running executable with args")
		assert.Contains(t, stderr, "invocation finished")
	})

	t.Run("QuietByDefault", func(t *testing.T) {
		_, cfgPath := testEnv(t)

		_, _, stderr, err := runApp(t, "--config", cfgPath, "run", "status-return", "0")
		require.NoError(t, err)
		assert.NotContains(t, stderr, "running executable")
	})

	t.Run("InstallerOverride", func(t *testing.T) {
		_, cfgPath := testEnv(t)

		code, _, _, err := runApp(t, "--config", cfgPath, "--installer", filepath.Join(t.TempDir(), "missing"), "run", "status-return")
		require.Error(t, err)
		assert.Equal(t, ToolFailureExitCode, code)
		assert.Contains(t, err.Error(), "ProcessSpawnError")
	})

	t.Run("InstallFailure", func(t *testing.T) {
		base, cfgPath := testEnv(t)

		code, stdout, stderr, err := runApp(t, "--config", cfgPath, "run", "fail-me")
		require.Error(t, err)
		assert.Equal(t, ToolFailureExitCode, code)
		assert.Contains(t, err.Error(), "install: InstallFailed")
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "could not find fail-me")

		entries, err := os.ReadDir(base)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("InvalidPackageName", func(t *testing.T) {
		_, cfgPath := testEnv(t)

		code, _, _, err := runApp(t, "--config", cfgPath, "run", "bad name")
		require.Error(t, err)
		assert.Equal(t, ToolFailureExitCode, code)
		assert.Contains(t, err.Error(), "InvalidPackageName")
	})

	t.Run("MissingPackage", func(t *testing.T) {
		_, cfgPath := testEnv(t)

		code, _, _, err := runApp(t, "--config", cfgPath, "run")
		require.Error(t, err)
		assert.Equal(t, ToolFailureExitCode, code)
		assert.Contains(t, err.Error(), "invalid command configuration")
	})
}

func TestConfigCommand(t *testing.T) {
	_, cfgPath := testEnv(t)

	code, stdout, _, err := runApp(t, "--config", cfgPath, "--debug", "--log-mode", "production", "config")
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &cfg))
	assert.True(t, strings.HasSuffix(cfg.Installer.Command, "fake-cargo"))
	assert.Equal(t, []string{"install"}, cfg.Installer.Args)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "production", cfg.Logging.Mode)
	assert.Equal(t, "tryrun-", cfg.Sandbox.Prefix)
}

func TestExitCode(t *testing.T) {
	tests := map[string]struct {
		status process.ExitStatus
		exp    int
	}{
		"Exit code is relayed":        {status: process.ExitStatus{Code: 42}, exp: 42},
		"Zero is relayed":             {status: process.ExitStatus{Code: 0}, exp: 0},
		"Signal maps to 128 plus num": {status: process.ExitStatus{Code: -1, Signal: 9}, exp: 137},
		"Unknown termination is 1":    {status: process.ExitStatus{Code: -1}, exp: 1},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, ExitCode(test.status))
		})
	}
}
