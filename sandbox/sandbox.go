package sandbox

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// ErrCreate is wrapped by Acquire failures.
var ErrCreate = errors.New("sandbox could not be created")

// Config holds configuration for the sandbox manager
type Config struct {
	// BaseDir is the parent of every sandbox root, empty means the OS temp dir.
	BaseDir string
	// Prefix starts every sandbox directory name.
	Prefix string
}

// Manager hands out per invocation sandboxes.
type Manager struct {
	logger *zap.Logger
	config Config
	fs     FileSystem
}

// ManagerOption defines a functional option for Manager
type ManagerOption func(*Manager)

// WithFileSystem sets the FileSystem for Manager
func WithFileSystem(fs FileSystem) ManagerOption {
	return func(m *Manager) {
		m.fs = fs
	}
}

// NewManager creates a new Manager with default implementations and optional interfaces
func NewManager(logger *zap.Logger, config Config, opts ...ManagerOption) *Manager {
	manager := &Manager{
		logger: logger,
		config: config,
		fs:     &RealFileSystem{},
	}

	for _, opt := range opts {
		opt(manager)
	}

	return manager
}

// Sandbox is an exclusively owned temporary directory tree. It must be
// released exactly once by its owner, further Release calls are no-ops.
type Sandbox struct {
	root   string
	fs     FileSystem
	logger *zap.Logger

	once       sync.Once
	releaseErr error
}

// Acquire creates a fresh, uniquely named sandbox root. tag is embedded in the
// directory name to ease debugging, it may be empty.
func (m *Manager) Acquire(tag string) (*Sandbox, error) {
	pattern := m.config.Prefix + "*"
	if tag != "" {
		pattern = m.config.Prefix + tag + "-*"
	}

	root, err := m.fs.MkdirTemp(m.config.BaseDir, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	m.logger.Debug("sandbox acquired", zap.String("root", root))

	return &Sandbox{
		root:   root,
		fs:     m.fs,
		logger: m.logger,
	}, nil
}

// Use acquires a sandbox, hands it to fn and releases it on every return path,
// panics included. Release failures are logged and never replace the result
// of fn.
func (m *Manager) Use(tag string, fn func(sb *Sandbox) error) error {
	sb, err := m.Acquire(tag)
	if err != nil {
		return err
	}
	defer sb.Release() //nolint:errcheck // logged by Release

	return fn(sb)
}

// Root returns the sandbox root directory.
func (s *Sandbox) Root() string { return s.root }

// BinDir returns the directory the package manager installs executables into.
func (s *Sandbox) BinDir() string { return filepath.Join(s.root, BinDirName) }

// CwdDir returns the working directory of the executed package.
func (s *Sandbox) CwdDir() string { return filepath.Join(s.root, CwdDirName) }

// Release recursively deletes the sandbox.
func (s *Sandbox) Release() error {
	s.once.Do(func() {
		if err := s.fs.RemoveAll(s.root); err != nil {
			s.releaseErr = fmt.Errorf("failed to remove sandbox %s: %w", s.root, err)
			s.logger.Warn("sandbox cleanup failed", zap.String("root", s.root), zap.Error(err))
			return
		}
		s.logger.Debug("sandbox released", zap.String("root", s.root))
	})

	return s.releaseErr
}
