package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/hugoci/internal/logfields"
)

// TempSuffix names the temp area next to a job workspace.
const TempSuffix = "@tmp"

// TempArea returns the temp area of a job workspace, a sibling directory of it.
func TempArea(workspace string) string {
	return filepath.Clean(workspace) + TempSuffix
}

// Manager owns one scratch directory.
type Manager struct {
	baseDir string
	pattern string
	dir     string
	keep    bool
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithKeep makes Cleanup leave the directory in place.
func WithKeep(keep bool) Option {
	return func(m *Manager) { m.keep = keep }
}

// WithPattern sets the os.MkdirTemp pattern for the directory name.
func WithPattern(pattern string) Option {
	return func(m *Manager) { m.pattern = pattern }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a manager for a scratch directory below baseDir (os.TempDir when blank).
func NewManager(baseDir string, opts ...Option) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	m := &Manager{baseDir: baseDir, pattern: "scratch*", logger: slog.Default()}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Create makes a fresh, uniquely named directory.
func (m *Manager) Create() (string, error) {
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create temp area: %w", err)
	}
	dir, err := os.MkdirTemp(m.baseDir, m.pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	m.dir = dir
	m.logger.Debug("Created scratch directory", logfields.Path(dir))
	return dir, nil
}

// GetPath returns the scratch directory, or "" before Create.
func (m *Manager) GetPath() string {
	return m.dir
}

// Cleanup removes the scratch directory unless the manager keeps it.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if m.keep {
		m.logger.Info("Keeping scratch directory", logfields.Path(m.dir))
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to cleanup scratch directory: %w", err)
	}
	m.logger.Debug("Removed scratch directory", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
