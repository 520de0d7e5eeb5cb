package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// FileAssertions checks file-system state below a base directory.
type FileAssertions struct {
	t       *testing.T
	baseDir string
}

// NewFileAssertions creates a new file assertions helper.
func NewFileAssertions(t *testing.T, baseDir string) *FileAssertions {
	return &FileAssertions{t: t, baseDir: baseDir}
}

// AssertFileExists validates that a regular file exists.
func (fa *FileAssertions) AssertFileExists(relativePath string) *FileAssertions {
	fa.t.Helper()
	stat, err := os.Stat(filepath.Join(fa.baseDir, relativePath))
	if assert.NoError(fa.t, err, "expected %s to exist", relativePath) {
		assert.False(fa.t, stat.IsDir(), "expected %s to be a file", relativePath)
	}
	return fa
}

// AssertNotExists validates that nothing exists at the path.
func (fa *FileAssertions) AssertNotExists(relativePath string) *FileAssertions {
	fa.t.Helper()
	_, err := os.Stat(filepath.Join(fa.baseDir, relativePath))
	assert.True(fa.t, os.IsNotExist(err), "expected %s not to exist", relativePath)
	return fa
}

// AssertFileContent validates the exact content of a file.
func (fa *FileAssertions) AssertFileContent(relativePath, expected string) *FileAssertions {
	fa.t.Helper()
	// #nosec G304 - test helper, paths are controlled by test code
	data, err := os.ReadFile(filepath.Join(fa.baseDir, relativePath))
	if assert.NoError(fa.t, err) {
		assert.Equal(fa.t, expected, string(data), relativePath)
	}
	return fa
}
