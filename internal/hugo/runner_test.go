package hugo

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herrors "git.home.luguber.info/inful/hugoci/internal/hugo/errors"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_ExitCodes(t *testing.T) {
	requireShell(t)
	var out bytes.Buffer
	dir := t.TempDir()

	code, err := ExecRunner{}.Run(context.Background(), Command{
		Line:   `sh -c "echo $GREETING; pwd; exit 3"`,
		Dir:    dir,
		Env:    []string{"GREETING=hello"},
		Stdout: &out,
		Stderr: &out,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Contains(t, out.String(), "hello")
	assert.Contains(t, out.String(), dir)
}

func TestExecRunner_Success(t *testing.T) {
	requireShell(t)
	code, err := ExecRunner{}.Run(context.Background(), Command{Line: "sh -c true", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestExecRunner_NotFound(t *testing.T) {
	code, err := ExecRunner{}.Run(context.Background(), Command{Line: "/definitely/not/here/hugo version", Dir: t.TempDir()})
	assert.Equal(t, ExitCodeNotFound, code)
	assert.True(t, errors.Is(err, herrors.ErrToolNotFound), "got %v", err)

	code, err = ExecRunner{}.Run(context.Background(), Command{Line: "hugoci-missing-binary-xyz version"})
	assert.Equal(t, ExitCodeNotFound, code)
	assert.True(t, errors.Is(err, herrors.ErrToolNotFound), "got %v", err)
}

func TestExecRunner_EmptyAndMalformed(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), Command{Line: "   "})
	assert.ErrorIs(t, err, herrors.ErrEmptyCommand)

	_, err = ExecRunner{}.Run(context.Background(), Command{Line: `hugo "unterminated`})
	assert.Error(t, err)
}
