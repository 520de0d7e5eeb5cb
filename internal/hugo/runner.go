package hugo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os/exec"

	"github.com/google/shlex"

	herrors "git.home.luguber.info/inful/hugoci/internal/hugo/errors"
	"git.home.luguber.info/inful/hugoci/internal/logfields"
)

// ExitCodeNotFound is reported when the command could not be launched at all.
const ExitCodeNotFound = 127

// Command is a single command line to run.
type Command struct {
	Line   string
	Dir    string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// CommandRunner runs a command to completion and reports its exit code.
// A non-zero exit is not an error; err is set only when the process could not run.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (int, error)
}

// ExecRunner runs commands as local subprocesses.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, c Command) (int, error) {
	args, err := shlex.Split(c.Line)
	if err != nil {
		return -1, fmt.Errorf("parse command %q: %w", c.Line, err)
	}
	if len(args) == 0 {
		return -1, herrors.ErrEmptyCommand
	}

	// #nosec G204 -- the command line is operator configuration
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	slog.Debug("Launching command", logfields.Command(c.Line), logfields.Dir(c.Dir))
	err = cmd.Run()
	if err == nil {
		return 0, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	var execErr *exec.Error
	var pathErr *fs.PathError
	if errors.As(err, &execErr) || errors.As(err, &pathErr) {
		return ExitCodeNotFound, fmt.Errorf("%w: %w", herrors.ErrToolNotFound, err)
	}
	return -1, err
}
