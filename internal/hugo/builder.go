package hugo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	herrors "git.home.luguber.info/inful/hugoci/internal/hugo/errors"
	"git.home.luguber.info/inful/hugoci/internal/logfields"
	"git.home.luguber.info/inful/hugoci/internal/run"
)

// StepName is the short name the build step is registered under.
const StepName = "hugo"

// Builder is the site-build step.
type Builder struct {
	Options BuildOptions
	runner  CommandRunner
}

// NewBuilder creates a build step running hugo as a local subprocess.
func NewBuilder(opts BuildOptions) *Builder {
	return &Builder{Options: opts, runner: ExecRunner{}}
}

// WithRunner allows tests or callers to inject a custom runner.
func (b *Builder) WithRunner(r CommandRunner) *Builder {
	if r != nil {
		b.runner = r
	}
	return b
}

// Name implements pipeline.Step.
func (b *Builder) Name() string { return StepName }

// Perform runs the version check and, when it succeeds, the build. Tool failures
// are recorded on r; the returned error is reserved for cancellation.
func (b *Builder) Perform(ctx context.Context, r *run.Run) error {
	var versionOut bytes.Buffer
	code, err := b.launch(ctx, r, VersionCommand(b.Options), &versionOut)
	if err != nil || code != 0 {
		return b.recordFailure(ctx, r, "Hugo version error", herrors.ErrVersionCheckFailed, code, err)
	}

	if found, err := CheckVersion(b.Options.MinVersion, versionOut.String()); err != nil {
		r.Fail("Hugo version check failed", logfields.Error(err))
		return nil
	} else if found != "" {
		r.Logger.Info("Detected hugo", "version", found)
	}

	code, err = b.launch(ctx, r, BuildCommand(b.Options), nil)
	if err != nil || code != 0 {
		return b.recordFailure(ctx, r, "Hugo build error", herrors.ErrBuildFailed, code, err)
	}
	r.Logger.Info("Hugo site built", logfields.Path(b.Options.ResolvedDestination()))
	return nil
}

func (b *Builder) launch(ctx context.Context, r *run.Run, line string, capture io.Writer) (int, error) {
	out := r.Output
	if out == nil {
		out = io.Discard
	}
	_, _ = fmt.Fprintf(out, "$ %s\n", line)
	if capture != nil {
		out = io.MultiWriter(out, capture)
	}

	return b.runner.Run(ctx, Command{
		Line:   line,
		Dir:    r.Workspace,
		Env:    r.Env,
		Stdout: out,
		Stderr: out,
	})
}

// recordFailure records a tool failure on r. A non-zero exit without a launch error
// is reported as sentinel wrapped with the exit code.
func (b *Builder) recordFailure(ctx context.Context, r *run.Run, msg string, sentinel error, code int, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		r.SetResult(run.ResultAborted)
		return ctxErr
	}
	if err == nil {
		err = fmt.Errorf("%w: exit code %d", sentinel, code)
	}
	attrs := []any{logfields.ExitCode(code), logfields.Error(err)}
	if errors.Is(err, herrors.ErrToolNotFound) {
		attrs = append(attrs, "hint", "install hugo or set build.hugo_home")
	}
	r.Fail(msg, attrs...)
	return nil
}
