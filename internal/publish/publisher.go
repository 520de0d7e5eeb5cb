// Package publish implements the hugo-git-publish step: it clones the target branch into a
// scratch directory, overlays the generated site, commits and force-pushes it back.
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/otiai10/copy"

	"git.home.luguber.info/inful/hugoci/internal/auth"
	"git.home.luguber.info/inful/hugoci/internal/config"
	"git.home.luguber.info/inful/hugoci/internal/credentials"
	foundation "git.home.luguber.info/inful/hugoci/internal/foundation/errors"
	"git.home.luguber.info/inful/hugoci/internal/git"
	"git.home.luguber.info/inful/hugoci/internal/logfields"
	"git.home.luguber.info/inful/hugoci/internal/run"
	"git.home.luguber.info/inful/hugoci/internal/workspace"
)

// StepName is the short name the publish step is registered under.
const StepName = "hugo-git-publish"

// ScratchPattern names scratch clones in the workspace temp area.
const ScratchPattern = "hugo*public"

// Repository is the git porcelain the step drives. *git.Client implements it.
type Repository interface {
	Init() error
	Clone(ctx context.Context, url string) error
	CheckoutBranch(branch, startPoint string) error
	SetAuth(auth transport.AuthMethod)
	SetAuthor(name, email string)
	SetCommitter(name, email string)
	AddAll() error
	Commit(message string) (string, error)
	Push(ctx context.Context, url, branch string, force bool) error
}

// RepositoryFactory binds a Repository to a directory for run r.
type RepositoryFactory func(dir string, r *run.Run) Repository

func newGitRepository(dir string, r *run.Run) Repository {
	return git.NewClient(dir, git.WithProgress(r.Output), git.WithLogger(r.Logger))
}

// Publisher is the git publish step.
type Publisher struct {
	Options     Options
	credentials credentials.Lookup
	auth        *auth.Manager
	newRepo     RepositoryFactory
}

// NewPublisher creates the step. lookup may be nil when no credentials are configured.
func NewPublisher(opts Options, lookup credentials.Lookup) *Publisher {
	return &Publisher{
		Options:     opts,
		credentials: lookup,
		auth:        auth.DefaultManager,
		newRepo:     newGitRepository,
	}
}

// WithRepositoryFactory replaces the go-git backed repository, mainly for tests.
func (p *Publisher) WithRepositoryFactory(f RepositoryFactory) *Publisher {
	if f != nil {
		p.newRepo = f
	}
	return p
}

// Name implements pipeline.Step.
func (p *Publisher) Name() string { return StepName }

// Perform publishes the generated site. Credential problems (in strict mode), a missing
// publish directory and a malformed URL at push time are recorded on r; other git
// failures are returned.
func (p *Publisher) Perform(ctx context.Context, r *run.Run) (err error) {
	opts := p.Options
	if strings.TrimSpace(opts.TargetURL) == "" {
		return foundation.ConfigError("publish target url is required").
			WithContext("step", StepName).
			Build()
	}
	branch := opts.ResolvedBranch()
	log := r.Logger.With(logfields.Step(StepName))

	src := opts.SourceDir(r.Workspace)
	if _, statErr := os.Stat(src); statErr != nil {
		r.Fail("Publish directory not found", logfields.Path(src), logfields.Error(statErr))
		return nil
	}

	scratch := workspace.NewManager(workspace.TempArea(r.Workspace),
		workspace.WithPattern(ScratchPattern),
		workspace.WithKeep(opts.KeepScratch),
		workspace.WithLogger(log))
	dir, err := scratch.Create()
	if err != nil {
		return foundation.WrapError(err, foundation.CategoryFileSystem, "cannot create scratch directory").Build()
	}
	defer func() {
		if cerr := scratch.Cleanup(); cerr != nil {
			log.Warn("Scratch cleanup failed", logfields.Error(cerr))
		}
	}()
	log.Info("Scratch workspace", logfields.Path(dir))

	repo := p.newRepo(dir, r)
	if ok := p.attachCredentials(ctx, r, repo); !ok {
		return nil
	}

	defer func() {
		if err != nil && ctx.Err() != nil {
			r.SetResult(run.ResultAborted)
			err = ctx.Err()
		}
	}()

	if err := repo.Init(); err != nil {
		return err
	}
	if err := repo.Clone(ctx, opts.TargetURL); err != nil {
		return err
	}
	if err := repo.CheckoutBranch(branch, git.DefaultRemote+"/"+branch); err != nil {
		return err
	}

	if err := copy.Copy(src, dir, copy.Options{Skip: skipGitDir}); err != nil {
		return foundation.WrapError(err, foundation.CategoryFileSystem, "cannot copy site into clone").
			WithContext("path", src).
			Build()
	}

	if opts.AuthorName != "" {
		repo.SetAuthor(opts.AuthorName, opts.AuthorEmail)
	}
	if opts.CommitterName != "" {
		repo.SetCommitter(opts.CommitterName, opts.CommitterEmail)
	}

	if err := repo.AddAll(); err != nil {
		return err
	}
	hash, err := repo.Commit(opts.Message(r))
	if errors.Is(err, git.ErrNothingToCommit) {
		log.Info("Nothing to publish, site unchanged", logfields.Branch(branch))
		return nil
	}
	if err != nil {
		return err
	}

	log.Info("Prepare to commit and push", logfields.Commit(hash))
	if err := repo.Push(ctx, opts.TargetURL, branch, true); err != nil {
		if errors.Is(err, git.ErrMalformedURL) {
			r.Fail("Malformed target url",
				logfields.URL(opts.TargetURL),
				logfields.Error(err),
				"stack", goerrors.Wrap(err, 0).ErrorStack())
			return nil
		}
		return err
	}
	log.Info("Published site", logfields.URL(opts.TargetURL), logfields.Branch(branch), logfields.Commit(hash))
	return nil
}

// attachCredentials resolves the configured credential onto repo. It reports false
// when the run was failed and the step must stop.
func (p *Publisher) attachCredentials(ctx context.Context, r *run.Run, repo Repository) bool {
	id := strings.TrimSpace(p.Options.CredentialsID)
	if id == "" {
		r.Logger.Info("No credentials provided")
		return true
	}

	cred, err := p.lookup(ctx, id)
	if err == nil {
		var method transport.AuthMethod
		method, err = p.auth.CreateAuth(cred)
		if err == nil {
			repo.SetAuth(method)
			r.Logger.Debug("Using credentials", logfields.CredentialsID(id))
			return true
		}
	}

	if p.Options.StrictCredentials {
		r.Fail("Cannot use credentials", logfields.CredentialsID(id), logfields.Error(err))
		return false
	}
	r.Logger.Warn("Cannot use credentials, continuing without", logfields.CredentialsID(id), logfields.Error(err))
	return true
}

func (p *Publisher) lookup(ctx context.Context, id string) (*config.Credential, error) {
	if p.credentials == nil {
		return nil, fmt.Errorf("%w: %q", credentials.ErrNotFound, id)
	}
	return p.credentials.Lookup(ctx, id)
}

func skipGitDir(info os.FileInfo, _, _ string) (bool, error) {
	return info.IsDir() && info.Name() == ".git", nil
}
