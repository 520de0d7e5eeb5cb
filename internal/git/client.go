package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/hugoci/internal/logfields"
)

// DefaultRemote is the remote name Clone registers.
const DefaultRemote = "origin"

// Identity is a git author or committer.
type Identity struct {
	Name  string
	Email string
}

// DefaultIdentity is used for commits when no author has been set.
var DefaultIdentity = Identity{Name: "hugoci", Email: "hugoci@localhost"}

// Client operates on a single working directory.
type Client struct {
	dir       string
	repo      *git.Repository
	auth      transport.AuthMethod
	author    *Identity
	committer *Identity
	progress  io.Writer
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithProgress streams remote progress output (fetch/push sideband) to w.
func WithProgress(w io.Writer) Option {
	return func(c *Client) { c.progress = w }
}

// WithLogger sets the logger used for operation traces.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient binds a client to dir. The directory must exist before Init is called.
func NewClient(dir string, opts ...Option) *Client {
	c := &Client{dir: dir, logger: slog.Default(), now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Dir returns the working directory the client is bound to.
func (c *Client) Dir() string { return c.dir }

// SetAuth sets the transport auth used by Clone and Push. nil means unauthenticated.
func (c *Client) SetAuth(auth transport.AuthMethod) { c.auth = auth }

// SetAuthor sets the commit author.
func (c *Client) SetAuthor(name, email string) { c.author = &Identity{Name: name, Email: email} }

// SetCommitter sets the commit committer. Without it the author is used.
func (c *Client) SetCommitter(name, email string) { c.committer = &Identity{Name: name, Email: email} }

// Init creates an empty repository in the client directory, or opens the existing one.
func (c *Client) Init() error {
	repo, err := git.PlainInit(c.dir, false)
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		repo, err = git.PlainOpen(c.dir)
	}
	if err != nil {
		return ClassifyGitError(err, "init", "")
	}
	c.repo = repo
	c.logger.Debug("Initialized repository", logfields.Dir(c.dir))
	return nil
}

// Clone registers url as origin in the initialized repository and fetches all of its heads
// into refs/remotes/origin/*. An empty remote is not an error.
func (c *Client) Clone(ctx context.Context, url string) error {
	if c.repo == nil {
		return ClassifyGitError(ErrNotInitialized, "clone", url)
	}
	if err := ValidateRemoteURL(url); err != nil {
		return ClassifyGitError(err, "clone", url)
	}

	if _, err := c.repo.Remote(DefaultRemote); errors.Is(err, git.ErrRemoteNotFound) {
		if _, err := c.repo.CreateRemote(&config.RemoteConfig{Name: DefaultRemote, URLs: []string{url}}); err != nil {
			return ClassifyGitError(err, "clone", url)
		}
	} else if err != nil {
		return ClassifyGitError(err, "clone", url)
	}

	fetchOpts := &git.FetchOptions{
		RemoteName: DefaultRemote,
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("+refs/heads/*:refs/remotes/%s/*", DefaultRemote))},
		Auth:       c.auth,
		Progress:   c.progress,
		Tags:       git.NoTags,
	}
	err := c.repo.FetchContext(ctx, fetchOpts)
	switch {
	case err == nil, errors.Is(err, git.NoErrAlreadyUpToDate):
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		c.logger.Info("Remote repository is empty", logfields.URL(url))
	default:
		return ClassifyGitError(err, "clone", url)
	}
	c.logger.Debug("Fetched remote", logfields.URL(url))
	return nil
}

// CheckoutBranch points the local branch at startPoint (creating or resetting it), records
// origin as its upstream and force-checks it out into the work tree.
func (c *Client) CheckoutBranch(branch, startPoint string) error {
	if c.repo == nil {
		return ClassifyGitError(ErrNotInitialized, "checkout", "")
	}
	hash, err := c.repo.ResolveRevision(plumbing.Revision(startPoint))
	if err != nil {
		return ClassifyGitError(fmt.Errorf("%w: %s: %w", ErrBranchNotFound, startPoint, err), "checkout", "")
	}

	ref := plumbing.NewBranchReferenceName(branch)
	if err := c.repo.Storer.SetReference(plumbing.NewHashReference(ref, *hash)); err != nil {
		return ClassifyGitError(err, "checkout", "")
	}

	err = c.repo.CreateBranch(&config.Branch{Name: branch, Remote: DefaultRemote, Merge: ref})
	if err != nil && !errors.Is(err, git.ErrBranchExists) {
		return ClassifyGitError(err, "checkout", "")
	}

	wt, err := c.repo.Worktree()
	if err != nil {
		return ClassifyGitError(err, "checkout", "")
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: ref, Force: true}); err != nil {
		return ClassifyGitError(err, "checkout", "")
	}
	c.logger.Debug("Checked out branch", logfields.Branch(branch), logfields.Commit(hash.String()))
	return nil
}

// AddAll stages every change in the work tree, deletions included.
func (c *Client) AddAll() error {
	wt, err := c.worktree("add")
	if err != nil {
		return err
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return ClassifyGitError(err, "add", "")
	}
	return nil
}

// Commit records the staged changes and returns the new commit hash.
// ErrNothingToCommit is returned when there is nothing staged.
func (c *Client) Commit(message string) (string, error) {
	wt, err := c.worktree("commit")
	if err != nil {
		return "", err
	}

	author := DefaultIdentity
	if c.author != nil {
		author = *c.author
	}
	committer := author
	if c.committer != nil {
		committer = *c.committer
	}
	when := c.now()

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author:    &object.Signature{Name: author.Name, Email: author.Email, When: when},
		Committer: &object.Signature{Name: committer.Name, Email: committer.Email, When: when},
	})
	if errors.Is(err, git.ErrEmptyCommit) {
		return "", ErrNothingToCommit
	}
	if err != nil {
		return "", ClassifyGitError(err, "commit", "")
	}
	c.logger.Debug("Committed", logfields.Commit(hash.String()))
	return hash.String(), nil
}

// Push sends the local branch to the same-named branch at url. With force the remote
// branch is overwritten regardless of its history.
func (c *Client) Push(ctx context.Context, url, branch string, force bool) error {
	if c.repo == nil {
		return ClassifyGitError(ErrNotInitialized, "push", url)
	}
	if err := ValidateRemoteURL(url); err != nil {
		return err
	}

	spec := fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch)
	if force {
		spec = "+" + spec
	}
	err := c.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: DefaultRemote,
		RemoteURL:  url,
		RefSpecs:   []config.RefSpec{config.RefSpec(spec)},
		Auth:       c.auth,
		Progress:   c.progress,
		Force:      force,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return ClassifyGitError(err, "push", url)
	}
	c.logger.Debug("Pushed", logfields.URL(url), logfields.Branch(branch))
	return nil
}

// Head returns the commit hash HEAD points to.
func (c *Client) Head() (string, error) {
	if c.repo == nil {
		return "", ClassifyGitError(ErrNotInitialized, "head", "")
	}
	ref, err := c.repo.Head()
	if err != nil {
		return "", ClassifyGitError(err, "head", "")
	}
	return ref.Hash().String(), nil
}

func (c *Client) worktree(op string) (*git.Worktree, error) {
	if c.repo == nil {
		return nil, ClassifyGitError(ErrNotInitialized, op, "")
	}
	wt, err := c.repo.Worktree()
	if err != nil {
		return nil, ClassifyGitError(err, op, "")
	}
	return wt, nil
}
