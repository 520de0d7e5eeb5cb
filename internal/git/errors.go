package git

import (
	"errors"
	"strings"

	foundation "git.home.luguber.info/inful/hugoci/internal/foundation/errors"
)

var (
	// ErrMalformedURL is returned when a remote URL cannot be parsed as a git endpoint.
	ErrMalformedURL = errors.New("malformed git url")
	// ErrBranchNotFound is returned when a checkout start point does not exist.
	ErrBranchNotFound = errors.New("branch not found")
	// ErrNothingToCommit is returned by Commit when the work tree has no changes.
	ErrNothingToCommit = errors.New("nothing to commit")
	// ErrNotInitialized is returned when an operation needs a repository before Init.
	ErrNotInitialized = errors.New("repository not initialized")
)

// ClassifyGitError translates go-git errors into ClassifiedErrors.
func ClassifyGitError(err error, op string, url string) error {
	if err == nil {
		return nil
	}
	if _, ok := foundation.AsClassified(err); ok {
		return err
	}

	l := strings.ToLower(err.Error())
	builder := foundation.GitError("git " + op + " failed").
		WithCause(err).
		WithContext("op", op)
	if url != "" {
		builder.WithContext("url", url)
	}

	switch {
	case errors.Is(err, ErrMalformedURL):
		builder.WithCategory(foundation.CategoryConfig).UserAction()
	case errors.Is(err, ErrBranchNotFound):
		builder.WithCategory(foundation.CategoryNotFound).UserAction()
	case strings.Contains(l, "authentication required") || strings.Contains(l, "authentication failed") ||
		strings.Contains(l, "authorization failed") || strings.Contains(l, "invalid credentials") ||
		strings.Contains(l, "unable to authenticate"):
		builder.WithCategory(foundation.CategoryAuth).UserAction()
	case strings.Contains(l, "repository not found") || strings.Contains(l, "does not exist"):
		builder.WithCategory(foundation.CategoryNotFound)
	case strings.Contains(l, "connection reset") || strings.Contains(l, "timeout") ||
		strings.Contains(l, "no route to host") || strings.Contains(l, "connection refused"):
		builder.WithCategory(foundation.CategoryNetwork).Retryable()
	case strings.Contains(l, "non-fast-forward"):
		builder.WithContext("diverged", true)
	}
	return builder.Build()
}
