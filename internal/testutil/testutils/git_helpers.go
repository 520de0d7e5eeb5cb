// Package testutils holds fixtures shared by package tests: local bare remotes seeded
// through go-git and file-tree assertions.
package testutils

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// Signature is the identity used for fixture commits.
var Signature = object.Signature{Name: "fixture", Email: "fixture@example.com", When: time.Unix(1700000000, 0)}

// NewBareRemote creates an empty bare repository and returns its path.
func NewBareRemote(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "remote.git")
	_, err := git.PlainInit(dir, true)
	require.NoError(t, err)
	return dir
}

// SeedBranch commits files to branch of the bare repository at remote, on top of the
// branch's current tip if it exists, and returns the new commit hash.
func SeedBranch(t *testing.T, remote, branch string, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{remote}})
	require.NoError(t, err)

	ref := plumbing.NewBranchReferenceName(branch)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	err = repo.Fetch(&git.FetchOptions{RefSpecs: []config.RefSpec{"+refs/heads/*:refs/remotes/origin/*"}})
	if err == nil || err == git.NoErrAlreadyUpToDate {
		if tip, rerr := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true); rerr == nil {
			require.NoError(t, repo.Storer.SetReference(plumbing.NewHashReference(ref, tip.Hash())))
			require.NoError(t, wt.Checkout(&git.CheckoutOptions{Branch: ref, Force: true}))
		}
	}
	if head, herr := repo.Head(); herr != nil || head.Name() != ref {
		require.NoError(t, repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, ref)))
	}

	WriteTree(t, dir, files)
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))
	hash, err := wt.Commit("seed "+branch, &git.CommitOptions{Author: &Signature, Committer: &Signature, AllowEmptyCommits: true})
	require.NoError(t, err)

	spec := config.RefSpec("+" + ref.String() + ":" + ref.String())
	require.NoError(t, repo.Push(&git.PushOptions{RefSpecs: []config.RefSpec{spec}}))
	return hash.String()
}

// BranchHash returns the tip of branch in the repository at path, or "" if it does not exist.
func BranchHash(t *testing.T, path, branch string) string {
	t.Helper()
	repo, err := git.PlainOpen(path)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return ""
	}
	return ref.Hash().String()
}

// BranchCommit returns the tip commit of branch in the repository at path.
func BranchCommit(t *testing.T, path, branch string) *object.Commit {
	t.Helper()
	repo, err := git.PlainOpen(path)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	require.NoError(t, err)
	commit, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)
	return commit
}

// ReadBranchFile returns the content of name in the tip tree of branch, and whether it exists.
func ReadBranchFile(t *testing.T, path, branch, name string) (string, bool) {
	t.Helper()
	commit := BranchCommit(t, path, branch)
	file, err := commit.File(name)
	if err == object.ErrFileNotFound {
		return "", false
	}
	require.NoError(t, err)
	r, err := file.Reader()
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data), true
}

// WriteTree writes files (slash-separated relative path to content) below dir.
func WriteTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
}
