package publish

import (
	"fmt"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/hugoci/internal/hugo"
	"git.home.luguber.info/inful/hugoci/internal/run"
)

// DefaultBranch is the remote branch published to when none is configured.
const DefaultBranch = "gh-pages"

// DefaultCommitMessage is used when no message is configured and no CI job is detected.
const DefaultCommitMessage = "Publish site"

// Options configures the publish step.
type Options struct {
	TargetURL      string
	PublishDir     string
	PublishBranch  string
	CredentialsID  string
	AuthorName     string
	AuthorEmail    string
	CommitterName  string
	CommitterEmail string
	CommitMessage  string

	// StrictCredentials fails the run when CredentialsID cannot be resolved or used.
	StrictCredentials bool
	// KeepScratch leaves the scratch clone on disk after the step.
	KeepScratch bool
}

// ResolvedPublishDir returns PublishDir, or the build step's default destination when blank.
func (o Options) ResolvedPublishDir() string {
	if strings.TrimSpace(o.PublishDir) == "" {
		return hugo.DefaultDestination
	}
	return o.PublishDir
}

// ResolvedBranch returns PublishBranch, or DefaultBranch when blank.
func (o Options) ResolvedBranch() string {
	if b := strings.TrimSpace(o.PublishBranch); b != "" {
		return b
	}
	return DefaultBranch
}

// SourceDir returns the directory copied into the clone, relative to workspace unless absolute.
func (o Options) SourceDir(workspace string) string {
	dir := o.ResolvedPublishDir()
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(workspace, dir)
}

// Message returns the commit message for r: CommitMessage when set, otherwise one
// naming the CI job and build.
func (o Options) Message(r *run.Run) string {
	if strings.TrimSpace(o.CommitMessage) != "" {
		return o.CommitMessage
	}
	ci := r.CI()
	msg := DefaultCommitMessage
	switch {
	case ci.JobName != "" && ci.BuildID != "":
		msg = fmt.Sprintf("%s (%s #%s)", msg, ci.JobName, ci.BuildID)
	case ci.JobName != "":
		msg = fmt.Sprintf("%s (%s)", msg, ci.JobName)
	}
	if ci.SHA != "" {
		msg += "\n\nSource: " + ci.SHA
	}
	if ci.BuildURL != "" {
		if ci.SHA == "" {
			msg += "\n"
		}
		msg += "\nBuild: " + ci.BuildURL
	}
	return msg
}
