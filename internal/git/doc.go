// Package git is a small go-git client bound to a single working directory. It exposes
// the porcelain the publish step needs: init, clone into the initialized directory,
// checkout of a local branch tracking a remote branch, identity, staging, commit and
// push. Failures are returned as classified errors (see foundation/errors).
package git
