// Package hugo implements the site-build step: a preflight `hugo version` check
// followed by a `hugo --destination ...` build, both run as subprocesses in the job
// workspace with the job environment.
//
// The command line is assembled as a single string (see BuildCommand) and tokenized by
// the CommandRunner, so the exact invocation is what appears in the job log. Exit codes
// decide the run result; tool failures are recorded on the run rather than returned.
package hugo
