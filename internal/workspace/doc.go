// Package workspace manages scratch directories in the temp area next to a job workspace.
package workspace
