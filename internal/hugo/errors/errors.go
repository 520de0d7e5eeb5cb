// Package errors provides sentinel errors for the hugo build step.
package errors

import "errors"

var (
	// ErrToolNotFound indicates the hugo executable could not be launched.
	ErrToolNotFound = errors.New("hugo binary not found")
	// ErrVersionCheckFailed indicates `hugo version` returned a non-zero exit status.
	ErrVersionCheckFailed = errors.New("hugo version check failed")
	// ErrBuildFailed indicates the hugo build returned a non-zero exit status.
	ErrBuildFailed = errors.New("hugo build failed")
	// ErrVersionUnsatisfied indicates the installed hugo does not meet the configured constraint.
	ErrVersionUnsatisfied = errors.New("hugo version does not satisfy constraint")
	// ErrEmptyCommand indicates a command line tokenized to nothing.
	ErrEmptyCommand = errors.New("empty command line")
)
