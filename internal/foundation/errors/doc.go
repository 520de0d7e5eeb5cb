// Package errors provides the classified error primitives used across hugoci.
//
// A ClassifiedError carries a category (config, hugo, git, auth, ...), a severity and
// a retry hint together with structured context. Errors are created with the fluent
// builder and mapped to process exit codes by CLIErrorAdapter:
//
//	err := errors.NewError(errors.CategoryGit, "push failed").
//		WithContext("url", targetURL).
//		WithCause(pushErr).
//		Build()
package errors
