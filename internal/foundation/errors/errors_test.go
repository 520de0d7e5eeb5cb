package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "hugoci.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().GetString("file")
		assert.True(t, ok)
		assert.Equal(t, "hugoci.yaml", file)
	})

	t.Run("Error detection through wrapping", func(t *testing.T) {
		err := fmt.Errorf("load: %w", ConfigError("bad file").Build())

		classified, ok := AsClassified(err)
		require.True(t, ok)
		assert.True(t, classified.IsFatal())
		assert.False(t, classified.CanRetry())
		assert.True(t, HasCategory(err, CategoryConfig))
		assert.Equal(t, CategoryInternal, GetCategory(errors.New("plain")))
	})
}

func TestErrorBuilder(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapError(cause, CategoryGit, "push failed").
		WithCategory(CategoryNetwork).
		Warning().
		Retryable().
		WithContext("url", "https://example.com/site.git").
		Build()

	assert.Equal(t, CategoryNetwork, err.Category())
	assert.Equal(t, SeverityWarning, err.Severity())
	assert.Equal(t, RetryBackoff, err.RetryStrategy())
	assert.True(t, err.CanRetry())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "[network:warning] push failed: connection reset")
}

func TestClassifiedErrorIs(t *testing.T) {
	a := GitError("clone failed").Build()
	b := GitError("clone failed").WithContext("url", "x").Build()
	c := HugoError("clone failed").Build()

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestErrorContextMerge(t *testing.T) {
	base := ErrorContext{"a": 1, "b": 2}
	merged := base.Merge(ErrorContext{"b": 3})
	assert.Equal(t, ErrorContext{"a": 1, "b": 3}, merged)
	assert.Equal(t, 2, base["b"], "merge must not mutate receiver")
}
