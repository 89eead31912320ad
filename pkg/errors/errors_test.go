package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeSurvivesWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("answer question: %w", Wrap("embedding_unavailable", "embedding service unavailable", cause))

	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, "embedding_unavailable", code)
	require.ErrorIs(t, err, cause)
	require.EqualError(t, err, "answer question: embedding service unavailable: connection refused")

	require.True(t, IsCode(err, "empty_index", "embedding_unavailable"))
	require.False(t, IsCode(err, "empty_index"))
	require.False(t, IsCode(cause, "embedding_unavailable"))
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap("invalid_input", "question cannot be empty", nil)
	require.EqualError(t, err, "question cannot be empty")
	require.Nil(t, errors.Unwrap(err))
}
