package faq

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/faq-chatbot/pkg/errors"
)

func TestBestMatchPicksHighestScore(t *testing.T) {
	embedder := &vectorEmbedder{vectors: locationVectors()}
	idx, err := BuildIndex(context.Background(), locationEntries(), embedder)
	require.NoError(t, err)

	match, err := BestMatch(context.Background(), "Where is your office located?", idx, embedder)
	require.NoError(t, err)
	require.Equal(t, "location", match.Tag)
	require.Equal(t, "where is your office", match.Pattern)
	require.InDelta(t, 0.9, match.Score, 1e-6)
}

func TestBestMatchFirstPatternWinsTies(t *testing.T) {
	entries := []Entry{
		{Tag: "alpha", Patterns: []string{"first pattern"}, Responses: []string{"a"}},
		{Tag: "beta", Patterns: []string{"second pattern"}, Responses: []string{"b"}},
	}
	embedder := &vectorEmbedder{vectors: map[string][]float32{
		"first pattern":  {0.6, 0.8},
		"second pattern": {0.6, 0.8},
		"anything":       {0.6, 0.8},
	}}
	idx, err := BuildIndex(context.Background(), entries, embedder)
	require.NoError(t, err)

	match, err := BestMatch(context.Background(), "anything", idx, embedder)
	require.NoError(t, err)
	require.Equal(t, "alpha", match.Tag)
	require.Equal(t, "first pattern", match.Pattern)
}

func TestBestMatchErrors(t *testing.T) {
	t.Run("empty index", func(t *testing.T) {
		_, err := BestMatch(context.Background(), "hello", &Index{}, &vectorEmbedder{})
		require.ErrorIs(t, err, ErrEmptyIndex)
	})

	t.Run("embedding failure", func(t *testing.T) {
		embedder := &vectorEmbedder{vectors: locationVectors()}
		idx, err := BuildIndex(context.Background(), locationEntries(), embedder)
		require.NoError(t, err)

		embedder.err = errors.New("timeout")
		_, err = BestMatch(context.Background(), "where is your office", idx, embedder)
		require.ErrorIs(t, err, ErrEmbeddingService)
		require.True(t, apperrors.IsCode(err, CodeEmbeddingUnavailable))
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		embedder := &vectorEmbedder{vectors: locationVectors()}
		idx, err := BuildIndex(context.Background(), locationEntries(), embedder)
		require.NoError(t, err)

		embedder.vectors["short query"] = []float32{1}
		_, err = BestMatch(context.Background(), "short query", idx, embedder)
		require.ErrorIs(t, err, ErrEmbeddingService)
	})
}
