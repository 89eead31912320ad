package faq

import (
	"context"
	"fmt"
)

// BestMatch embeds the normalized query and returns the highest scoring pattern.
// The first pattern in index order wins ties.
func BestMatch(ctx context.Context, query string, idx *Index, embedder Embedder) (Match, error) {
	if idx.Len() == 0 {
		return Match{}, emptyIndexError()
	}
	normalized := Normalize(query)
	vectors, err := embedder.Embed(ctx, []string{normalized})
	if err != nil {
		return Match{}, embeddingError("embed query", err)
	}
	if len(vectors) != 1 {
		return Match{}, embeddingError(fmt.Sprintf("expected one query embedding, got %d", len(vectors)), nil)
	}
	queryVec := vectors[0]
	if len(queryVec) != idx.dims {
		return Match{}, embeddingError(fmt.Sprintf("query embedding has %d dimensions, index has %d", len(queryVec), idx.dims), nil)
	}

	best := 0
	bestScore := dot(queryVec, idx.embeddings[0])
	for i := 1; i < len(idx.embeddings); i++ {
		if score := dot(queryVec, idx.embeddings[i]); score > bestScore {
			best = i
			bestScore = score
		}
	}

	pattern := idx.patterns[best]
	return Match{
		Tag:     idx.patternTags[pattern],
		Pattern: pattern,
		Score:   bestScore,
	}, nil
}

func dot(a, b []float32) float64 {
	length := len(a)
	if len(b) < length {
		length = len(b)
	}
	var sum float64
	for i := 0; i < length; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
