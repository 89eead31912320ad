package faq

import (
	"context"
	"fmt"
	"strings"
)

// Index is the flattened, embedded view of a dataset. Position i of patterns and embeddings
// always describe the same pattern. An Index is never mutated after BuildIndex returns.
type Index struct {
	patterns    []string
	patternTags map[string]string
	embeddings  [][]float32
	dims        int
	collisions  []Collision
}

// Collision records a normalized pattern claimed by more than one tag.
// The later tag owns the pattern.
type Collision struct {
	Pattern  string `json:"pattern"`
	Previous string `json:"previous"`
	Winner   string `json:"winner"`
}

// BuildIndex validates entries, normalizes every pattern and embeds them in one batch.
func BuildIndex(ctx context.Context, entries []Entry, embedder Embedder) (*Index, error) {
	if len(entries) == 0 {
		return nil, emptyIndexError()
	}
	if err := ValidateEntries(entries); err != nil {
		return nil, err
	}

	idx := &Index{patternTags: make(map[string]string)}
	for _, entry := range entries {
		for _, raw := range entry.Patterns {
			pattern := Normalize(raw)
			if previous, ok := idx.patternTags[pattern]; ok && previous != entry.Tag {
				idx.collisions = append(idx.collisions, Collision{Pattern: pattern, Previous: previous, Winner: entry.Tag})
			}
			idx.patternTags[pattern] = entry.Tag
			idx.patterns = append(idx.patterns, pattern)
		}
	}

	vectors, err := embedder.Embed(ctx, idx.patterns)
	if err != nil {
		return nil, embeddingError("embed faq patterns", err)
	}
	if len(vectors) != len(idx.patterns) {
		return nil, embeddingError(fmt.Sprintf("embedding count mismatch: expected %d got %d", len(idx.patterns), len(vectors)), nil)
	}
	dims := len(vectors[0])
	if dims == 0 {
		return nil, embeddingError("embedding service returned empty vectors", nil)
	}
	idx.embeddings = make([][]float32, len(vectors))
	for i, vec := range vectors {
		if len(vec) != dims {
			return nil, embeddingError(fmt.Sprintf("embedding %d has %d dimensions, expected %d", i, len(vec), dims), nil)
		}
		idx.embeddings[i] = append([]float32(nil), vec...)
	}
	idx.dims = dims
	return idx, nil
}

// ValidateEntries rejects datasets that cannot produce a complete index.
func ValidateEntries(entries []Entry) error {
	if len(entries) == 0 {
		return emptyIndexError()
	}
	seen := make(map[string]int, len(entries))
	for i, entry := range entries {
		tag := strings.TrimSpace(entry.Tag)
		switch {
		case tag == "":
			return malformedEntry(i, "", "missing tag")
		case len(entry.Patterns) == 0:
			return malformedEntry(i, tag, "missing patterns")
		case len(entry.Responses) == 0:
			return malformedEntry(i, tag, "missing responses")
		}
		if first, dup := seen[tag]; dup {
			return malformedEntry(i, tag, fmt.Sprintf("duplicate tag, first defined at entry #%d", first))
		}
		seen[tag] = i
		for j, pattern := range entry.Patterns {
			if Normalize(pattern) == "" {
				return malformedEntry(i, tag, fmt.Sprintf("pattern #%d is empty after normalization", j))
			}
		}
		for j, response := range entry.Responses {
			if strings.TrimSpace(response) == "" {
				return malformedEntry(i, tag, fmt.Sprintf("response #%d is blank", j))
			}
		}
	}
	return nil
}

// Len returns the number of indexed patterns.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.patterns)
}

// Dimensions returns the embedding width shared by every pattern.
func (i *Index) Dimensions() int {
	if i == nil {
		return 0
	}
	return i.dims
}

// Pattern returns the normalized pattern at position n.
func (i *Index) Pattern(n int) string {
	return i.patterns[n]
}

// Patterns returns a copy of the normalized patterns in index order.
func (i *Index) Patterns() []string {
	if i == nil {
		return nil
	}
	return append([]string(nil), i.patterns...)
}

// TagFor returns the tag owning a normalized pattern.
func (i *Index) TagFor(pattern string) (string, bool) {
	if i == nil {
		return "", false
	}
	tag, ok := i.patternTags[pattern]
	return tag, ok
}

// Collisions lists patterns that were claimed by more than one tag.
func (i *Index) Collisions() []Collision {
	if i == nil {
		return nil
	}
	return append([]Collision(nil), i.collisions...)
}
