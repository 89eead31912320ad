package faqstore

import (
	"context"
	"sync"
)

// MemoryEmbeddingCache keeps embeddings in process memory.
type MemoryEmbeddingCache struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

// NewMemoryEmbeddingCache constructs an empty cache.
func NewMemoryEmbeddingCache() *MemoryEmbeddingCache {
	return &MemoryEmbeddingCache{vectors: make(map[string][]float32)}
}

func (c *MemoryEmbeddingCache) GetMany(_ context.Context, keys []string) (map[string][]float32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string][]float32, len(keys))
	for _, key := range keys {
		if vec, ok := c.vectors[key]; ok {
			out[key] = append([]float32(nil), vec...)
		}
	}
	return out, nil
}

func (c *MemoryEmbeddingCache) SetMany(_ context.Context, vectors map[string][]float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, vec := range vectors {
		c.vectors[key] = append([]float32(nil), vec...)
	}
	return nil
}

// Len reports how many embeddings are cached.
func (c *MemoryEmbeddingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}
