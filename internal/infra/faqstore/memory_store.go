package faqstore

import (
	"context"
	"sort"
	"sync"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
)

// MemoryStore keeps trending counters in process memory for tests/dev.
type MemoryStore struct {
	mu       sync.RWMutex
	trending map[faq.Audience]map[string]int64
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{trending: make(map[faq.Audience]map[string]int64)}
}

// IncrementTag bumps the counter for a matched tag.
func (s *MemoryStore) IncrementTag(_ context.Context, audience faq.Audience, tag string) error {
	if tag == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	counts, ok := s.trending[audience]
	if !ok {
		counts = make(map[string]int64)
		s.trending[audience] = counts
	}
	counts[tag]++
	return nil
}

// TopTags returns the most frequently matched tags, ties broken by name.
func (s *MemoryStore) TopTags(_ context.Context, audience faq.Audience, limit int) ([]faq.TrendingQuery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := s.trending[audience]
	if limit <= 0 {
		limit = len(counts)
	}
	items := make([]faq.TrendingQuery, 0, len(counts))
	for tag, count := range counts {
		items = append(items, faq.TrendingQuery{Tag: tag, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Tag < items[j].Tag
		}
		return items[i].Count > items[j].Count
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

var _ faq.Store = (*MemoryStore)(nil)
