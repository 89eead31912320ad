package faqsource

import (
	"context"
	"sync"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
)

// MemorySource serves datasets held in memory. Replace swaps them at runtime.
type MemorySource struct {
	mu      sync.RWMutex
	dataset Dataset
}

// NewMemorySource constructs a source over dataset.
func NewMemorySource(dataset Dataset) *MemorySource {
	if dataset == nil {
		dataset = Dataset{}
	}
	return &MemorySource{dataset: dataset}
}

// Load returns a copy of the audience's entries.
func (s *MemorySource) Load(_ context.Context, audience faq.Audience) ([]faq.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.dataset[audience]
	out := make([]faq.Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Replace swaps the entries of one audience.
func (s *MemorySource) Replace(audience faq.Audience, entries []faq.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset[audience] = entries
}

var _ faq.Source = (*MemorySource)(nil)
