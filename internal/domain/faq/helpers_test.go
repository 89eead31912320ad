package faq

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/surgebase/porter2"
)

type porterStemmer struct{}

func (porterStemmer) Stem(token string) string {
	return porter2.Stem(token)
}

// vectorEmbedder returns fixed vectors per text, or the fallback for unknown text.
type vectorEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    int
	texts    int
}

func (e *vectorEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.texts += len(texts)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := e.vectors[text]; ok {
			out[i] = vec
			continue
		}
		if e.fallback == nil {
			return nil, errors.New("no vector for " + text)
		}
		out[i] = e.fallback
	}
	return out, nil
}

func (e *vectorEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type staticSource struct {
	mu      sync.Mutex
	entries map[Audience][]Entry
	err     error
	loads   int
}

func (s *staticSource) Load(_ context.Context, audience Audience) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return s.entries[audience], nil
}

func (s *staticSource) set(audience Audience, entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[audience] = entries
}

type countingStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (s *countingStore) IncrementTag(_ context.Context, audience Audience, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.counts == nil {
		s.counts = make(map[string]int64)
	}
	s.counts[string(audience)+"/"+tag]++
	return nil
}

func (s *countingStore) TopTags(_ context.Context, audience Audience, _ int) ([]TrendingQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []TrendingQuery
	prefix := string(audience) + "/"
	for key, count := range s.counts {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, TrendingQuery{Tag: key[len(prefix):], Count: count})
		}
	}
	return out, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func firstPicker(int) int { return 0 }

func locationEntries() []Entry {
	return []Entry{
		{
			Tag:       "location",
			Patterns:  []string{"Where is your office?", "Office location"},
			Responses: []string{"We are in ENG340A"},
		},
		{
			Tag:       "hours",
			Patterns:  []string{"When are you open?"},
			Responses: []string{"We are open 9 to 5"},
		},
	}
}

func locationVectors() map[string][]float32 {
	return map[string][]float32{
		"where is your office":         {1, 0, 0},
		"office location":              {0.6, 0.8, 0},
		"when are you open":            {0, 0, 1},
		"where is your office located": {0.9, 0.3, 0.1},
		"what is your favorite color":  {0.1, 0, 0.95},
	}
}
