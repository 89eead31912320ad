package convlog

import (
	"context"
	"fmt"
	"sync"

	"github.com/yanqian/faq-chatbot/internal/domain/conversation"
)

// MemorySink keeps conversation logs in process memory for tests/dev.
type MemorySink struct {
	mu            sync.RWMutex
	conversations map[string]conversation.ConversationStart
	queries       map[string][]conversation.QueryRecord
	resolved      map[string]bool
}

// NewMemorySink constructs an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		conversations: make(map[string]conversation.ConversationStart),
		queries:       make(map[string][]conversation.QueryRecord),
		resolved:      make(map[string]bool),
	}
}

func (s *MemorySink) StartConversation(_ context.Context, event conversation.ConversationStart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[event.ConversationID] = event
	return nil
}

func (s *MemorySink) RecordQuery(_ context.Context, record conversation.QueryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[record.ConversationID]; !ok {
		return fmt.Errorf("unknown conversation %s", record.ConversationID)
	}
	s.queries[record.ConversationID] = append(s.queries[record.ConversationID], record)
	return nil
}

func (s *MemorySink) ResolveQuery(_ context.Context, resolution conversation.Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.queries[resolution.ConversationID] {
		if q.QueryID == resolution.QueryID {
			s.resolved[resolution.QueryID] = true
			return nil
		}
	}
	return fmt.Errorf("unknown query %s in conversation %s", resolution.QueryID, resolution.ConversationID)
}

// Queries returns the recorded queries of a conversation.
func (s *MemorySink) Queries(conversationID string) []conversation.QueryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]conversation.QueryRecord(nil), s.queries[conversationID]...)
}

// Resolved reports whether a query was marked resolved.
func (s *MemorySink) Resolved(queryID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolved[queryID]
}

var _ conversation.LogSink = (*MemorySink)(nil)
