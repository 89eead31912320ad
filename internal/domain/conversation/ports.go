package conversation

import (
	"context"
	"time"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
)

// Answerer produces FAQ answers. faq.Service satisfies it.
type Answerer interface {
	Answer(ctx context.Context, req faq.Request) (faq.Response, error)
}

// SessionStore persists sessions between requests.
type SessionStore interface {
	Save(ctx context.Context, session Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (Session, bool, error)
}

// LogSink persists conversation events synchronously.
type LogSink interface {
	StartConversation(ctx context.Context, event ConversationStart) error
	RecordQuery(ctx context.Context, record QueryRecord) error
	ResolveQuery(ctx context.Context, resolution Resolution) error
}

// Recorder accepts conversation events without blocking the reply path.
// An error only means the event could not be queued.
type Recorder interface {
	ConversationStarted(ctx context.Context, event ConversationStart) error
	QueryAnswered(ctx context.Context, record QueryRecord) error
	QueryResolved(ctx context.Context, resolution Resolution) error
}
