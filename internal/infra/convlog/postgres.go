package convlog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/faq-chatbot/internal/domain/conversation"
)

// PostgresSink persists conversation logs with pgx. Expected schema:
//
//	CREATE TABLE conversations (
//	    id UUID PRIMARY KEY, audience TEXT NOT NULL, student_number TEXT, first_name TEXT NOT NULL,
//	    last_name TEXT NOT NULL, program TEXT, email TEXT NOT NULL, started_at TIMESTAMPTZ NOT NULL);
//	CREATE TABLE conversation_queries (
//	    id UUID PRIMARY KEY, conversation_id UUID NOT NULL REFERENCES conversations(id),
//	    question TEXT NOT NULL, tag TEXT NOT NULL, response TEXT NOT NULL, for_staff BOOLEAN NOT NULL,
//	    asked_at TIMESTAMPTZ NOT NULL, resolved_at TIMESTAMPTZ);
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink constructs the sink.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

func (s *PostgresSink) StartConversation(ctx context.Context, event conversation.ConversationStart) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversations (id, audience, student_number, first_name, last_name, program, email, started_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, event.ConversationID, string(event.Audience), event.StudentNumber, event.FirstName, event.LastName, event.Program, event.Email, event.StartedAt)
	return err
}

func (s *PostgresSink) RecordQuery(ctx context.Context, record conversation.QueryRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversation_queries (id, conversation_id, question, tag, response, for_staff, asked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, record.QueryID, record.ConversationID, record.Question, record.Tag, record.Response, record.ForStaff, record.AskedAt)
	return err
}

func (s *PostgresSink) ResolveQuery(ctx context.Context, resolution conversation.Resolution) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE conversation_queries
		SET resolved_at = $1
		WHERE id = $2 AND conversation_id = $3
	`, resolution.ResolvedAt, resolution.QueryID, resolution.ConversationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("query %s not found", resolution.QueryID)
	}
	return nil
}

var _ conversation.LogSink = (*PostgresSink)(nil)
