package convlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/yanqian/faq-chatbot/internal/domain/conversation"
	"github.com/yanqian/faq-chatbot/internal/infra/queue"
	"github.com/yanqian/faq-chatbot/pkg/metrics"
)

// Job names on the queue.
const (
	JobConversationStarted = "conversation.started"
	JobQueryAnswered       = "conversation.query_answered"
	JobQueryResolved       = "conversation.query_resolved"
)

// Dispatcher implements conversation.Recorder by queueing events for a LogSink.
type Dispatcher struct {
	queue  queue.Queue
	sink   conversation.LogSink
	logger *slog.Logger
}

// NewDispatcher registers itself as the queue's handler.
func NewDispatcher(q queue.Queue, sink conversation.LogSink, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{queue: q, sink: sink, logger: logger.With("component", "convlog.dispatcher")}
	q.SetHandler(d.Handle)
	return d
}

func (d *Dispatcher) ConversationStarted(ctx context.Context, event conversation.ConversationStart) error {
	return d.enqueue(ctx, JobConversationStarted, event.ConversationID, event)
}

func (d *Dispatcher) QueryAnswered(ctx context.Context, record conversation.QueryRecord) error {
	return d.enqueue(ctx, JobQueryAnswered, record.ConversationID, record)
}

func (d *Dispatcher) QueryResolved(ctx context.Context, resolution conversation.Resolution) error {
	return d.enqueue(ctx, JobQueryResolved, resolution.ConversationID, resolution)
}

// enqueue keys every event by conversation so a sink sees one conversation's
// events in the order they happened.
func (d *Dispatcher) enqueue(ctx context.Context, name, conversationID string, payload any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := d.queue.Enqueue(ctx, queue.Job{Name: name, Key: conversationID, Payload: encoded}); err != nil {
		metrics.ObserveLogFailure(name)
		return fmt.Errorf("enqueue %s: %w", name, err)
	}
	return nil
}

// Handle delivers one queued event to the sink. Failures are logged and counted, never retried.
func (d *Dispatcher) Handle(ctx context.Context, job queue.Job) error {
	err := d.deliver(ctx, job)
	if err != nil {
		metrics.ObserveLogFailure(job.Name)
		d.logger.Warn("conversation log event dropped", "job", job.Name, "error", err)
	}
	return err
}

func (d *Dispatcher) deliver(ctx context.Context, job queue.Job) error {
	switch job.Name {
	case JobConversationStarted:
		var event conversation.ConversationStart
		if err := json.Unmarshal(job.Payload, &event); err != nil {
			return err
		}
		return d.sink.StartConversation(ctx, event)
	case JobQueryAnswered:
		var record conversation.QueryRecord
		if err := json.Unmarshal(job.Payload, &record); err != nil {
			return err
		}
		return d.sink.RecordQuery(ctx, record)
	case JobQueryResolved:
		var resolution conversation.Resolution
		if err := json.Unmarshal(job.Payload, &resolution); err != nil {
			return err
		}
		return d.sink.ResolveQuery(ctx, resolution)
	default:
		return fmt.Errorf("unknown job %q", job.Name)
	}
}

var _ conversation.Recorder = (*Dispatcher)(nil)
