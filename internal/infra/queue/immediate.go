package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrClosed is returned when enqueueing after shutdown.
var ErrClosed = errors.New("queue closed")

type pendingJob struct {
	ctx context.Context
	job Job
}

// ImmediateQueue starts jobs as soon as they are enqueued. Jobs sharing a Key
// run one at a time in enqueue order; unkeyed jobs run concurrently.
type ImmediateQueue struct {
	mu      sync.Mutex
	handler Handler
	closed  bool
	lanes   map[string][]pendingJob
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *slog.Logger
}

// NewImmediateQueue constructs the queue. Jobs get their own timeout, detached from the request.
func NewImmediateQueue(timeout time.Duration, logger *slog.Logger) *ImmediateQueue {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ImmediateQueue{
		lanes:   make(map[string][]pendingJob),
		timeout: timeout,
		logger:  logger.With("component", "queue.immediate"),
	}
}

// SetHandler replaces the handler used for queued jobs.
func (q *ImmediateQueue) SetHandler(handler Handler) {
	q.mu.Lock()
	q.handler = handler
	q.mu.Unlock()
}

// Enqueue invokes the handler asynchronously. A job whose key already has
// work in flight waits behind it.
func (q *ImmediateQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	if q.handler == nil {
		return nil
	}
	if job.Key != "" {
		if backlog, busy := q.lanes[job.Key]; busy {
			q.lanes[job.Key] = append(backlog, pendingJob{ctx: ctx, job: job})
			return nil
		}
		q.lanes[job.Key] = nil
	}
	q.wg.Add(1)
	go q.drain(pendingJob{ctx: ctx, job: job})
	return nil
}

// drain runs next and then whatever queued up behind it on the same key.
func (q *ImmediateQueue) drain(next pendingJob) {
	defer q.wg.Done()
	for {
		q.run(next)
		key := next.job.Key
		if key == "" {
			return
		}
		q.mu.Lock()
		backlog := q.lanes[key]
		if len(backlog) == 0 {
			delete(q.lanes, key)
			q.mu.Unlock()
			return
		}
		next = backlog[0]
		q.lanes[key] = backlog[1:]
		q.mu.Unlock()
	}
}

func (q *ImmediateQueue) run(p pendingJob) {
	q.mu.Lock()
	handler := q.handler
	q.mu.Unlock()
	if handler == nil {
		return
	}
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(p.ctx), q.timeout)
	defer cancel()
	if err := handler(jobCtx, p.job); err != nil {
		q.logger.Warn("job failed", "job", p.job.Name, "key", p.job.Key, "error", err)
	}
}

// Run blocks until ctx is done, then waits for running and queued jobs.
func (q *ImmediateQueue) Run(ctx context.Context) error {
	<-ctx.Done()
	q.Close()
	return nil
}

// Close rejects new jobs and waits for running and queued ones.
func (q *ImmediateQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wg.Wait()
}

var _ Queue = (*ImmediateQueue)(nil)
