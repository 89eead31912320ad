package queue

import (
	"context"
	"encoding/json"
)

// Job is a named unit of background work with a JSON payload.
// Jobs with the same non-empty Key are delivered in enqueue order.
type Job struct {
	Name    string          `json:"name"`
	Key     string          `json:"key,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Handler executes one job.
type Handler func(ctx context.Context, job Job) error

// Queue accepts jobs for background delivery to its handler.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	SetHandler(handler Handler)
	// Run delivers jobs until ctx is cancelled, then drains in-flight work.
	Run(ctx context.Context) error
}
