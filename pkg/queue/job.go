package queue

import "context"

// Job is a handler for one kind of queued work, e.g. a market bar
// collection or a news refresh.
type Job interface {
	// Name returns a human-readable identifier used in logs.
	Name() string

	// Type returns the message type this job consumes.
	Type() string

	// Handle runs the job against the decoded payload.
	Handle(ctx context.Context, payload interface{}) error
}
