package history

import (
	"context"
	"time"
)

// Invocation is one recorded data function run. Start and end dates stay
// strings: failed invocations are recorded too, and their inputs may be
// blank or malformed.
type Invocation struct {
	InvocationID string
	TraceID      string
	Crop         string
	Region       string
	StartDate    string
	EndDate      string
	Outcome      string
	ErrorDetails *string
	RowCount     int64
	DurationMs   int64
	CreatedAt    time.Time
}

type RecordInvocationInput struct {
	InvocationID string
	TraceID      string
	Crop         string
	Region       string
	StartDate    string
	EndDate      string
	Outcome      string
	ErrorDetails *string
	RowCount     int64
	DurationMs   int64
}

type Recorder interface {
	HealthCheck(ctx context.Context) error
	RecordInvocation(ctx context.Context, in RecordInvocationInput) (Invocation, error)
	ListRecent(ctx context.Context, limit int) ([]Invocation, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
