package engine

import (
	"context"
	"fmt"
)

// Status is the engine-side state of an asynchronously submitted job.
// Values other than the two named here are engine-defined and pass
// through opaquely.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
)

// Engine is the gateway to the external optimization engine.
//
// PollStatus and FetchResult on an unknown handle return
// core.ErrEngineJobNotFound; that is distinct from a job that has merely
// not completed, since an expired handle usually means the engine
// garbage-collected the job after its retention window. FetchResult on a
// handle whose status is not COMPLETED returns core.ErrEngineJobNotReady.
type Engine interface {
	// SolveSync runs one solve to completion. Blocks for up to the
	// engine's full time budget.
	SolveSync(ctx context.Context, req *Request) (*Result, error)

	// SubmitAsync enqueues a solve and returns the engine's job handle.
	SubmitAsync(ctx context.Context, req *Request) (string, error)

	// PollStatus reports the state of an asynchronous job. Safe to call
	// repeatedly; side-effect free.
	PollStatus(ctx context.Context, handle string) (Status, error)

	// FetchResult retrieves the result of a completed asynchronous job.
	FetchResult(ctx context.Context, handle string) (*Result, error)
}

// InvocationError wraps any transport or protocol failure talking to the
// engine. The gateway performs no retries; callers own retry policy.
type InvocationError struct {
	Op  string
	Err error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("aps: engine invocation failed (%s): %v", e.Op, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// invocationFailed wraps err as an InvocationError for operation op.
func invocationFailed(op string, err error) error {
	return &InvocationError{Op: op, Err: err}
}
