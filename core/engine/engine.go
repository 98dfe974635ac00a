package engine

import (
	"context"
	"errors"
	"fmt"
)

// Status represents the execution state of a submitted query.
type Status string

const (
	// StatusRunning means the query is queued or executing.
	StatusRunning Status = "running"
	// StatusSucceeded means the query completed and results can be fetched.
	StatusSucceeded Status = "succeeded"
	// StatusFailed means the query reached a terminal failure state.
	StatusFailed Status = "failed"
	// StatusCancelled means the query was cancelled on the engine side.
	StatusCancelled Status = "cancelled"
)

// QueryStatus couples an execution state with the engine-reported reason.
// Reason is only populated for terminal non-success states.
type QueryStatus struct {
	State  Status
	Reason string
}

// Client is the narrow interface to an asynchronous SQL query engine.
// Statements are submitted, polled to completion, and their result rows
// fetched through an opaque query handle.
type Client interface {
	// Submit sends a SQL statement to the engine and returns a query handle.
	Submit(ctx context.Context, sql string) (string, error)
	// Poll reports the current execution status for a query handle.
	Poll(ctx context.Context, handle string) (QueryStatus, error)
	// Fetch iterates the result rows of a succeeded query, invoking fn for
	// each row. Iteration stops on the first error returned by fn.
	Fetch(ctx context.Context, handle string, fn func(row []string) error) error
}

// ErrWaitTimeout indicates the polling loop gave up before the engine
// reported a terminal status. Operators should check engine-side health
// rather than input validity.
var ErrWaitTimeout = errors.New("timed out waiting for query to complete")

// QueryError reports a query that reached a terminal non-success state.
type QueryError struct {
	Handle string
	State  Status
	Reason string
}

func (e *QueryError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("query %s %s: %s", e.Handle, e.State, e.Reason)
	}
	return fmt.Sprintf("query %s %s", e.Handle, e.State)
}
