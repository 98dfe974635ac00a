package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// WaitConfig bounds the polling loop for a single query.
type WaitConfig struct {
	// PollInterval is the initial delay between status checks. Subsequent
	// checks back off exponentially up to MaxInterval.
	PollInterval time.Duration
	// MaxInterval caps the delay between status checks.
	MaxInterval time.Duration
	// Timeout is the total elapsed-time budget before giving up.
	Timeout time.Duration
}

func (c WaitConfig) withDefaults() WaitConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 30 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Minute
	}
	return c
}

// errStillRunning signals the backoff loop to keep polling.
var errStillRunning = errors.New("query still running")

// Wait blocks until the query behind handle reaches a terminal state.
// It returns nil on success, a *QueryError for failed or cancelled
// queries, and an error wrapping ErrWaitTimeout when the elapsed-time
// budget runs out before the engine reports a terminal status.
func Wait(ctx context.Context, c Client, handle string, cfg WaitConfig) error {
	cfg = cfg.withDefaults()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.PollInterval
	bo.MaxInterval = cfg.MaxInterval
	bo.MaxElapsedTime = cfg.Timeout

	op := func() error {
		status, err := c.Poll(ctx, handle)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("poll query %s: %w", handle, err))
		}
		switch status.State {
		case StatusSucceeded:
			return nil
		case StatusFailed, StatusCancelled:
			return backoff.Permanent(&QueryError{Handle: handle, State: status.State, Reason: status.Reason})
		default:
			return errStillRunning
		}
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if errors.Is(err, errStillRunning) {
			return fmt.Errorf("query %s: %w after %s", handle, ErrWaitTimeout, cfg.Timeout)
		}
		return err
	}
	return nil
}

// Run submits a SQL statement and blocks until it completes, returning the
// query handle so callers can fetch results.
func Run(ctx context.Context, c Client, sql string, cfg WaitConfig) (string, error) {
	handle, err := c.Submit(ctx, sql)
	if err != nil {
		return "", fmt.Errorf("submit query: %w", err)
	}
	if err := Wait(ctx, c, handle, cfg); err != nil {
		return "", err
	}
	return handle, nil
}
