package checkout

import (
	"context"
	"errors"
	"time"
)

// ErrTimedOut reports that the timeout settled before the racing action.
var ErrTimedOut = errors.New("background action timed out")

// FirstSettled runs fn and waits for whichever settles first: fn's
// result or the timeout. The loser is discarded — a late fn result is
// delivered into a buffered channel and dropped, so the goroutine never
// leaks on timeout. Callers racing a non-critical background action
// against a deadline use this so the action can never degrade into a
// blocking wait on the critical path.
func FirstSettled(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn(ctx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return ErrTimedOut
	case <-ctx.Done():
		return ctx.Err()
	}
}
