package engine

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrWaitTimeout reports that outstanding jobs did not finish within
	// the deadline given to WaitUntilIdle.
	ErrWaitTimeout = errors.New("wait deadline exceeded")

	// ErrClockFault reports a zero reading from the engine's clock.
	// That indicates a broken time source, not a slow linter, so the
	// wait aborts instead of retrying.
	ErrClockFault = errors.New("clock returned zero reading")
)

// WaitUntilIdle blocks until every outstanding job — including jobs
// spawned later by chain continuation — has finished. After each drain
// it lingers for the settle delay and re-checks, returning only once the
// registry stays empty and no events remain queued; a chain step that
// started during the linger sends it back into the drain loop with the
// elapsed time subtracted from the budget.
//
// Returns an error wrapping ErrWaitTimeout when the deadline expires
// first, and ErrClockFault if the clock ever reads zero. Must not be
// called from a Sink or any other engine callback.
func (e *Engine) WaitUntilIdle(timeout time.Duration) error {
	remaining := timeout
	for {
		start := e.clock.NowMillis()
		if start == 0 {
			return ErrClockFault
		}

		if err := e.drain(remaining); err != nil {
			return err
		}

		time.Sleep(e.settleDelay)
		if e.registry.Len() == 0 && len(e.events) == 0 {
			return nil
		}

		end := e.clock.NowMillis()
		if end == 0 {
			return ErrClockFault
		}
		remaining -= time.Duration(end-start) * time.Millisecond
		if remaining <= 0 {
			return fmt.Errorf("%w after %s", ErrWaitTimeout, timeout)
		}
	}
}

// drain polls until the registry empties or the budget runs out.
func (e *Engine) drain(budget time.Duration) error {
	start := e.clock.NowMillis()
	if start == 0 {
		return ErrClockFault
	}
	for {
		if e.registry.Len() == 0 {
			return nil
		}
		now := e.clock.NowMillis()
		if now == 0 {
			return ErrClockFault
		}
		if time.Duration(now-start)*time.Millisecond >= budget {
			return fmt.Errorf("%w after %s", ErrWaitTimeout, budget)
		}
		time.Sleep(e.pollEvery)
	}
}
