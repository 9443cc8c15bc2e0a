package llm

import (
	"context"
	"errors"
	"time"

	"github.com/qmuntal/stateless"

	"github.com/eldtechnologies/shopchat/internal/metrics"
)

// FSM states for the bounded retry loop around one upstream call.
type retryState stateless.State

var (
	stateAttempting retryState = "Attempting"
	stateRetrying   retryState = "Retrying"
	stateSucceeded  retryState = "Succeeded"
	stateFailed     retryState = "Failed"
)

// FSM triggers
type retryTrigger stateless.Trigger

var (
	triggerAttempt          retryTrigger = "Attempt"
	triggerSucceeded        retryTrigger = "Succeeded"
	triggerRetryableFailure retryTrigger = "RetryableFailure"
	triggerFatalFailure     retryTrigger = "FatalFailure"
)

// retryLoop drives a single-flight upstream call through a bounded linear
// backoff: attempt n sleeps n × baseDelay before the next try. Only one
// call is ever in flight; there is no concurrent fan-out.
type retryLoop struct {
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(context.Context, time.Duration) error
	attempt     func(context.Context, int) (string, error)

	n      int
	result string
	err    error
}

// run executes the loop and returns the final result or the classified
// error of the last attempt.
func (l *retryLoop) run(ctx context.Context) (string, error) {
	fsm := stateless.NewStateMachine(stateAttempting)

	// State: Attempting
	// Action: issue attempt n.
	// Transitions:
	//   - On Succeeded -> Succeeded
	//   - On RetryableFailure (attempts remaining) -> Retrying
	//   - On FatalFailure -> Failed
	fsm.Configure(stateAttempting).
		PermitReentry(triggerAttempt). // ensures OnEntry runs for the initial Fire
		OnEntry(func(_ context.Context, _ ...any) error {
			l.n++
			out, err := l.attempt(ctx, l.n)
			if err == nil {
				l.result = out
				return fsm.Fire(triggerSucceeded)
			}
			l.err = err

			var clsErr *Error
			retryable := errors.As(err, &clsErr) && clsErr.Retryable()
			if !retryable || l.n >= l.maxAttempts {
				return fsm.Fire(triggerFatalFailure)
			}
			return fsm.Fire(triggerRetryableFailure)
		}).
		Permit(triggerSucceeded, stateSucceeded).
		Permit(triggerRetryableFailure, stateRetrying).
		Permit(triggerFatalFailure, stateFailed)

	// State: Retrying
	// Action: sleep attempt-index × base delay, then re-enter Attempting.
	fsm.Configure(stateRetrying).
		OnEntry(func(_ context.Context, _ ...any) error {
			metrics.GenerationRetries.Inc()
			delay := time.Duration(l.n) * l.baseDelay
			if err := l.sleep(ctx, delay); err != nil {
				l.err = err
				return fsm.Fire(triggerFatalFailure)
			}
			return fsm.Fire(triggerAttempt)
		}).
		Permit(triggerAttempt, stateAttempting).
		Permit(triggerFatalFailure, stateFailed)

	// Terminal states
	fsm.Configure(stateSucceeded)
	fsm.Configure(stateFailed)

	if err := fsm.Fire(triggerAttempt); err != nil {
		return "", err
	}

	if fsm.MustState() == stateSucceeded {
		return l.result, nil
	}
	return "", l.err
}

// sleepContext waits for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
