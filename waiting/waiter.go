package waiting

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/reqkit/errors"
	"github.com/kbukum/reqkit/logger"
)

// Defaults applied by New.
const (
	DefaultTimeout  = time.Minute
	DefaultInterval = time.Second
	DefaultReason   = "condition"
)

// Condition reports whether the awaited state holds.
type Condition func(ctx context.Context) (bool, error)

// Waiter polls a Condition. Setters return a modified copy so a configured
// waiter can be shared and specialised.
type Waiter struct {
	condition Condition
	timeout   time.Duration
	interval  time.Duration
	reason    string
	failFast  bool
	log       *logger.Logger
}

// New creates a waiter for condition with default timeout and interval.
func New(condition Condition) *Waiter {
	return &Waiter{
		condition: condition,
		timeout:   DefaultTimeout,
		interval:  DefaultInterval,
		reason:    DefaultReason,
		log:       logger.Nop(),
	}
}

// Timeout sets the total time Wait may take. Non-positive values keep the current timeout.
func (w *Waiter) Timeout(d time.Duration) *Waiter {
	c := *w
	if d > 0 {
		c.timeout = d
	}
	return &c
}

// Interval sets the pause between attempts. Non-positive values keep the current interval.
func (w *Waiter) Interval(d time.Duration) *Waiter {
	c := *w
	if d > 0 {
		c.interval = d
	}
	return &c
}

// Reason describes what is awaited; it appears in logs and timeout errors.
func (w *Waiter) Reason(reason string) *Waiter {
	c := *w
	c.reason = reason
	return &c
}

// FailFast makes Wait return the first condition error instead of retrying.
func (w *Waiter) FailFast() *Waiter {
	c := *w
	c.failFast = true
	return &c
}

// Logger sets the logger used for per-attempt debug output.
func (w *Waiter) Logger(l *logger.Logger) *Waiter {
	c := *w
	if l != nil {
		c.log = l.WithComponent("waiting")
	}
	return &c
}

// Wait polls until the condition holds. It returns nil on success, ctx.Err()
// when ctx is cancelled, the condition error in fail-fast mode or when it is
// a reqkit error not marked retryable, or a WAIT_TIMEOUT error.
func (w *Waiter) Wait(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	var lastErr error
	for attempt := 1; ; attempt++ {
		ok, err := w.condition(waitCtx)
		if err == nil && ok {
			w.log.Debug("condition met", logger.Fields(
				logger.FieldReason, w.reason,
				logger.FieldAttempt, attempt,
			))
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if w.failFast || !retryable(err) {
				return err
			}
		}

		w.log.Debug("condition not met", logger.MergeWithError(logger.Fields(
			logger.FieldReason, w.reason,
			logger.FieldAttempt, attempt,
		), err))

		timer := time.NewTimer(w.interval)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return w.timeoutError(attempt, lastErr)
		case <-timer.C:
		}
	}
}

func (w *Waiter) timeoutError(attempts int, lastErr error) error {
	return errors.WaitTimeout(fmt.Sprintf("timed out after %s waiting for %s", w.timeout, w.reason), lastErr).
		WithDetail("reason", w.reason).
		WithDetail("attempts", attempts).
		WithDetail("timeout", w.timeout.String())
}

// retryable reports whether another attempt may clear err. Errors from outside
// reqkit carry no such mark and are retried.
func retryable(err error) bool {
	if _, ok := errors.AsError(err); !ok {
		return true
	}
	return errors.IsRetryable(err)
}
