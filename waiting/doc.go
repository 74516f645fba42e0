// Package waiting polls a condition until it holds, the timeout elapses or
// the context is cancelled.
//
//	err := waiting.New(func(ctx context.Context) (bool, error) {
//	    return ready(ctx)
//	}).Timeout(30 * time.Second).Interval(500 * time.Millisecond).Reason("service ready").Wait(ctx)
//
// Errors returned by the condition count as "not yet" unless FailFast is set.
// A timeout yields a WAIT_TIMEOUT error carrying the last condition error.
package waiting
