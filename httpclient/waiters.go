package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kbukum/reqkit/waiting"
)

// Waiters creates waiters that re-execute a request until its response
// satisfies a condition.
type Waiters struct {
	req *Request
}

// Waiters returns the waiters bound to r.
func (r *Request) Waiters() *Waiters {
	return &Waiters{req: r}
}

// Until waits for a response accepted by match. Transport errors count as
// "not yet" unless the waiter is fail-fast; other execution errors end the wait.
func (w *Waiters) Until(reason string, match func(*Response) bool) *waiting.Waiter {
	return waiting.New(func(ctx context.Context) (bool, error) {
		resp, err := w.req.Execute(ctx)
		if err != nil {
			return false, err
		}
		return match(resp), nil
	}).Reason(w.req.String() + " " + reason).Logger(w.req.log)
}

// OK waits for a 200 response.
func (w *Waiters) OK() *waiting.Waiter {
	return w.Code(http.StatusOK)
}

// Code waits for a response with the given status code.
func (w *Waiters) Code(code int) *waiting.Waiter {
	return w.Until(fmt.Sprintf("to return %d", code), func(resp *Response) bool {
		return resp.StatusCode == code
	})
}

// ResponseContains waits for a body containing every one of strs.
func (w *Waiters) ResponseContains(strs ...string) *waiting.Waiter {
	return w.Until(fmt.Sprintf("to contain %q", strs), func(resp *Response) bool {
		body := resp.String()
		for _, s := range strs {
			if !strings.Contains(body, s) {
				return false
			}
		}
		return true
	})
}
