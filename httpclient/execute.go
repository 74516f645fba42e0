package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kbukum/reqkit/errors"
	"github.com/kbukum/reqkit/logger"
	"github.com/kbukum/reqkit/observability"
	"github.com/kbukum/reqkit/version"
)

// Execute sends the request and returns the fully read response. Any status
// code is a response, not an error. Connection, TLS and I/O failures return
// a TRANSPORT error wrapping the cause. The client and its connections are
// released before Execute returns.
func (r *Request) Execute(ctx context.Context) (*Response, error) {
	start := time.Now()

	transport := http.DefaultTransport.(*http.Transport).Clone()
	defer transport.CloseIdleConnections()

	client, err := r.newClient(transport)
	if err != nil {
		return nil, err
	}

	httpReq, err := r.newHTTPRequest(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, r.transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, r.transportError(fmt.Errorf("read response body: %w", err))
	}

	return newResponse(resp, data, time.Since(start)), nil
}

// newClient assembles a client for one execution on top of transport.
func (r *Request) newClient(transport *http.Transport) (*http.Client, error) {
	if r.trust != nil {
		r.trust.Apply(transport)
	}

	userAgent := r.userAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}

	var rt http.RoundTripper = &instrumentedTransport{
		base:      transport,
		userAgent: userAgent,
		log:       r.log.WithComponent("httpclient"),
		tracer:    observability.Tracer(r.tracerProvider),
		metrics:   r.metrics,
	}
	if r.basic != nil {
		rt = newBasicChallengeTransport(rt, r.url, *r.basic)
	}

	client := &http.Client{Transport: rt, Timeout: r.timeout}

	if r.disableRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if len(r.cookies) > 0 {
		jar, err := newCookieJar(r.url, r.cookies)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "create cookie jar").WithCause(err)
		}
		client.Jar = jar
	}

	return client, nil
}

// newHTTPRequest builds the outbound request. Preemptive Basic auth is set
// last so it replaces any other Authorization entry.
func (r *Request) newHTTPRequest(ctx context.Context) (*http.Request, error) {
	var payload io.Reader
	if r.body != nil {
		payload = bytes.NewReader(r.body.data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(r.method), r.url.String(), payload)
	if err != nil {
		return nil, errors.InvalidURL(observability.Redact(r.url), err)
	}

	for _, h := range r.headers {
		httpReq.Header.Add(h.Name, h.Value)
	}
	if r.body != nil && r.body.contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", r.body.contentType)
	}
	if auth := r.preemptiveHeader(); auth != "" {
		httpReq.Header.Set("Authorization", auth)
	}

	return httpReq, nil
}

func (r *Request) transportError(cause error) error {
	err := errors.Transport(string(r.method), observability.Redact(r.url), cause)
	r.log.WithComponent("httpclient").Debug("execution failed", logger.ErrorFields("execute", err))
	return err
}
