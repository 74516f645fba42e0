package observability

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys set on spans and measurements.
const (
	AttrMethod        = "http.request.method"
	AttrURL           = "url.full"
	AttrServerAddress = "server.address"
	AttrStatusCode    = "http.response.status_code"
	AttrRequestID     = "reqkit.request_id"
	AttrOutcome       = "outcome"
)

// Exchange tracks one request execution from send to response.
type Exchange struct {
	Method    string
	URL       string
	Host      string
	RequestID string
	StartTime time.Time

	span    trace.Span
	metrics *ClientMetrics
}

// StartExchange starts a client span for the request and records the start
// metric. A nil tracer disables tracing, nil metrics disables measurements.
func StartExchange(ctx context.Context, tracer trace.Tracer, metrics *ClientMetrics, method string, target *url.URL, requestID string) (context.Context, *Exchange) {
	ex := &Exchange{
		Method:    method,
		URL:       Redact(target),
		Host:      target.Hostname(),
		RequestID: requestID,
		StartTime: time.Now(),
		metrics:   metrics,
	}

	if tracer != nil {
		ctx, ex.span = tracer.Start(ctx, "HTTP "+method,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String(AttrMethod, method),
				attribute.String(AttrURL, ex.URL),
				attribute.String(AttrServerAddress, ex.Host),
				attribute.String(AttrRequestID, requestID),
			),
		)
	}
	if metrics != nil {
		metrics.RecordStart(ctx, method)
	}
	return ctx, ex
}

// Inject writes the trace context of ctx into the outbound headers.
func (e *Exchange) Inject(ctx context.Context, h http.Header) {
	Propagator().Inject(ctx, propagation.HeaderCarrier(h))
}

// End finishes the span and records the request metrics. status is zero
// when the request failed before a response arrived.
func (e *Exchange) End(ctx context.Context, status int, err error) {
	duration := e.Duration()

	if e.span != nil {
		if status > 0 {
			e.span.SetAttributes(attribute.Int(AttrStatusCode, status))
		}
		switch {
		case err != nil:
			e.span.RecordError(err)
			e.span.SetStatus(codes.Error, err.Error())
		case status >= http.StatusBadRequest:
			e.span.SetStatus(codes.Error, http.StatusText(status))
		}
		e.span.End()
	}

	if e.metrics != nil {
		e.metrics.RecordEnd(ctx, e.Method, e.Host, status, duration)
	}
}

// Duration returns the elapsed time since the exchange started.
func (e *Exchange) Duration() time.Duration {
	return time.Since(e.StartTime)
}

// sensitiveParams are query parameter name fragments masked by Redact.
var sensitiveParams = []string{"api_key", "apikey", "token", "password", "secret", "credential", "auth"}

// Redact returns u as a string with the user password and sensitive query
// parameters masked.
func Redact(u *url.URL) string {
	if u == nil {
		return ""
	}
	safe := *u
	if safe.RawQuery != "" {
		q := safe.Query()
		changed := false
		for param := range q {
			if isSensitiveParam(param) {
				q.Set(param, "REDACTED")
				changed = true
			}
		}
		if changed {
			safe.RawQuery = q.Encode()
		}
	}
	return safe.Redacted()
}

func isSensitiveParam(param string) bool {
	lower := strings.ToLower(param)
	for _, s := range sensitiveParams {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
