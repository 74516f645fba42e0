package httpclient

import (
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/reqkit/logger"
	"github.com/kbukum/reqkit/observability"
)

// RequestIDHeader carries the per-attempt id also found in logs and spans.
const RequestIDHeader = "X-Request-Id"

// instrumentedTransport wraps every wire attempt (redirect hops and auth
// replays included) with:
// - User-Agent injection
// - a request id header
// - a client span with trace context propagation
// - metrics and a log line with the sanitized URL
type instrumentedTransport struct {
	base      http.RoundTripper
	userAgent string
	log       *logger.Logger
	tracer    trace.Tracer
	metrics   *observability.ClientMetrics
}

// RoundTrip implements http.RoundTripper.
func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ctx, ex := observability.StartExchange(req.Context(), t.tracer, t.metrics, req.Method, req.URL, requestID)

	out := req.Clone(ctx)
	if out.Header.Get("User-Agent") == "" && t.userAgent != "" {
		out.Header.Set("User-Agent", t.userAgent)
	}
	out.Header.Set(RequestIDHeader, requestID)
	ex.Inject(ctx, out.Header)

	resp, err := t.base.RoundTrip(out)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	ex.End(ctx, status, err)

	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldRequestID, requestID,
		logger.FieldMethod, req.Method,
		logger.FieldURL, ex.URL,
	), ex.Duration())
	switch {
	case err != nil:
		t.log.Warn("http request failed", logger.MergeWithError(fields, err))
	case status >= http.StatusBadRequest:
		fields[logger.FieldStatus] = status
		t.log.Warn("http request", fields)
	default:
		fields[logger.FieldStatus] = status
		t.log.Debug("http request", fields)
	}

	return resp, err
}
