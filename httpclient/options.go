package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/reqkit/errors"
	"github.com/kbukum/reqkit/logger"
	"github.com/kbukum/reqkit/observability"
)

// EntityOption configures a request that may carry a body (POST, PUT).
// Every Option is also an EntityOption; WithBody is only an EntityOption.
type EntityOption interface {
	applyEntity(*settings) error
}

// Option configures any request.
type Option func(*settings) error

func (o Option) applyEntity(s *settings) error { return o(s) }

type entityOption func(*settings) error

func (o entityOption) applyEntity(s *settings) error { return o(s) }

func asEntityOptions(opts []Option) []EntityOption {
	out := make([]EntityOption, len(opts))
	for i, o := range opts {
		out[i] = o
	}
	return out
}

// WithBasicAuth stores Basic credentials. They are sent in answer to a Basic
// challenge from the target host and port, or up front with WithPreemptiveAuth.
func WithBasicAuth(username, password string) Option {
	return func(s *settings) error {
		s.basic = &credentials{username: username, password: password}
		return nil
	}
}

// WithBearerAuth replaces every Authorization header entry with
// "Bearer <token>".
func WithBearerAuth(token string) Option {
	return func(s *settings) error {
		s.setHeader("Authorization", "Bearer "+token)
		return nil
	}
}

// WithPreemptiveAuth sends the Basic credentials on the first attempt. It has
// no effect without WithBasicAuth; empty usernames or passwords are sent as given.
func WithPreemptiveAuth() Option {
	return func(s *settings) error {
		s.preemptive = true
		return nil
	}
}

// WithDisabledRedirects returns 3xx responses instead of following them.
func WithDisabledRedirects() Option {
	return func(s *settings) error {
		s.disableRedirects = true
		return nil
	}
}

// WithHeader appends a header entry. Repeated names are sent as repeated headers.
func WithHeader(name, value string) Option {
	return func(s *settings) error {
		if name == "" {
			return errors.UnsupportedOperation("add a header", "an empty name")
		}
		s.headers = append(s.headers, Header{Name: name, Value: value})
		return nil
	}
}

// WithCookie sets a cookie, replacing any earlier value for name.
func WithCookie(name, value string) Option {
	return func(s *settings) error {
		if s.cookies == nil {
			s.cookies = make(map[string]string)
		}
		s.cookies[name] = value
		return nil
	}
}

// WithBody sets the request body and its content type, replacing any earlier
// body. The data is copied.
func WithBody(data []byte, contentType string) EntityOption {
	return entityOption(func(s *settings) error {
		s.body = &body{data: append([]byte(nil), data...), contentType: contentType}
		return nil
	})
}

// WithStringBody is WithBody for text payloads.
func WithStringBody(data, contentType string) EntityOption {
	return WithBody([]byte(data), contentType)
}

// WithTimeout bounds each execution, including redirects and body reads.
// Zero means no limit beyond the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) error {
		if d < 0 {
			return errors.InvalidConfig("timeout must not be negative")
		}
		s.timeout = d
		return nil
	}
}

// WithUserAgent overrides the default User-Agent. An explicit User-Agent
// header entry takes precedence.
func WithUserAgent(ua string) Option {
	return func(s *settings) error {
		s.userAgent = ua
		return nil
	}
}

// WithLogger sets the logger used for execution logs.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) error {
		if l != nil {
			s.log = l
		}
		return nil
	}
}

// WithTracing sets the tracer provider for execution spans. Without it the
// global provider is used.
func WithTracing(tp trace.TracerProvider) Option {
	return func(s *settings) error {
		s.tracerProvider = tp
		return nil
	}
}

// WithMetrics records request count and duration on m.
func WithMetrics(m *observability.ClientMetrics) Option {
	return func(s *settings) error {
		s.metrics = m
		return nil
	}
}

// setHeader removes every entry named name and appends a single new one.
func (s *settings) setHeader(name, value string) {
	key := http.CanonicalHeaderKey(name)
	kept := s.headers[:0:0]
	for _, h := range s.headers {
		if http.CanonicalHeaderKey(h.Name) != key {
			kept = append(kept, h)
		}
	}
	s.headers = append(kept, Header{Name: name, Value: value})
}
