package httpclient

import (
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/reqkit/errors"
	"github.com/kbukum/reqkit/logger"
	"github.com/kbukum/reqkit/observability"
	"github.com/kbukum/reqkit/security"
)

// Header is a single header entry. Entries keep their insertion order and
// a name may repeat.
type Header struct {
	Name  string
	Value string
}

type body struct {
	data        []byte
	contentType string
}

type credentials struct {
	username string
	password string
}

// settings accumulates option values while a Request is built.
type settings struct {
	headers          []Header
	cookies          map[string]string
	body             *body
	basic            *credentials
	preemptive       bool
	disableRedirects bool
	trust            *security.TrustPolicy
	timeout          time.Duration
	userAgent        string
	log              *logger.Logger
	tracerProvider   trace.TracerProvider
	metrics          *observability.ClientMetrics
}

// Request is a configured HTTP request. It is immutable once built and may
// be executed any number of times, concurrently.
type Request struct {
	method Method
	url    *url.URL
	settings
}

// Get builds a GET request.
func Get(rawURL string, opts ...Option) (*Request, error) {
	return create(MethodGet, rawURL, asEntityOptions(opts))
}

// Delete builds a DELETE request.
func Delete(rawURL string, opts ...Option) (*Request, error) {
	return create(MethodDelete, rawURL, asEntityOptions(opts))
}

// Post builds a POST request.
func Post(rawURL string, opts ...EntityOption) (*Request, error) {
	return create(MethodPost, rawURL, opts)
}

// Put builds a PUT request.
func Put(rawURL string, opts ...EntityOption) (*Request, error) {
	return create(MethodPut, rawURL, opts)
}

// New builds a request for a method chosen at run time. A body option on a
// method that does not enclose an entity fails with UNSUPPORTED_OPERATION.
func New(method Method, rawURL string, opts ...EntityOption) (*Request, error) {
	if !method.Valid() {
		return nil, errors.UnsupportedOperation("create a request", "method "+string(method))
	}
	return create(method, rawURL, opts)
}

func create(method Method, rawURL string, opts []EntityOption) (*Request, error) {
	target, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}

	r := &Request{method: method, url: target}
	r.log = logger.Nop()
	for _, opt := range opts {
		if err := opt.applyEntity(&r.settings); err != nil {
			return nil, err
		}
	}
	if r.body != nil && !method.EnclosesEntity() {
		return nil, errors.UnsupportedOperation("add data", string(method)+" "+observability.Redact(target))
	}
	return r, nil
}

// parseURL accepts absolute http and https URLs with a host.
func parseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.InvalidURL(rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.InvalidURL(rawURL, nil).WithDetail("reason", "scheme must be http or https")
	}
	if u.Hostname() == "" {
		return nil, errors.InvalidURL(rawURL, nil).WithDetail("reason", "missing host")
	}
	return u, nil
}

// Method returns the request method.
func (r *Request) Method() Method { return r.method }

// URL returns a copy of the target URL.
func (r *Request) URL() *url.URL {
	u := *r.url
	if r.url.User != nil {
		user := *r.url.User
		u.User = &user
	}
	return &u
}

// Headers returns a copy of the configured header entries in order.
func (r *Request) Headers() []Header {
	return append([]Header(nil), r.headers...)
}

// Cookies returns a copy of the configured cookies.
func (r *Request) Cookies() map[string]string {
	out := make(map[string]string, len(r.cookies))
	for k, v := range r.cookies {
		out[k] = v
	}
	return out
}

// Body returns a copy of the body and its content type. ok is false when no
// body is set.
func (r *Request) Body() (data []byte, contentType string, ok bool) {
	if r.body == nil {
		return nil, "", false
	}
	return append([]byte(nil), r.body.data...), r.body.contentType, true
}

// TrustPolicy returns the active TLS trust policy, or nil.
func (r *Request) TrustPolicy() *security.TrustPolicy { return r.trust }

func (r *Request) String() string {
	return string(r.method) + " " + observability.Redact(r.url)
}

// header returns the first value of name among the configured entries.
func (r *Request) header(name string) string {
	key := http.CanonicalHeaderKey(name)
	for _, h := range r.headers {
		if http.CanonicalHeaderKey(h.Name) == key {
			return h.Value
		}
	}
	return ""
}
