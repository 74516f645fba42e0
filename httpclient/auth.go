package httpclient

import (
	"encoding/base64"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// basicToken is the credential part of a Basic Authorization header.
func basicToken(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

// preemptiveHeader returns the Basic Authorization value sent up front, or
// "" when preemptive auth is off or no credentials were set.
func (r *Request) preemptiveHeader() string {
	if !r.preemptive || r.basic == nil {
		return ""
	}
	return "Basic " + basicToken(r.basic.username, r.basic.password)
}

// authScope is host:port with the scheme's default port filled in.
func authScope(u *url.URL) string {
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		default:
			port = "80"
		}
	}
	return net.JoinHostPort(strings.ToLower(u.Hostname()), port)
}

// basicChallengeTransport answers a Basic challenge from its scope by
// replaying the request once with credentials.
type basicChallengeTransport struct {
	next  http.RoundTripper
	scope string
	creds credentials
}

func newBasicChallengeTransport(next http.RoundTripper, target *url.URL, creds credentials) *basicChallengeTransport {
	return &basicChallengeTransport{next: next, scope: authScope(target), creds: creds}
}

// RoundTrip implements http.RoundTripper.
func (t *basicChallengeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	if req.Header.Get("Authorization") != "" || authScope(req.URL) != t.scope {
		return resp, nil
	}
	if !hasBasicChallenge(resp.Header.Values("WWW-Authenticate")) {
		return resp, nil
	}

	retry, ok := rewind(req)
	if !ok {
		return resp, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	retry.SetBasicAuth(t.creds.username, t.creds.password)
	return t.next.RoundTrip(retry)
}

// rewind clones req with a fresh body. ok is false when the body cannot be replayed.
func rewind(req *http.Request) (*http.Request, bool) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	b, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	clone.Body = b
	return clone, true
}

// hasBasicChallenge reports whether any WWW-Authenticate value offers the
// Basic scheme.
func hasBasicChallenge(values []string) bool {
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			fields := strings.Fields(part)
			if len(fields) > 0 && strings.EqualFold(fields[0], "basic") {
				return true
			}
		}
	}
	return false
}
