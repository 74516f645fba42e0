package httpclient

import (
	"net/http"
	"net/url"
	"testing"
)

func challenge(user, pass string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="test"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("welcome"))
	}
}

func TestBasicAuth_AnswersChallenge(t *testing.T) {
	srv, rec := newServer(t, challenge("alice", "s3cret"))

	req, _ := Post(srv.URL, WithBasicAuth("alice", "s3cret"), WithStringBody("data", "text/plain"))
	resp := execute(t, req)

	if resp.StatusCode != http.StatusOK || resp.String() != "welcome" {
		t.Fatalf("expected 200 welcome, got %d %q", resp.StatusCode, resp.String())
	}
	all := rec.all()
	if len(all) != 2 {
		t.Fatalf("expected challenge and replay, got %d requests", len(all))
	}
	if all[0].Header.Get("Authorization") != "" {
		t.Error("expected first attempt without credentials")
	}
	if string(all[1].Body) != "data" {
		t.Errorf("expected body on replay, got %q", all[1].Body)
	}
}

func TestBasicAuth_WrongCredentialsReplayOnce(t *testing.T) {
	srv, rec := newServer(t, challenge("alice", "s3cret"))

	req, _ := Get(srv.URL, WithBasicAuth("alice", "wrong"))
	resp := execute(t, req)

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
	if n := len(rec.all()); n != 2 {
		t.Errorf("expected exactly one replay, got %d requests", n)
	}
}

func TestBasicAuth_NoChallengeNoReplay(t *testing.T) {
	srv, rec := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		w.WriteHeader(http.StatusUnauthorized)
	})

	req, _ := Get(srv.URL, WithBasicAuth("alice", "s3cret"))
	execute(t, req)

	if n := len(rec.all()); n != 1 {
		t.Errorf("expected no replay for non-Basic challenge, got %d requests", n)
	}
}

func TestBasicAuth_NotSentToOtherHosts(t *testing.T) {
	other, otherRec := newServer(t, challenge("alice", "s3cret"))
	origin, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, other.URL+"/elsewhere", http.StatusFound)
	})

	req, _ := Get(origin.URL, WithBasicAuth("alice", "s3cret"))
	resp := execute(t, req)

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 from out-of-scope host, got %d", resp.StatusCode)
	}
	for _, r := range otherRec.all() {
		if r.Header.Get("Authorization") != "" {
			t.Error("credentials leaked to another host")
		}
	}
}

func TestPreemptiveAuth(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		wantAuth string
	}{
		{
			name:     "both credentials",
			opts:     []Option{WithBasicAuth("alice", "s3cret"), WithPreemptiveAuth()},
			wantAuth: "Basic " + basicToken("alice", "s3cret"),
		},
		{
			name:     "empty password",
			opts:     []Option{WithBasicAuth("apikey", ""), WithPreemptiveAuth()},
			wantAuth: "Basic " + basicToken("apikey", ""),
		},
		{
			name:     "empty username",
			opts:     []Option{WithBasicAuth("", "s3cret"), WithPreemptiveAuth()},
			wantAuth: "Basic " + basicToken("", "s3cret"),
		},
		{
			name: "no credentials",
			opts: []Option{WithPreemptiveAuth()},
		},
		{
			name: "not preemptive",
			opts: []Option{WithBasicAuth("alice", "s3cret")},
		},
		{
			name:     "overrides bearer",
			opts:     []Option{WithBearerAuth("tok"), WithBasicAuth("alice", "s3cret"), WithPreemptiveAuth()},
			wantAuth: "Basic " + basicToken("alice", "s3cret"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, rec := newServer(t, nil)
			req, err := Get(srv.URL, tt.opts...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			execute(t, req)

			first := rec.all()[0]
			if got := first.Header.Get("Authorization"); got != tt.wantAuth {
				t.Errorf("expected Authorization %q, got %q", tt.wantAuth, got)
			}
		})
	}
}

func TestBearerAuth_Sent(t *testing.T) {
	srv, rec := newServer(t, nil)

	req, _ := Get(srv.URL, WithBearerAuth("abc.def"), WithBearerAuth("xyz"))
	execute(t, req)

	if got := rec.last(t).Header.Values("Authorization"); len(got) != 1 || got[0] != "Bearer xyz" {
		t.Errorf("expected [Bearer xyz], got %v", got)
	}
}

func TestBasicToken(t *testing.T) {
	if got := basicToken("Aladdin", "open sesame"); got != "QWxhZGRpbjpvcGVuIHNlc2FtZQ==" {
		t.Errorf("unexpected token %q", got)
	}
}

func TestAuthScope(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"http://Example.com/x", "example.com:80"},
		{"https://example.com", "example.com:443"},
		{"http://example.com:8080", "example.com:8080"},
		{"https://[::1]:9443/", "[::1]:9443"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := authScope(u); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestHasBasicChallenge(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   bool
	}{
		{"basic", []string{`Basic realm="x"`}, true},
		{"lowercase", []string{`basic`}, true},
		{"second value", []string{`Bearer`, `Basic realm="y"`}, true},
		{"combined", []string{`Digest realm="d", Basic realm="b"`}, true},
		{"bearer only", []string{`Bearer realm="api"`}, false},
		{"none", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasBasicChallenge(tt.values); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
