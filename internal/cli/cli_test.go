package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/reqkit/errors"
	"github.com/kbukum/reqkit/logger"
	"github.com/kbukum/reqkit/observability"
	"github.com/kbukum/reqkit/security/tlstest"
)

// isolate keeps the CLI away from config files and REQKIT_* variables of
// the machine running the tests.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("REQKIT_LOGGING_LEVEL", "error")
}

func run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	isolate(t)
	var out, errOut bytes.Buffer
	code = Execute(context.Background(), append(args, "--no-color"), &out, &errOut)
	return code, out.String(), errOut.String()
}

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/missing":
			http.Error(w, "not here", http.StatusNotFound)
			return
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"items":[{"id":1},{"id":2}]}`))
			return
		}
		w.Header().Set("X-Method", r.Method)
		_, _ = w.Write([]byte("method=" + r.Method +
			" x-test=" + r.Header.Get("X-Test") +
			" auth=" + r.Header.Get("Authorization") +
			" ct=" + r.Header.Get("Content-Type") +
			" body=" + string(body)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reqkit.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestGet(t *testing.T) {
	srv := echoServer(t)

	code, out, errOut := run(t, "get", srv.URL, "-H", "X-Test: hello")
	if code != ExitSuccess {
		t.Fatalf("expected exit 0, got %d (%s)", code, errOut)
	}
	if !strings.Contains(out, "method=GET") || !strings.Contains(out, "x-test=hello") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestMethods(t *testing.T) {
	srv := echoServer(t)

	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"post", srv.URL, "-d", `{"a":1}`}, []string{"method=POST", `body={"a":1}`, "ct=application/json"}},
		{[]string{"put", srv.URL, "-d", "x=1", "--content-type", "text/plain"}, []string{"method=PUT", "body=x=1", "ct=text/plain"}},
		{[]string{"delete", srv.URL}, []string{"method=DELETE", "body=\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			code, out, errOut := run(t, tt.args...)
			if code != ExitSuccess {
				t.Fatalf("expected exit 0, got %d (%s)", code, errOut)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("expected %q in %q", w, out)
				}
			}
		})
	}
}

func TestDataFromFile(t *testing.T) {
	srv := echoServer(t)
	path := filepath.Join(t.TempDir(), "body.json")
	if err := os.WriteFile(path, []byte(`{"from":"file"}`), 0o644); err != nil {
		t.Fatalf("write body: %v", err)
	}

	code, out, _ := run(t, "post", srv.URL, "-d", "@"+path)
	if code != ExitSuccess || !strings.Contains(out, `body={"from":"file"}`) {
		t.Errorf("unexpected result %d %q", code, out)
	}

	code, _, _ = run(t, "post", srv.URL, "-d", "@"+filepath.Join(t.TempDir(), "missing.json"))
	if code != ExitUsageError {
		t.Errorf("expected usage error for missing file, got %d", code)
	}
}

func TestReadDataStdin(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("from stdin"))
	got, err := readData(cmd, "@-")
	if err != nil || string(got) != "from stdin" {
		t.Errorf("unexpected %q, %v", got, err)
	}
}

func TestAuthFlags(t *testing.T) {
	srv := echoServer(t)

	code, out, _ := run(t, "get", srv.URL, "--bearer", "tok")
	if code != ExitSuccess || !strings.Contains(out, "auth=Bearer tok") {
		t.Errorf("expected bearer header, got %d %q", code, out)
	}

	code, out, _ = run(t, "get", srv.URL, "-u", "alice:s3cret", "--preemptive")
	if code != ExitSuccess || !strings.Contains(out, "auth=Basic YWxpY2U6czNjcmV0") {
		t.Errorf("expected preemptive basic header, got %d %q", code, out)
	}

	code, out, _ = run(t, "get", srv.URL, "-u", "apikey:", "--preemptive")
	if code != ExitSuccess || !strings.Contains(out, "auth=Basic YXBpa2V5Og==") {
		t.Errorf("expected api key sent with empty password, got %d %q", code, out)
	}
}

func TestFail(t *testing.T) {
	srv := echoServer(t)

	code, out, _ := run(t, "get", srv.URL+"/missing")
	if code != ExitSuccess || !strings.Contains(out, "not here") {
		t.Errorf("expected 404 body with exit 0, got %d %q", code, out)
	}

	code, _, errOut := run(t, "get", srv.URL+"/missing", "--fail")
	if code != ExitFailure {
		t.Errorf("expected exit 1 with --fail, got %d", code)
	}
	if !strings.Contains(errOut, "404") {
		t.Errorf("expected status in error, got %q", errOut)
	}
}

func TestQuery(t *testing.T) {
	srv := echoServer(t)

	code, out, _ := run(t, "get", srv.URL+"/json", "-q", "items.#.id")
	if code != ExitSuccess || strings.TrimSpace(out) != "[1,2]" {
		t.Errorf("expected [1,2], got %d %q", code, out)
	}

	code, _, _ = run(t, "get", srv.URL+"/json", "-q", "nope")
	if code != ExitUsageError {
		t.Errorf("expected usage error for missing path, got %d", code)
	}
}

func TestPrettyJSON(t *testing.T) {
	srv := echoServer(t)

	_, out, _ := run(t, "get", srv.URL+"/json")
	if !strings.Contains(out, "\n  \"items\"") {
		t.Errorf("expected indented JSON, got %q", out)
	}
}

func TestVerbose(t *testing.T) {
	srv := echoServer(t)

	code, out, _ := run(t, "get", srv.URL, "-v", "-H", "Authorization: Bearer secret-token")
	if code != ExitSuccess {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"> GET " + srv.URL, "> Authorization: Bearer REDACTED", "< HTTP/1.1 200 OK", "< X-Method: GET"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
	if strings.Contains(out, "> Authorization: Bearer secret-token") {
		t.Error("expected request Authorization header to be redacted")
	}
}

func TestErrorsExitCodes(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"invalid url", []string{"get", "not a url"}, ExitUsageError},
		{"missing url", []string{"get"}, ExitUsageError},
		{"unknown flag", []string{"get", "http://x", "--nope"}, ExitUsageError},
		{"bad header", []string{"get", "http://x", "-H", "novalue"}, ExitUsageError},
		{"bad cookie", []string{"get", "http://x", "-b", "novalue"}, ExitUsageError},
		{"insecure and store", []string{"get", "https://x", "-k", "--trust-store", "a.pem"}, ExitUsageError},
		{"missing store", []string{"get", "https://x", "--trust-store", "/missing.pem"}, ExitConfigError},
		{"connection refused", []string{"get", closedURL}, ExitNetworkError},
		{"bad log level", []string{"get", "http://x", "--log-level", "loud"}, ExitUsageError},
		{"missing config", []string{"get", "http://x", "--config", "/missing/reqkit.yml"}, ExitConfigError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := run(t, tt.args...)
			if code != tt.want {
				t.Errorf("expected exit %d, got %d (%s)", tt.want, code, errOut)
			}
			if errOut == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestTLSFlags(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)
	other := tlstest.GenerateTLSCerts(t)
	srv := tlstest.StartTLSServer(t, certs, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("secure"))
	}))

	if code, _, _ := run(t, "get", srv.URL); code != ExitNetworkError {
		t.Errorf("expected unknown CA to fail, got %d", code)
	}
	if code, out, _ := run(t, "get", srv.URL, "-k"); code != ExitSuccess || !strings.Contains(out, "secure") {
		t.Errorf("expected -k to succeed, got %d %q", code, out)
	}

	store := tlstest.WritePKCS12TrustStore(t, "changeit", certs.CACert)
	if code, _, errOut := run(t, "get", srv.URL, "--trust-store", store, "--trust-store-password", "changeit"); code != ExitSuccess {
		t.Errorf("expected trust store to succeed, got %d (%s)", code, errOut)
	}

	wrong := tlstest.WritePEMBundle(t, other.CACert)
	if code, _, _ := run(t, "get", srv.URL, "--trust-store", wrong); code != ExitNetworkError {
		t.Errorf("expected wrong CA to fail, got %d", code)
	}
}

func TestProfile(t *testing.T) {
	srv := echoServer(t)
	cfg := writeConfig(t, `
profiles:
  default:
    headers:
      X-Test: from-default
  staging:
    headers:
      X-Test: from-staging
    auth:
      bearer_token: staging-token
`)

	code, out, _ := run(t, "get", srv.URL, "--config", cfg)
	if code != ExitSuccess || !strings.Contains(out, "x-test=from-default") {
		t.Errorf("expected default profile header, got %d %q", code, out)
	}

	code, out, _ = run(t, "get", srv.URL, "--config", cfg, "-p", "staging")
	if code != ExitSuccess || !strings.Contains(out, "x-test=from-staging") || !strings.Contains(out, "auth=Bearer staging-token") {
		t.Errorf("expected staging profile, got %d %q", code, out)
	}

	code, out, _ = run(t, "get", srv.URL, "--config", cfg, "-p", "staging", "--bearer", "flag-token")
	if !strings.Contains(out, "auth=Bearer flag-token") {
		t.Errorf("expected flag to override profile, got %d %q", code, out)
	}

	if code, _, _ = run(t, "get", srv.URL, "--config", cfg, "-p", "nope"); code != ExitConfigError {
		t.Errorf("expected config error for unknown profile, got %d", code)
	}
}

func TestProfile_BaseURL(t *testing.T) {
	srv := echoServer(t)
	cfg := writeConfig(t, fmt.Sprintf(`
profiles:
  api:
    base_url: %s/
`, srv.URL))

	code, out, errOut := run(t, "get", "/json", "--config", cfg, "-p", "api", "-q", "items.#.id")
	if code != ExitSuccess || strings.TrimSpace(out) != "[1,2]" {
		t.Errorf("expected relative target to resolve against base_url, got %d %q (%s)", code, out, errOut)
	}

	code, out, _ = run(t, "get", srv.URL+"/json", "--config", cfg, "-p", "api", "-q", "items.0.id")
	if code != ExitSuccess || strings.TrimSpace(out) != "1" {
		t.Errorf("expected absolute target to be used as given, got %d %q", code, out)
	}

	bad := writeConfig(t, `
profiles:
  api:
    base_url: ftp://files.example.com
`)
	if code, _, _ = run(t, "get", "/json", "--config", bad, "-p", "api"); code != ExitConfigError {
		t.Errorf("expected config error for non-http base_url, got %d", code)
	}
}

func TestProfilesCmd(t *testing.T) {
	cfg := writeConfig(t, `
profiles:
  staging:
    timeout: 5s
    tls:
      trust_all: true
`)
	code, out, errOut := run(t, "profiles", "--config", cfg)
	if code != ExitSuccess {
		t.Fatalf("expected exit 0, got %d (%s)", code, errOut)
	}
	if !strings.Contains(out, "default\ttimeout=30s") || !strings.Contains(out, "staging\ttimeout=5s\ttls=custom") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestWait(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"UP"}`))
	}))
	t.Cleanup(srv.Close)

	code, out, errOut := run(t, "wait", srv.URL, "-i", "10ms", "-w", "5s")
	if code != ExitSuccess {
		t.Fatalf("expected exit 0, got %d (%s)", code, errOut)
	}
	if !strings.Contains(out, "ready after") {
		t.Errorf("unexpected output %q", out)
	}

	code, _, _ = run(t, "wait", srv.URL, "-c", `"status":"UP"`, "-s", "200", "-i", "10ms", "-w", "5s")
	if code != ExitSuccess {
		t.Errorf("expected contains wait to succeed, got %d", code)
	}
}

func TestWait_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	code, _, errOut := run(t, "wait", srv.URL, "-i", "10ms", "-w", "100ms")
	if code != ExitFailure {
		t.Errorf("expected exit 1 on timeout, got %d", code)
	}
	if !strings.Contains(errOut, "timed out") {
		t.Errorf("expected timeout message, got %q", errOut)
	}
}

func TestVersion(t *testing.T) {
	code, out, _ := run(t, "version", "--config", "/missing/reqkit.yml")
	if code != ExitSuccess {
		t.Fatalf("expected version to ignore config, got %d", code)
	}
	if !strings.Contains(out, "reqkit version") || !strings.Contains(out, "User-Agent: reqkit/") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", usageError("bad"), ExitUsageError},
		{"invalid url", errors.InvalidURL("x", nil), ExitUsageError},
		{"unsupported", errors.UnsupportedOperation("add data", "GET"), ExitUsageError},
		{"config", errors.InvalidConfig("bad"), ExitConfigError},
		{"tls", errors.TLSConfiguration("bad", nil), ExitConfigError},
		{"transport", errors.Transport("GET", "http://x", io.EOF), ExitNetworkError},
		{"wait", errors.WaitTimeout("slow", nil), ExitFailure},
		{"other", io.ErrUnexpectedEOF, ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestSetup_RegistersRequestLogger(t *testing.T) {
	isolate(t)
	a := &app{}
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetErr(io.Discard)

	if err := a.setup(cmd); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if logger.Get(httpLogger) != a.log {
		t.Error("expected the configured logger to be registered for requests")
	}

	a.teardown()
	if logger.Get(httpLogger) == a.log {
		t.Error("expected teardown to unregister the request logger")
	}
}

// closeRecorder is a span processor that remembers being shut down.
type closeRecorder struct{ closed atomic.Bool }

func (r *closeRecorder) OnStart(context.Context, sdktrace.ReadWriteSpan) {}
func (r *closeRecorder) OnEnd(sdktrace.ReadOnlySpan) {}
func (r *closeRecorder) ForceFlush(context.Context) error { return nil }
func (r *closeRecorder) Shutdown(context.Context) error {
	r.closed.Store(true)
	return nil
}

func TestSetup_MeterFailureShutsDownTracer(t *testing.T) {
	isolate(t)
	t.Setenv("REQKIT_TRACING_ENABLED", "true")
	t.Setenv("REQKIT_METRICS_ENABLED", "true")

	rec := &closeRecorder{}
	origTracer, origMeter := initTracer, initMeter
	t.Cleanup(func() { initTracer, initMeter = origTracer, origMeter })
	initTracer = func(context.Context, observability.TracerConfig) (*sdktrace.TracerProvider, error) {
		return sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)), nil
	}
	initMeter = func(context.Context, observability.MeterConfig) (*sdkmetric.MeterProvider, error) {
		return nil, fmt.Errorf("exporter unavailable")
	}

	var out, errOut bytes.Buffer
	code := Execute(context.Background(), []string{"profiles", "--no-color"}, &out, &errOut)
	if code != ExitFailure {
		t.Errorf("expected exit %d, got %d (%s)", ExitFailure, code, errOut.String())
	}
	if !strings.Contains(errOut.String(), "exporter unavailable") {
		t.Errorf("expected meter error, got %q", errOut.String())
	}
	if !rec.closed.Load() {
		t.Error("expected tracer provider to be shut down after meter failure")
	}
}
