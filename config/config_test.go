package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/reqkit/errors"
	"github.com/kbukum/reqkit/logger"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// unsetEnv clears key for the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func quiet() LoaderOption {
	return WithLogger(logger.Nop())
}

const settingsYAML = `
name: smoke-tests
environment: staging
logging:
  level: warn
  format: json
profiles:
  default:
    timeout: 10s
  staging:
    user_agent: smoke/1.0
    disable_redirects: true
    headers:
      X-Env: staging
    cookies:
      session: abc
    auth:
      username: alice
      password: s3cret
      preemptive: true
`

func TestDefaults(t *testing.T) {
	s := Defaults("reqkit")
	if err := s.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if s.Logging.Level != "info" {
		t.Errorf("expected info level, got %q", s.Logging.Level)
	}
	if s.Tracing.ServiceName != "reqkit" || s.Metrics.ServiceName != "reqkit" {
		t.Errorf("expected service names from app name, got %q/%q", s.Tracing.ServiceName, s.Metrics.ServiceName)
	}
	p, err := s.Profile("")
	if err != nil {
		t.Fatalf("expected default profile, got %v", err)
	}
	if p.Timeout != 30*time.Second {
		t.Errorf("expected 30s default timeout, got %v", p.Timeout)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "reqkit.yml", settingsYAML)

	s, err := Load("reqkit", WithConfigFile(path), quiet())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.Name != "smoke-tests" || s.Environment != "staging" {
		t.Errorf("unexpected identity %q/%q", s.Name, s.Environment)
	}
	if s.Logging.Level != "warn" || s.Logging.Format != "json" {
		t.Errorf("unexpected logging %+v", s.Logging)
	}
	if s.Tracing.Endpoint != "localhost:4318" {
		t.Errorf("expected tracing default endpoint, got %q", s.Tracing.Endpoint)
	}

	def, _ := s.Profile(DefaultProfile)
	if def.Timeout != 10*time.Second {
		t.Errorf("expected 10s default profile timeout, got %v", def.Timeout)
	}

	staging, err := s.Profile("staging")
	if err != nil {
		t.Fatalf("expected staging profile: %v", err)
	}
	if staging.Timeout != 30*time.Second {
		t.Errorf("expected staging timeout default, got %v", staging.Timeout)
	}
	if staging.UserAgent != "smoke/1.0" || !staging.DisableRedirects {
		t.Errorf("unexpected staging profile %+v", staging)
	}
	if staging.Headers["x-env"] != "staging" {
		t.Errorf("expected x-env header, got %v", staging.Headers)
	}
	if staging.Cookies["session"] != "abc" {
		t.Errorf("expected session cookie, got %v", staging.Cookies)
	}
	if staging.Auth.Username != "alice" || !staging.Auth.Preemptive {
		t.Errorf("unexpected auth %+v", staging.Auth)
	}

	if got := s.ProfileNames(); len(got) != 2 || got[0] != "default" || got[1] != "staging" {
		t.Errorf("unexpected profile names %v", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "reqkit.yml", settingsYAML)
	t.Setenv("REQKIT_LOGGING_LEVEL", "debug")
	t.Setenv("REQKIT_PROFILES_STAGING_TIMEOUT", "5s")
	t.Setenv("REQKIT_PROFILES_STAGING_TLS_TRUST_ALL", "true")
	t.Setenv("REQKIT_PROFILES_DEFAULT_AUTH_BEARER_TOKEN", "tok")
	t.Setenv("REQKIT_TRACING_SAMPLE_RATE", "0.25")

	s, err := Load("reqkit", WithConfigFile(path), quiet())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.Logging.Level != "debug" {
		t.Errorf("expected env to override logging level, got %q", s.Logging.Level)
	}
	if s.Tracing.SampleRate != 0.25 {
		t.Errorf("expected sample rate 0.25, got %v", s.Tracing.SampleRate)
	}
	staging, _ := s.Profile("staging")
	if staging.Timeout != 5*time.Second {
		t.Errorf("expected 5s from env, got %v", staging.Timeout)
	}
	if !staging.TLS.TrustAll {
		t.Error("expected trust_all from env")
	}
	def, _ := s.Profile("")
	if def.Auth.BearerToken != "tok" {
		t.Errorf("expected bearer token from env, got %q", def.Auth.BearerToken)
	}
}

func TestLoad_EnvWithoutFile(t *testing.T) {
	t.Setenv("REQKIT_NAME", "env-only")
	t.Setenv("REQKIT_PROFILES_DEFAULT_USER_AGENT", "env/1.0")

	s, err := Load("reqkit", WithFileSystem(&mockFS{}), quiet())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Name != "env-only" {
		t.Errorf("expected name from env, got %q", s.Name)
	}
	if p, _ := s.Profile(""); p.UserAgent != "env/1.0" {
		t.Errorf("expected user agent from env, got %q", p.UserAgent)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	unsetEnv(t, "REQKIT_ENVIRONMENT")
	path := writeFile(t, "reqkit.yml", "name: dotenv\n")
	envPath := writeFile(t, ".env", "REQKIT_ENVIRONMENT=production\n")

	s, err := Load("reqkit", WithConfigFile(path), WithEnvFile(envPath), quiet())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Environment != "production" {
		t.Errorf("expected environment from .env, got %q", s.Environment)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"invalid yaml", "profiles: [unclosed", "read config file"},
		{"invalid profile", "profiles:\n  bad:\n    timeout: -1s\n", "profiles.bad.timeout"},
		{"invalid environment", "environment: moon\n", "environment"},
		{"invalid logging", "logging:\n  level: loud\n", "logging"},
		{"tls conflict", "profiles:\n  x:\n    tls:\n      trust_all: true\n      trust_store: a.pem\n", "profiles.x.tls"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "reqkit.yml", tt.content)
			_, err := Load("reqkit", WithConfigFile(path), quiet())
			if !errors.IsInvalidConfig(err) {
				t.Fatalf("expected INVALID_CONFIG, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in %v", tt.want, err)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load("reqkit", WithConfigFile("/nonexistent/reqkit.yml"), quiet())
	if !errors.IsInvalidConfig(err) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestLoadConfig_Target(t *testing.T) {
	type plain struct {
		Value string `mapstructure:"value"`
	}
	if err := LoadConfig("reqkit", plain{}, WithFileSystem(&mockFS{}), quiet()); !errors.IsInvalidConfig(err) {
		t.Errorf("expected non-pointer target to fail, got %v", err)
	}

	t.Setenv("REQKIT_VALUE", "from-env")
	cfg := plain{Value: "default"}
	if err := LoadConfig("reqkit", &cfg, WithFileSystem(&mockFS{}), quiet()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Value != "from-env" {
		t.Errorf("expected env value, got %q", cfg.Value)
	}
}

func TestProfile_Unknown(t *testing.T) {
	s := Defaults("reqkit")
	_, err := s.Profile("nope")
	if !errors.IsInvalidConfig(err) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestResolverWithMockFS(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string]bool
		wantConfig string
		wantEnv    string
	}{
		{"nothing", nil, "", ""},
		{"working dir", map[string]bool{"./reqkit.yml": true, "./.env": true}, "./reqkit.yml", "./.env"},
		{"yaml extension", map[string]bool{"./config/reqkit.yaml": true}, "./config/reqkit.yaml", ""},
		{"dot file", map[string]bool{"./.reqkit.yml": true, "./config/.env.reqkit": true}, "./.reqkit.yml", "./config/.env.reqkit"},
		{"user dir", map[string]bool{filepath.Join("/home/u/.config", "reqkit", "config.yml"): true}, filepath.Join("/home/u/.config", "reqkit", "config.yml"), ""},
		{"named env first", map[string]bool{"./.env": true, "./.env.reqkit": true}, "", "./.env.reqkit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &Resolver{FileSystem: &mockFS{files: tt.files}}
			files := resolver.ResolveFiles("reqkit", LoaderConfig{})
			if files.ConfigFile != tt.wantConfig {
				t.Errorf("expected config %q, got %q", tt.wantConfig, files.ConfigFile)
			}
			if files.EnvFile != tt.wantEnv {
				t.Errorf("expected env %q, got %q", tt.wantEnv, files.EnvFile)
			}
		})
	}
}

func TestResolverExplicitPaths(t *testing.T) {
	resolver := &Resolver{FileSystem: &mockFS{files: map[string]bool{"./reqkit.yml": true}}}
	files := resolver.ResolveFiles("reqkit", LoaderConfig{ConfigFile: "/etc/reqkit.yml", EnvFile: "/etc/reqkit.env"})
	if files.ConfigFile != "/etc/reqkit.yml" || files.EnvFile != "/etc/reqkit.env" {
		t.Errorf("expected explicit paths, got %+v", files)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }
func (m *mockFS) UserConfigDir() (string, error) { return "/home/u/.config", nil }

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	l := logger.Nop()
	WithFileSystem(fs)(&lc)
	WithConfigFile("/path/to/reqkit.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	WithLogger(l)(&lc)

	if lc.FileSystem != fs || lc.Logger != l {
		t.Error("expected FileSystem and Logger to be set")
	}
	if lc.ConfigFile != "/path/to/reqkit.yml" || lc.EnvFile != "/path/to/.env" {
		t.Errorf("unexpected paths %+v", lc)
	}
}
