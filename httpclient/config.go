package httpclient

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/kbukum/reqkit/security"
	"github.com/kbukum/reqkit/validation"
)

const (
	defaultTimeout = 30 * time.Second
)

// Config is a reusable request profile, typically loaded from a file by the
// config package and applied with WithConfig.
type Config struct {
	// BaseURL is the prefix for relative targets such as "/health".
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,http_url"`

	// Timeout bounds each execution. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// UserAgent overrides the default User-Agent.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// DisableRedirects returns 3xx responses instead of following them.
	DisableRedirects bool `yaml:"disable_redirects" mapstructure:"disable_redirects"`

	// Headers are sent with every request, in name order.
	Headers map[string]string `yaml:"headers" mapstructure:"headers" validate:"dive,keys,header_name,endkeys"`

	// Cookies are sent with every request.
	Cookies map[string]string `yaml:"cookies" mapstructure:"cookies"`

	// Auth configures credentials.
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// TLS configures the trust policy.
	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// AuthConfig configures request authentication.
type AuthConfig struct {
	// Username and Password are Basic credentials.
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	// Preemptive sends Basic credentials without waiting for a challenge.
	Preemptive bool `yaml:"preemptive" mapstructure:"preemptive"`
	// BearerToken is sent as "Authorization: Bearer <token>".
	BearerToken string `yaml:"bearer_token" mapstructure:"bearer_token"`
}

// hasBasic reports whether the profile sets Basic credentials. A profile has
// no way to tell an unset password from an empty one, so either field counts.
func (a AuthConfig) hasBasic() bool {
	return a.Username != "" || a.Password != ""
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	v := validation.New()
	if err := validation.Validate(c); err != nil {
		v.Merge("", err)
	}
	v.Custom(!c.Auth.Preemptive || c.Auth.hasBasic(), "auth.preemptive", "requires auth.username or auth.password")
	v.Merge("tls", c.TLS.Validate())
	return v.Validate()
}

// WithConfig applies a profile. Options given after it override its values;
// headers from the profile and later WithHeader calls are both sent.
func WithConfig(cfg Config) Option {
	return func(s *settings) error {
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return err
		}

		opts := []Option{WithTimeout(cfg.Timeout)}
		if cfg.UserAgent != "" {
			opts = append(opts, WithUserAgent(cfg.UserAgent))
		}
		if cfg.DisableRedirects {
			opts = append(opts, WithDisabledRedirects())
		}
		for _, name := range sortedKeys(cfg.Headers) {
			opts = append(opts, WithHeader(name, cfg.Headers[name]))
		}
		for _, name := range sortedKeys(cfg.Cookies) {
			opts = append(opts, WithCookie(name, cfg.Cookies[name]))
		}
		if cfg.Auth.hasBasic() {
			opts = append(opts, WithBasicAuth(cfg.Auth.Username, cfg.Auth.Password))
		}
		if cfg.Auth.Preemptive {
			opts = append(opts, WithPreemptiveAuth())
		}
		if cfg.Auth.BearerToken != "" {
			opts = append(opts, WithBearerAuth(cfg.Auth.BearerToken))
		}

		policy, err := cfg.TLS.Build()
		if err != nil {
			return err
		}
		if policy != nil {
			opts = append(opts, WithTrustPolicy(policy))
		}

		for _, opt := range opts {
			if err := opt(s); err != nil {
				return err
			}
		}
		return nil
	}
}

// ResolveURL joins a relative target to BaseURL. Targets with a scheme, and
// all targets when BaseURL is empty, are returned unchanged.
func (c *Config) ResolveURL(target string) string {
	if c.BaseURL == "" {
		return target
	}
	if u, err := url.Parse(target); err == nil && u.Scheme != "" {
		return target
	}
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(target, "/")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
