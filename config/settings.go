package config

import (
	"sort"

	"github.com/kbukum/reqkit/errors"
	"github.com/kbukum/reqkit/httpclient"
	"github.com/kbukum/reqkit/logger"
	"github.com/kbukum/reqkit/observability"
	"github.com/kbukum/reqkit/validation"
)

// DefaultProfile is used when no profile name is given.
const DefaultProfile = "default"

var environments = []string{"development", "test", "staging", "production"}

// Settings is the top-level reqkit configuration.
//
// Example file:
//
//	name: smoke-tests
//	logging:
//	  level: debug
//	profiles:
//	  default:
//	    timeout: 10s
//	  staging:
//	    headers:
//	      X-Env: staging
//	    auth:
//	      bearer_token: ${TOKEN}
//	    tls:
//	      trust_store: certs/staging.p12
//	      trust_store_password: changeit
type Settings struct {
	Name        string                       `yaml:"name" mapstructure:"name"`
	Environment string                       `yaml:"environment" mapstructure:"environment"`
	Logging     logger.Config                `yaml:"logging" mapstructure:"logging"`
	Tracing     observability.TracerConfig   `yaml:"tracing" mapstructure:"tracing"`
	Metrics     observability.MeterConfig    `yaml:"metrics" mapstructure:"metrics"`
	Profiles    map[string]httpclient.Config `yaml:"profiles" mapstructure:"profiles"`
}

// Defaults returns the settings used for keys absent from every source.
func Defaults(name string) Settings {
	s := Settings{
		Name:        name,
		Environment: "development",
		Tracing:     observability.DefaultTracerConfig(name),
		Metrics:     observability.DefaultMeterConfig(name),
		Profiles:    map[string]httpclient.Config{DefaultProfile: {}},
	}
	s.ApplyDefaults()
	return s
}

// ApplyDefaults fills in zero-value fields.
func (s *Settings) ApplyDefaults() {
	if s.Environment == "" {
		s.Environment = "development"
	}
	s.Logging.ApplyDefaults()

	if s.Tracing.ServiceName == "" {
		s.Tracing.ServiceName = s.Name
	}
	if s.Tracing.Environment == "" {
		s.Tracing.Environment = s.Environment
	}
	if s.Metrics.ServiceName == "" {
		s.Metrics.ServiceName = s.Name
	}
	if s.Metrics.Environment == "" {
		s.Metrics.Environment = s.Environment
	}

	if s.Profiles == nil {
		s.Profiles = make(map[string]httpclient.Config)
	}
	if _, ok := s.Profiles[DefaultProfile]; !ok {
		s.Profiles[DefaultProfile] = httpclient.Config{}
	}
	for name, p := range s.Profiles {
		p.ApplyDefaults()
		s.Profiles[name] = p
	}
}

// Validate checks every section and profile.
func (s *Settings) Validate() error {
	v := validation.New()
	v.Required("name", s.Name)
	v.OneOf("environment", s.Environment, environments)
	v.Merge("logging", s.Logging.Validate())
	v.Merge("tracing", validation.Validate(s.Tracing))
	v.Merge("metrics", validation.Validate(s.Metrics))
	for _, name := range s.ProfileNames() {
		p := s.Profiles[name]
		v.Merge("profiles."+name, p.Validate())
	}
	return v.Validate()
}

// ProfileNames returns the profile names in sorted order.
func (s *Settings) ProfileNames() []string {
	names := make([]string, 0, len(s.Profiles))
	for name := range s.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile returns the named profile, or the default profile for "".
func (s *Settings) Profile(name string) (httpclient.Config, error) {
	if name == "" {
		name = DefaultProfile
	}
	p, ok := s.Profiles[name]
	if !ok {
		return httpclient.Config{}, errors.InvalidConfig("unknown profile "+name).
			WithDetail("profile", name).
			WithDetail("available", s.ProfileNames())
	}
	return p, nil
}
