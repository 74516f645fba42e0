package security

import (
	"github.com/kbukum/reqkit/errors"
)

// TLSConfig is the file and environment form of a trust policy.
type TLSConfig struct {
	// TrustAll accepts any server certificate. Not recommended outside tests.
	TrustAll bool `yaml:"trust_all" mapstructure:"trust_all"`

	// TrustStore is the path to a PEM bundle or PKCS#12 store.
	TrustStore string `yaml:"trust_store" mapstructure:"trust_store"`

	// TrustStorePassword unlocks a PKCS#12 store.
	TrustStorePassword string `yaml:"trust_store_password" mapstructure:"trust_store_password"`

	// SkipHostnameVerification keeps chain verification but accepts any host.
	SkipHostnameVerification bool `yaml:"skip_hostname_verification" mapstructure:"skip_hostname_verification"`
}

// Build creates the trust policy described by the configuration.
// Returns nil if no trust setting is configured.
func (c *TLSConfig) Build() (*TrustPolicy, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.TrustAll {
		return TrustAll()
	}
	var verifier HostnameVerifier
	if c.SkipHostnameVerification {
		verifier = NoopHostnameVerifier
	}
	return TrustStore(c.TrustStore, c.TrustStorePassword, verifier)
}

// Validate checks that the configuration is consistent.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if c.TrustAll && c.TrustStore != "" {
		return errors.InvalidConfig("security/tls: trust_all and trust_store are mutually exclusive")
	}
	if c.TrustStore == "" && (c.TrustStorePassword != "" || c.SkipHostnameVerification) {
		return errors.InvalidConfig("security/tls: trust_store is required when trust store options are set")
	}
	return nil
}

// IsEnabled returns true if any trust setting is configured.
func (c *TLSConfig) IsEnabled() bool {
	if c == nil {
		return false
	}
	return c.TrustAll || c.TrustStore != "" || c.TrustStorePassword != "" || c.SkipHostnameVerification
}
