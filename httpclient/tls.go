package httpclient

import (
	"github.com/kbukum/reqkit/security"
)

// WithTrustAllCertificates accepts any server certificate and disables
// hostname verification. Replaces any earlier trust option.
func WithTrustAllCertificates() Option {
	return func(s *settings) error {
		p, err := security.TrustAll()
		if err != nil {
			return err
		}
		s.trust = p
		return nil
	}
}

// WithTrustStore accepts only server chains rooted in the certificates of the
// PEM or PKCS#12 store at path. verifier defaults to
// security.DefaultHostnameVerifier. Replaces any earlier trust option.
func WithTrustStore(path, password string, verifier ...security.HostnameVerifier) Option {
	return func(s *settings) error {
		var v security.HostnameVerifier
		if len(verifier) > 0 {
			v = verifier[0]
		}
		p, err := security.TrustStore(path, password, v)
		if err != nil {
			return err
		}
		s.trust = p
		return nil
	}
}

// WithTrustPolicy installs a prepared trust policy. A nil policy clears any
// earlier trust option.
func WithTrustPolicy(p *security.TrustPolicy) Option {
	return func(s *settings) error {
		s.trust = p
		return nil
	}
}
