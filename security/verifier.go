package security

import (
	"crypto/x509"
)

// HostnameVerifier checks that leaf is acceptable for host after the chain
// has been verified against the trust store. host is empty when the dialled
// name is unknown.
type HostnameVerifier func(host string, leaf *x509.Certificate) error

// DefaultHostnameVerifier matches host against the certificate's DNS and IP
// subject alternative names.
func DefaultHostnameVerifier(host string, leaf *x509.Certificate) error {
	if host == "" {
		return nil
	}
	return leaf.VerifyHostname(host)
}

// NoopHostnameVerifier accepts any host.
func NoopHostnameVerifier(string, *x509.Certificate) error {
	return nil
}
