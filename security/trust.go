package security

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"time"
)

// PolicyKind names the behaviour of a TrustPolicy.
type PolicyKind string

const (
	KindTrustAll   PolicyKind = "trust-all"
	KindTrustStore PolicyKind = "trust-store"
)

// TrustPolicy decides which server certificates are accepted.
// A policy is immutable and safe for concurrent use.
type TrustPolicy struct {
	kind     PolicyKind
	roots    *x509.CertPool
	verifier HostnameVerifier
	source   string
}

// TrustAll returns a policy accepting any server certificate with hostname
// verification disabled.
func TrustAll() (*TrustPolicy, error) {
	return &TrustPolicy{kind: KindTrustAll, verifier: NoopHostnameVerifier}, nil
}

// TrustStore returns a policy accepting only chains rooted in the certificates
// of the store at path. A nil verifier means DefaultHostnameVerifier.
func TrustStore(path, password string, verifier HostnameVerifier) (*TrustPolicy, error) {
	certs, err := LoadTrustStore(path, password)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	for _, c := range certs {
		pool.AddCert(c)
	}
	p := NewTrustPolicy(pool, verifier)
	p.source = path
	return p, nil
}

// NewTrustPolicy builds a trust-store policy from an existing pool.
func NewTrustPolicy(roots *x509.CertPool, verifier HostnameVerifier) *TrustPolicy {
	if verifier == nil {
		verifier = DefaultHostnameVerifier
	}
	return &TrustPolicy{kind: KindTrustStore, roots: roots, verifier: verifier}
}

// Kind reports the policy kind.
func (p *TrustPolicy) Kind() PolicyKind { return p.kind }

// Source is the trust store path, empty for trust-all and pool-backed policies.
func (p *TrustPolicy) Source() string { return p.source }

func (p *TrustPolicy) String() string {
	if p.source != "" {
		return fmt.Sprintf("%s(%s)", p.kind, p.source)
	}
	return string(p.kind)
}

// TLSConfig returns a client configuration enforcing the policy. Hostnames
// are checked against the negotiated server name.
func (p *TrustPolicy) TLSConfig() *tls.Config {
	return p.ClientConfig("")
}

// ClientConfig returns a client configuration enforcing the policy for
// connections to host.
func (p *TrustPolicy) ClientConfig(host string) *tls.Config {
	cfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		// Verification runs in VerifyConnection so the hostname check can be swapped.
		InsecureSkipVerify: true, //nolint:gosec
	}
	if p.kind == KindTrustStore {
		cfg.ServerName = host
		cfg.VerifyConnection = p.verifyConnection(host)
	}
	return cfg
}

// Apply installs the policy on t. Direct HTTPS dials learn the target host
// from the dial address so IP targets are verified by name as well.
func (p *TrustPolicy) Apply(t *http.Transport) {
	t.TLSClientConfig = p.TLSConfig()
	if p.kind != KindTrustStore {
		return
	}
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	t.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		d := &tls.Dialer{NetDialer: dialer, Config: p.ClientConfig(host)}
		return d.DialContext(ctx, network, addr)
	}
}

func (p *TrustPolicy) verifyConnection(host string) func(tls.ConnectionState) error {
	return func(cs tls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return fmt.Errorf("security/tls: server presented no certificate")
		}
		leaf := cs.PeerCertificates[0]
		intermediates := x509.NewCertPool()
		for _, c := range cs.PeerCertificates[1:] {
			intermediates.AddCert(c)
		}
		if _, err := leaf.Verify(x509.VerifyOptions{
			Roots:         p.roots,
			Intermediates: intermediates,
		}); err != nil {
			return fmt.Errorf("security/tls: untrusted certificate: %w", err)
		}
		name := host
		if name == "" {
			name = cs.ServerName
		}
		if err := p.verifier(name, leaf); err != nil {
			return fmt.Errorf("security/tls: hostname verification failed: %w", err)
		}
		return nil
	}
}
