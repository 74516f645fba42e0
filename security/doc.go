// Package security provides TLS trust policies for outbound HTTPS requests.
//
// A TrustPolicy decides which server certificates a client accepts. Two
// policies exist: trust-all, which accepts any certificate and skips hostname
// checks, and trust-store, which accepts only chains rooted in certificates
// loaded from a PEM bundle or a password-protected PKCS#12 store.
//
// # Trust store
//
//	policy, err := security.TrustStore("/etc/reqkit/truststore.p12", "changeit", nil)
//	if err != nil {
//	    return err
//	}
//	policy.Apply(transport)
//
// # Configuration
//
//	cfg := security.TLSConfig{
//	    TrustStore:         "/etc/reqkit/ca.pem",
//	    TrustStorePassword: "",
//	}
//
//	policy, err := cfg.Build()
package security
