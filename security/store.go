package security

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pkcs12 "software.sslmate.com/src/go-pkcs12"

	"github.com/kbukum/reqkit/errors"
)

// StoreFormat identifies how a trust store file is encoded.
type StoreFormat string

const (
	FormatPEM    StoreFormat = "pem"
	FormatPKCS12 StoreFormat = "pkcs12"
)

var pemMarker = []byte("-----BEGIN")

// DetectFormat guesses the store format from the file extension, falling back
// to the content.
func DetectFormat(path string, data []byte) StoreFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".p12", ".pfx":
		return FormatPKCS12
	case ".pem", ".crt", ".cer":
		return FormatPEM
	}
	if bytes.Contains(data, pemMarker) {
		return FormatPEM
	}
	return FormatPKCS12
}

// LoadTrustStore reads the certificates of a trust store. password is only
// used for PKCS#12 stores.
func LoadTrustStore(path, password string) ([]*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.TLSConfiguration("failed to read trust store", err).
			WithDetail("path", path)
	}

	format := DetectFormat(path, data)
	var certs []*x509.Certificate
	switch format {
	case FormatPEM:
		certs, err = parsePEMCertificates(data)
	default:
		certs, err = pkcs12.DecodeTrustStore(data, password)
	}
	if err != nil {
		return nil, errors.TLSConfiguration("failed to decode trust store", err).
			WithDetail("path", path).
			WithDetail("format", string(format))
	}
	if len(certs) == 0 {
		return nil, errors.TLSConfiguration("trust store contains no certificates", nil).
			WithDetail("path", path)
	}
	return certs, nil
}

func parsePEMCertificates(data []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse certificate %d: %w", len(certs)+1, err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 && bytes.Contains(data, pemMarker) {
		return nil, fmt.Errorf("malformed PEM block")
	}
	return certs, nil
}
