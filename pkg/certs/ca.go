package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"
)

const (
	// CAValidity is how long a generated root CA is valid for.
	CAValidity = 10 * 365 * 24 * time.Hour

	// LeafValidity is the maximum validity of an issued leaf certificate.
	LeafValidity = 825 * 24 * time.Hour

	// RenewalThreshold is how close to expiry a leaf must be before the
	// engine re-issues it.
	RenewalThreshold = 30 * 24 * time.Hour
)

// newSerial returns a cryptographically random 128-bit serial number with
// the high bit cleared, as x509.CreateCertificate requires a positive value.
func newSerial() (*big.Int, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 127))
	if err != nil {
		return nil, fmt.Errorf("generate serial number: %w", err)
	}
	return serial, nil
}

// GenerateCA creates a new self-signed root CA certificate and key.
func GenerateCA(name string) (certDER []byte, key *ecdsa.PrivateKey, cert *x509.Certificate, err error) {
	key, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("generate ca key: %w", err)
	}

	serial, err := newSerial()
	if err != nil {
		return nil, nil, nil, err
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"roost"},
			CommonName:   fmt.Sprintf("roost %s CA", name),
		},
		NotBefore:             now,
		NotAfter:              now.Add(CAValidity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		IsCA:                  true,
		BasicConstraintsValid: true,
		MaxPathLen:            0,
		MaxPathLenZero:        true,
		SubjectKeyId:          subjectKeyID(&key.PublicKey),
	}

	certDER, err = x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create ca certificate: %w", err)
	}

	cert, err = x509.ParseCertificate(certDER)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse ca certificate: %w", err)
	}

	return certDER, key, cert, nil
}

// subjectKeyID derives a SubjectKeyIdentifier from the public key: the last
// 20 bytes of its uncompressed point encoding (not a SHA-1 hash of it).
func subjectKeyID(pub *ecdsa.PublicKey) []byte {
	raw := elliptic.Marshal(pub.Curve, pub.X, pub.Y)
	if len(raw) > 20 {
		return raw[len(raw)-20:]
	}
	return raw
}

// IssueLeaf signs a new leaf certificate for domain using the given CA.
// sanNames should come from types.Domain.SANPolicy().
func IssueLeaf(domain string, sanNames []string, caCert *x509.Certificate, caKey *ecdsa.PrivateKey) (certDER []byte, key *ecdsa.PrivateKey, cert *x509.Certificate, err error) {
	key, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("generate leaf key: %w", err)
	}

	serial, err := newSerial()
	if err != nil {
		return nil, nil, nil, err
	}

	validity := LeafValidity
	if remaining := time.Until(caCert.NotAfter); remaining < validity {
		validity = remaining
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName: domain,
		},
		NotBefore:             now,
		NotAfter:              now.Add(validity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		DNSNames:              sanNames,
	}

	certDER, err = x509.CreateCertificate(rand.Reader, template, caCert, &key.PublicKey, caKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create leaf certificate: %w", err)
	}

	cert, err = x509.ParseCertificate(certDER)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse leaf certificate: %w", err)
	}

	return certDER, key, cert, nil
}

// NeedsRenewal reports whether cert is within RenewalThreshold of expiry.
func NeedsRenewal(cert *x509.Certificate) bool {
	if cert == nil {
		return true
	}
	return time.Until(cert.NotAfter) < RenewalThreshold
}
