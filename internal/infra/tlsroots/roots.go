// Package tlsroots builds client TLS configurations that trust the system
// roots plus optional extra CA certificates.
package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound is returned when PEM data holds no certificate.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")

// Pool manages a pool of trusted root certificates.
type Pool struct {
	certPool *x509.CertPool
}

// NewPool creates a pool seeded with the system roots, or an empty pool
// where the system roots are unavailable.
func NewPool() *Pool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	return &Pool{certPool: pool}
}

// NewEmptyPool creates a pool without system roots.
func NewEmptyPool() *Pool {
	return &Pool{certPool: x509.NewCertPool()}
}

// AddCertFile adds every certificate in a PEM file.
func (p *Pool) AddCertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read cert file %s: %w", path, err)
	}
	return p.AddCertPEM(data)
}

// AddCertPEM adds every CERTIFICATE block of pemData; other blocks are
// skipped.
func (p *Pool) AddCertPEM(pemData []byte) error {
	added := 0
	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		p.certPool.AddCert(cert)
		added++
	}

	if added == 0 {
		return ErrNoCertsFound
	}
	return nil
}

// TLSConfig creates a client TLS config using this pool as root CAs.
func (p *Pool) TLSConfig() *tls.Config {
	return &tls.Config{
		RootCAs:    p.certPool,
		MinVersion: tls.VersionTLS12,
	}
}

// ClientConfig returns a TLS config trusting the system roots and, when
// caFile is set, the certificates it contains.
func ClientConfig(caFile string) (*tls.Config, error) {
	p := NewPool()
	if caFile != "" {
		if err := p.AddCertFile(caFile); err != nil {
			return nil, err
		}
	}
	return p.TLSConfig(), nil
}
