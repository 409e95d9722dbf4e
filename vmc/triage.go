package vmc

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// Triage splits a PEM bundle into exactly one leaf certificate and zero or
// more intermediates.
//
// Certificates flagged as CA go to the intermediates pool; the first non-CA
// certificate is the candidate leaf. A second non-CA certificate is a hard
// failure (ErrMultipleLeaves), and a bundle with no non-CA certificate
// fails with ErrNoLeafFound.
func Triage(bundle []byte) (leaf *x509.Certificate, intermediates []*x509.Certificate, err error) {
	rest := bundle
	sawPEM := false

	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		sawPEM = true

		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrBadCertificate, err)
		}

		if cert.IsCA {
			intermediates = append(intermediates, cert)
			continue
		}

		if leaf != nil {
			return nil, nil, ErrMultipleLeaves
		}
		leaf = cert
	}

	if !sawPEM {
		return nil, nil, ErrNoPEMData
	}
	if leaf == nil {
		return nil, nil, ErrNoLeafFound
	}

	return leaf, intermediates, nil
}
