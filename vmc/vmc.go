// Package vmc implements Verified Mark Certificate triage and validation
// for BIMI.
//
// A VMC bundle is a PEM concatenation of exactly one leaf certificate and
// zero or more CA certificates. Triage splits the bundle, PathVerifier
// validates the chain with the brand-indicator extended key usage, and
// BindDomain matches the leaf's subject alternative names against the BIMI
// selector/domain grammar. The logotype extension decoder extracts the
// certified indicator hashes, and the SCT decoder parses the embedded
// Certificate-Transparency timestamps.
package vmc

import (
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"math/big"
	"time"
)

// X.509 object identifiers used by VMC validation.
var (
	// OIDExtKeyUsageBrandIndicator is the extended key usage asserted by
	// Verified Mark Certificates (id-kp-BrandIndicatorforMessageIdentification).
	OIDExtKeyUsageBrandIndicator = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 31}

	// OIDLogotype identifies the logotype certificate extension (RFC 3709).
	OIDLogotype = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 12}

	// OIDSCTList identifies the embedded SCT list extension (RFC 6962).
	OIDSCTList = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11129, 2, 4, 2}

	// OIDTrademarkRegistration is the subject attribute carrying the mark's
	// trademark registration number.
	OIDTrademarkRegistration = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 53087, 1, 4}
)

// Certificate triage and validation errors.
var (
	// ErrNoPEMData indicates the fetched bundle contains no PEM blocks.
	ErrNoPEMData = errors.New("vmc: PEM-encoded data not found")

	// ErrBadCertificate indicates a PEM block could not be parsed as a
	// certificate.
	ErrBadCertificate = errors.New("vmc: malformed certificate")

	// ErrNoLeafFound indicates the bundle contains no non-CA certificate.
	ErrNoLeafFound = errors.New("vmc: no VMC found in bundle")

	// ErrMultipleLeaves indicates the bundle contains more than one non-CA
	// certificate.
	ErrMultipleLeaves = errors.New("vmc: more than one VMC found in bundle")

	// ErrMissingBrandEKU indicates the leaf does not assert the
	// brand-indicator extended key usage, so it is not a VMC.
	ErrMissingBrandEKU = errors.New("vmc: leaf certificate lacks the BIMI extended key usage")

	// ErrUnmatchedDomain indicates the leaf does not certify the domain
	// under validation.
	ErrUnmatchedDomain = errors.New("vmc: certificate is not valid for domain")

	// ErrUnmatchedSAN indicates no subject alternative name matches the
	// BIMI selector/domain grammar.
	ErrUnmatchedSAN = errors.New("vmc: domain does not match any SAN")

	// ErrCriticalLogotype indicates the logotype extension is marked
	// critical, which BIMI forbids.
	ErrCriticalLogotype = errors.New("vmc: logotype extension is critical")

	// ErrNoLogotype indicates the leaf carries no logotype extension.
	ErrNoLogotype = errors.New("vmc: no logotype extension found")

	// ErrNoSupportedImage indicates the logotype extension has no direct
	// subject logo.
	ErrNoSupportedImage = errors.New("vmc: no supported image found")

	// ErrNoImageFound indicates the subject logo carries no image sequence.
	ErrNoImageFound = errors.New("vmc: no image found")

	// ErrNoHashFound indicates the logotype extension yields no usable
	// hash entry.
	ErrNoHashFound = errors.New("vmc: no hash found")

	// ErrHashMismatch indicates the fetched indicator is not byte-equal to
	// the image certified by the VMC.
	ErrHashMismatch = errors.New("vmc: indicator does not match certified image hash")

	// ErrNoSCTFound indicates the leaf carries no SCT list while CT
	// validation is required.
	ErrNoSCTFound = errors.New("vmc: no signed certificate timestamp found")

	// ErrInvalidSCT indicates no structurally valid SCT was found.
	ErrInvalidSCT = errors.New("vmc: invalid signed certificate timestamp")

	// ErrSCTFutureTimestamp indicates an SCT claims a timestamp in the
	// future.
	ErrSCTFutureTimestamp = errors.New("vmc: SCT timestamp is in the future")
)

// Path validation failures. VerifyPath classifies delegate error text into
// these sentinels; ErrPathValidation is the fallback carrying the original
// text verbatim.
var (
	ErrUnsupportedSignatureAlgorithm = errors.New("vmc: unsupported signature algorithm")
	ErrSignatureNotVerifiable        = errors.New("vmc: signature could not be verified")
	ErrCertNotYetValid               = errors.New("vmc: certificate is not yet valid")
	ErrCertExpired                   = errors.New("vmc: certificate has expired")
	ErrNoRevocationInfo              = errors.New("vmc: no revocation information available")
	ErrRevocationCheckFailed         = errors.New("vmc: revocation check failed")
	ErrIssuerMismatch                = errors.New("vmc: issuer name mismatch")
	ErrAnyPolicyMapping              = errors.New("vmc: anyPolicy mapping present")
	ErrNotCA                         = errors.New("vmc: certificate in path is not a CA")
	ErrPathLengthExceeded            = errors.New("vmc: path length constraint exceeded")
	ErrNotAllowedToSign              = errors.New("vmc: certificate not allowed to sign")
	ErrUnsupportedCriticalExtension  = errors.New("vmc: unsupported critical extension")
	ErrNoValidPolicySet              = errors.New("vmc: no valid policy set")
	ErrNoMatchingIssuer              = errors.New("vmc: no matching issuer found")
	ErrPathValidation                = errors.New("vmc: path validation failed")
)

// VMC summarizes the identifying fields of a validated Verified Mark
// Certificate.
type VMC struct {
	// SerialNumber is the certificate serial number.
	SerialNumber *big.Int

	// Issuer is the issuing organization name.
	Issuer string

	// OrganizationName is the subject organization name.
	OrganizationName string

	// TrademarkRegistration is the registration number of the certified
	// mark, when present in the subject.
	TrademarkRegistration string

	// ValidFrom and ExpiresOn bound the certificate validity window.
	ValidFrom time.Time
	ExpiresOn time.Time

	// CertifiedDomains are the subject alternative names.
	CertifiedDomains []string
}

// Summarize extracts the VMC summary fields from a leaf certificate.
func Summarize(leaf *x509.Certificate) *VMC {
	v := &VMC{
		SerialNumber:     leaf.SerialNumber,
		ValidFrom:        leaf.NotBefore,
		ExpiresOn:        leaf.NotAfter,
		CertifiedDomains: leaf.DNSNames,
	}
	if len(leaf.Issuer.Organization) > 0 {
		v.Issuer = leaf.Issuer.Organization[0]
	}
	if len(leaf.Subject.Organization) > 0 {
		v.OrganizationName = leaf.Subject.Organization[0]
	}
	for _, name := range leaf.Subject.Names {
		if name.Type.Equal(OIDTrademarkRegistration) {
			if s, ok := name.Value.(string); ok {
				v.TrademarkRegistration = s
			}
		}
	}
	return v
}
