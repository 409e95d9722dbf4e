package vmc

import (
	"crypto/x509"
	"encoding/asn1"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/synqronlabs/bimi/policy"
)

// PathVerifier validates a certificate path from the leaf to a trust root.
//
// Implementations must require the brand-indicator extended key usage on
// the leaf. Errors returned by a verifier are classified through
// ClassifyPathError by callers that need the typed taxonomy.
type PathVerifier interface {
	VerifyPath(leaf *x509.Certificate, intermediates []*x509.Certificate) error
}

// X509Verifier is the default PathVerifier, built on crypto/x509.
type X509Verifier struct {
	// Roots is the trust anchor pool. When nil, the system pool is used.
	Roots *x509.CertPool

	// PermittedCriticalExtensions are extension OIDs tolerated on the leaf
	// even when marked critical and not understood by crypto/x509. This
	// replaces runtime patching of the validation library: tolerance is
	// explicit per-verifier configuration, never shared global state.
	PermittedCriticalExtensions []asn1.ObjectIdentifier

	// Now supplies the validation time. Defaults to time.Now.
	Now func() time.Time
}

var _ PathVerifier = (*X509Verifier)(nil)

// VerifyPath builds and validates a path from leaf to a trust root and
// requires the brand-indicator extended key usage on the leaf.
func (v *X509Verifier) VerifyPath(leaf *x509.Certificate, intermediates []*x509.Certificate) error {
	now := time.Now()
	if v.Now != nil {
		now = v.Now()
	}

	pool := x509.NewCertPool()
	for _, cert := range intermediates {
		pool.AddCert(cert)
	}

	// crypto/x509 refuses to chain a certificate with critical extensions
	// it does not understand. Strip the explicitly permitted ones.
	if len(v.PermittedCriticalExtensions) > 0 {
		leaf.UnhandledCriticalExtensions = slices.DeleteFunc(
			slices.Clone(leaf.UnhandledCriticalExtensions),
			func(oid asn1.ObjectIdentifier) bool {
				return slices.ContainsFunc(v.PermittedCriticalExtensions, oid.Equal)
			},
		)
	}

	opts := x509.VerifyOptions{
		Roots:         v.Roots,
		Intermediates: pool,
		CurrentTime:   now,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}
	if _, err := leaf.Verify(opts); err != nil {
		return err
	}

	// The brand-indicator EKU is not known to crypto/x509, so it surfaces
	// in UnknownExtKeyUsage.
	if !slices.ContainsFunc(leaf.UnknownExtKeyUsage, OIDExtKeyUsageBrandIndicator.Equal) {
		return ErrMissingBrandEKU
	}

	return nil
}

// BindDomain checks that the leaf certificate is bound to the given domain
// under the BIMI selector convention.
//
// Two independent tests must both succeed: VerifyDomain (the certificate's
// generic hostname verification, failure ErrUnmatchedDomain) and MatchSAN
// (the BIMI selector/domain grammar, failure ErrUnmatchedSAN). The second
// test exists because generic hostname verification does not understand
// the BIMI selector convention.
func BindDomain(leaf *x509.Certificate, domain, selector string, acceptSubdomainFallback bool) error {
	if err := VerifyDomain(leaf, domain, acceptSubdomainFallback); err != nil {
		return err
	}
	return MatchSAN(leaf, domain, selector)
}

// VerifyDomain applies the certificate's own hostname verification to
// domain, retrying against the organizational domain when
// acceptSubdomainFallback is set. Failure is ErrUnmatchedDomain.
func VerifyDomain(leaf *x509.Certificate, domain string, acceptSubdomainFallback bool) error {
	if leaf.VerifyHostname(domain) == nil {
		return nil
	}

	if acceptSubdomainFallback {
		if orgDomain := policy.OrganizationalDomain(domain); orgDomain != domain {
			if leaf.VerifyHostname(orgDomain) == nil {
				return nil
			}
		}
	}

	return fmt.Errorf("%w: %s (valid names include: %s)",
		ErrUnmatchedDomain, domain, strings.Join(leaf.DNSNames, ", "))
}

// MatchSAN partitions the leaf's SAN entries into selector-style entries
// (containing "_bimi") and plain domain entries, and requires either a
// selector-style entry equal to "{selector}._bimi.{domain}" or
// "{selector}._bimi.{orgdomain}", or a plain entry equal to the domain or
// its organizational domain. Failure is ErrUnmatchedSAN.
func MatchSAN(leaf *x509.Certificate, domain, selector string) error {
	orgDomain := policy.OrganizationalDomain(domain)

	var selectorSet, domainSet []string
	for _, san := range leaf.DNSNames {
		if strings.Contains(san, "_bimi") {
			selectorSet = append(selectorSet, san)
		} else {
			domainSet = append(domainSet, san)
		}
	}

	for _, san := range selectorSet {
		if san == policy.QueryName(selector, domain) || san == policy.QueryName(selector, orgDomain) {
			return nil
		}
	}
	for _, san := range domainSet {
		if san == domain || san == orgDomain {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnmatchedSAN, domain)
}
