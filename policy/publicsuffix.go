package policy

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// OrganizationalDomain returns the organizational domain for the given
// domain: the domain directly under the public suffix. For example:
//   - example.com -> example.com
//   - mail.example.com -> example.com
//   - mail.example.co.uk -> example.co.uk
//
// BIMI uses the organizational domain both as the lookup fallback and as
// the SAN fallback when matching a VMC against a subdomain.
func OrganizationalDomain(domain string) string {
	domain = strings.TrimSuffix(strings.ToLower(domain), ".")
	if domain == "" {
		return ""
	}

	etld1, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		// Covers names like "localhost" or a bare public suffix. Treat the
		// input as its own organizational domain.
		return domain
	}
	return etld1
}

// IsOrganizationalDomain reports whether the domain is an organizational
// domain, i.e. directly below the public suffix.
func IsOrganizationalDomain(domain string) bool {
	d := strings.TrimSuffix(strings.ToLower(domain), ".")
	return OrganizationalDomain(d) == d
}
