// Package policy implements BIMI assertion record lookup and parsing.
//
// A BIMI policy is published as a DNS TXT record at
// "{selector}._bimi.{domain}". Lookup queries the record with a fallback to
// the organizational domain (determined using the Public Suffix List), and
// ParseRecord applies the BIMI tag grammar and semantic rules.
package policy

import (
	"errors"
)

// Current version token and default selector per draft-blank-ietf-bimi.
const (
	// Version is the only supported value of the "v=" tag.
	Version = "BIMI1"

	// DefaultSelector is used when the caller provides no selector.
	DefaultSelector = "default"
)

// BIMI lookup and parsing errors.
var (
	// ErrNoPolicy indicates the domain publishes no BIMI record at all.
	// This is a valid outcome, not a failure.
	ErrNoPolicy = errors.New("policy: no BIMI DNS record found")

	// ErrDeclined indicates the domain explicitly declines BIMI by
	// publishing a record with empty "l=" and "a=" tags.
	ErrDeclined = errors.New("policy: domain declines BIMI participation")

	// ErrSyntax indicates the BIMI record violates the tag grammar or the
	// semantic rules (unknown tags, missing required tags, bad version).
	ErrSyntax = errors.New("policy: malformed BIMI DNS record")

	// ErrDNS indicates a DNS lookup error occurred. A later retry may
	// result in a conclusion.
	ErrDNS = errors.New("policy: DNS lookup error")
)

// Record is a parsed BIMI assertion record.
//
// Example record:
//
//	v=BIMI1; l=https://example.com/logo.svg; a=https://example.com/vmc.pem
type Record struct {
	// Domain is the domain the record was found at. After organizational
	// domain fallback this may differ from the domain the caller asked for.
	Domain string

	// Selector is the selector actually used for the lookup.
	Selector string

	// Location is the value of the "l=" tag: the URI of the brand
	// indicator image.
	Location string

	// AuthorityEvidenceLocation is the value of the "a=" tag: the URI of
	// the Verified Mark Certificate, if published.
	AuthorityEvidenceLocation string
}

// HasIndicator reports whether the record names an indicator location.
func (r *Record) HasIndicator() bool {
	return r.Location != ""
}

// HasAuthorityEvidence reports whether the record names a VMC location.
func (r *Record) HasAuthorityEvidence() bool {
	return r.AuthorityEvidenceLocation != ""
}

// String returns the record formatted for DNS TXT.
func (r Record) String() string {
	s := "v=" + Version + "; l=" + r.Location
	if r.AuthorityEvidenceLocation != "" {
		s += "; a=" + r.AuthorityEvidenceLocation
	}
	return s
}

// QueryName returns the DNS TXT query name for the given selector and domain.
func QueryName(selector, domain string) string {
	return selector + "._bimi." + domain
}
