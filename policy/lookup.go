package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/synqronlabs/bimi/dns"
)

// Lookup looks up and parses the BIMI TXT record for the given domain and
// selector. An empty selector means DefaultSelector.
//
// The fallback algorithm of draft-blank-ietf-bimi appendix B is applied:
// the record is first queried at "{selector}._bimi.{domain}". If the name
// does not exist or the record is malformed, the organizational domain
// (Public Suffix List aware) is tried once, at
// "{selector}._bimi.{orgdomain}". When the fallback also fails, the error
// from the first lookup is surfaced, not the fallback's.
//
// The returned record carries the domain and selector actually used, which
// after fallback may differ from the input domain.
func Lookup(ctx context.Context, resolver dns.Resolver, domain, selector string) (*Record, error) {
	rec, _, err := lookup(ctx, resolver, domain, selector, false)
	return rec, err
}

// LookupCollect is like Lookup but collects record format violations
// instead of failing on the first one. See ParseRecordCollect.
func LookupCollect(ctx context.Context, resolver dns.Resolver, domain, selector string) (*Record, []error, error) {
	return lookup(ctx, resolver, domain, selector, true)
}

func lookup(ctx context.Context, resolver dns.Resolver, domain, selector string, collect bool) (*Record, []error, error) {
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain == "" {
		return nil, nil, fmt.Errorf("%w: empty domain", ErrSyntax)
	}

	selector = strings.TrimSpace(selector)
	if selector == "" {
		selector = DefaultSelector
	}

	rec, collected, err := lookupRecord(ctx, resolver, domain, selector, collect)
	if err == nil || !fallbackEligible(err) {
		return rec, collected, err
	}
	initialErr := err

	orgDomain := OrganizationalDomain(domain)
	if orgDomain == "" || orgDomain == domain {
		// Already at the organizational domain, no fallback.
		return nil, collected, initialErr
	}

	rec, collected, err = lookupRecord(ctx, resolver, orgDomain, selector, collect)
	if err != nil {
		// If the fallback fails too, surface the original error.
		return nil, collected, initialErr
	}
	return rec, collected, nil
}

// fallbackEligible reports whether the error from the first lookup warrants
// a retry at the organizational domain. Absent and malformed records do;
// an explicit decline and DNS trouble do not.
func fallbackEligible(err error) bool {
	return errors.Is(err, ErrNoPolicy) || errors.Is(err, ErrSyntax)
}

// lookupRecord performs the DNS lookup and parse for a single name.
func lookupRecord(ctx context.Context, resolver dns.Resolver, domain, selector string, collect bool) (*Record, []error, error) {
	name := QueryName(selector, domain)
	if !strings.HasSuffix(name, ".") {
		name += "."
	}

	result, err := resolver.LookupTXT(ctx, name)
	if err != nil {
		if dns.IsNotFound(err) {
			return nil, nil, ErrNoPolicy
		}
		if dns.IsTemporary(err) {
			return nil, nil, fmt.Errorf("%w: %v", ErrDNS, err)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	// Multiple TXT strings in one answer are concatenated in record order
	// with no separator.
	txt := strings.Join(result.Records, "")

	if collect {
		return ParseRecordCollect(txt, domain, selector)
	}
	rec, err := ParseRecord(txt, domain, selector)
	return rec, nil, err
}
