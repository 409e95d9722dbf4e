package dns

import (
	"context"
	"slices"
)

// MockResolver is a Resolver used for testing.
// Set TXT records in the TXT field, which maps FQDNs (with trailing dot)
// to the TXT strings returned for that name.
type MockResolver struct {
	TXT map[string][]string

	// Fail contains names that will return a temporary error (SERVFAIL).
	// Names must be FQDNs with trailing dot.
	Fail []string

	// Timeout contains names that will return a timeout error.
	// Names must be FQDNs with trailing dot.
	Timeout []string
}

var _ Resolver = MockResolver{}

// ensureFQDN ensures the name ends with a dot.
func ensureFQDN(name string) string {
	if len(name) == 0 || name[len(name)-1] != '.' {
		return name + "."
	}
	return name
}

// LookupTXT returns the configured TXT records for the given name.
func (r MockResolver) LookupTXT(ctx context.Context, name string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	fqdn := ensureFQDN(name)

	if slices.Contains(r.Fail, fqdn) {
		return Result{}, ErrServFail
	}
	if slices.Contains(r.Timeout, fqdn) {
		return Result{}, ErrTimeout
	}

	records, ok := r.TXT[fqdn]
	if !ok || len(records) == 0 {
		return Result{}, ErrNotFound
	}

	return Result{Records: records}, nil
}
