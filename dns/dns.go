// Package dns provides the DNS resolver abstraction used for BIMI policy
// lookups.
//
// The Resolver interface covers the single primitive the validation pipeline
// needs: TXT record retrieval. Two implementations are provided: DNSResolver,
// backed by github.com/miekg/dns with configurable nameservers and retries,
// and StdResolver, backed by the standard library. MockResolver serves tests.
package dns

import (
	"context"
	"errors"
)

// DNS lookup errors.
var (
	// ErrNotFound indicates the queried name does not exist (NXDOMAIN) or
	// has no records of the requested type.
	ErrNotFound = errors.New("dns: record not found")

	// ErrTimeout indicates the query did not complete in time.
	ErrTimeout = errors.New("dns: query timeout")

	// ErrServFail indicates the nameserver reported a server failure.
	ErrServFail = errors.New("dns: server failure")

	// ErrRefused indicates the nameserver refused the query.
	ErrRefused = errors.New("dns: query refused")
)

// Result contains the records returned by a lookup.
type Result struct {
	// Records are the TXT strings, one entry per resource record. Character
	// strings within a single record are already joined.
	Records []string
}

// Resolver performs the DNS lookups required for BIMI policy resolution.
type Resolver interface {
	// LookupTXT retrieves TXT records for the given name. The name may be
	// given with or without a trailing dot.
	LookupTXT(ctx context.Context, name string) (Result, error)
}

// IsNotFound reports whether err indicates a definitively absent record,
// as opposed to a lookup that could not be completed.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTimeout reports whether err indicates a query timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsServFail reports whether err indicates a server failure.
func IsServFail(err error) bool {
	return errors.Is(err, ErrServFail)
}

// IsTemporary reports whether a later retry of the lookup may succeed.
func IsTemporary(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrServFail) || errors.Is(err, ErrRefused)
}
