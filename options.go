package bimi

import "time"

// HTTPOptions configure the downloads performed during validation.
// The zero value uses the fetch defaults.
type HTTPOptions struct {
	// Timeout bounds each download.
	Timeout time.Duration

	// UserAgent is sent with download requests when non-empty.
	UserAgent string
}

// LookupOptions configure the policy lookup stage.
type LookupOptions struct {
	// Selector selects the policy namespace. Empty means "default".
	Selector string
}

// IndicatorOptions configure the indicator validation stage.
type IndicatorOptions struct {
	// MaxSize caps the indicator download size in bytes. Zero means
	// unlimited.
	MaxSize int64
}

// VMCOptions configure the mark certificate validation stage.
type VMCOptions struct {
	// MaxSize caps the certificate bundle download size in bytes. Zero
	// means unlimited.
	MaxSize int64

	// SkipDNSNameCheck disables the generic hostname verification of the
	// leaf against the domain. The SAN selector matching still runs.
	SkipDNSNameCheck bool

	// AcceptSubdomainFallback retries hostname verification against the
	// organizational domain when the domain itself does not match.
	AcceptSubdomainFallback bool

	// RequireCTLogging demands at least one structurally valid Signed
	// Certificate Timestamp in the leaf.
	RequireCTLogging bool

	// LocalFiles treats the policy's URIs as filesystem paths instead of
	// https URLs. Meant for offline runs and tests.
	LocalFiles bool
}

// Options configure one validation run. Options values are constructed
// fresh per call and never mutated by the validator; the zero value runs
// every check with defaults.
type Options struct {
	Lookup    LookupOptions
	Indicator IndicatorOptions
	VMC       VMCOptions
	HTTP      HTTPOptions

	// SkipIndicator skips the standalone indicator validation stage.
	SkipIndicator bool

	// SkipVMC skips certificate validation entirely. The policy "a" tag
	// is then not consulted.
	SkipVMC bool

	// CollectAll continues past independent failures and accumulates
	// them, instead of aborting at the first one. The returned outcome
	// carries the first failure plus the full ordered list.
	CollectAll bool
}
