package bimi

import (
	"context"
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/synqronlabs/bimi/cache"
	"github.com/synqronlabs/bimi/dns"
	"github.com/synqronlabs/bimi/fetch"
	"github.com/synqronlabs/bimi/indicator"
	"github.com/synqronlabs/bimi/metrics"
	"github.com/synqronlabs/bimi/policy"
	"github.com/synqronlabs/bimi/vmc"
)

// Config assembles a Validator's collaborators. Every field is optional;
// zero values select working defaults (system resolver, system trust
// roots, no cache, no metrics, discarded logs).
type Config struct {
	// Resolver performs DNS TXT lookups.
	Resolver dns.Resolver

	// HTTPClient performs indicator and certificate downloads.
	HTTPClient *http.Client

	// Roots is the trust anchor pool for certificate path validation.
	// Ignored when Verifier is set.
	Roots *x509.CertPool

	// Verifier overrides the default crypto/x509 path verifier.
	Verifier vmc.PathVerifier

	// SchemaCommand is the external SVG schema validator argv (the
	// indicator file path is appended). Empty disables the external
	// check; the structural scan still runs.
	SchemaCommand []string

	// Cache memoizes policy results, downloads and VMC outcomes.
	Cache *cache.Cache

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Validator runs the BIMI validation pipeline: policy lookup, indicator
// validation, and mark certificate validation, producing one Outcome per
// domain.
//
// A Validator is safe for concurrent use. The pipeline itself is
// synchronous; the only shared mutable state is the cache.
type Validator struct {
	resolver  dns.Resolver
	fetcher   *fetch.Client
	verifier  vmc.PathVerifier
	indicator *indicator.Validator
	cache     *cache.Cache
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewValidator creates a Validator from cfg.
func NewValidator(cfg Config) *Validator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	resolver := cfg.Resolver
	if resolver == nil {
		resolver = dns.NewStdResolver()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	fetcher := fetch.NewWithClient(httpClient, cfg.Cache, logger)

	verifier := cfg.Verifier
	if verifier == nil {
		verifier = &vmc.X509Verifier{
			Roots: cfg.Roots,
			// The logotype extension is sometimes marked critical in the
			// wild even though RFC 3709 forbids it; path building must not
			// choke on it, the orchestrator rejects it separately.
			PermittedCriticalExtensions: []asn1.ObjectIdentifier{vmc.OIDLogotype},
		}
	}

	return &Validator{
		resolver:  resolver,
		fetcher:   fetcher,
		verifier:  verifier,
		indicator: indicator.New(fetcher, cfg.SchemaCommand, logger),
		cache:     cfg.Cache,
		logger:    logger,
		metrics:   cfg.Metrics,
	}
}

// policyResult is the memoized policy stage result.
type policyResult struct {
	rec *policy.Record
	err error
}

// vmcResult is the memoized certificate stage result.
type vmcResult struct {
	summary *vmc.VMC
	errs    []error
}

// Validate runs the pipeline for domain and returns its aggregate
// outcome. Failures are reported in the Outcome, never as a Go error;
// callers switch on Outcome.Status.
func (v *Validator) Validate(ctx context.Context, domain string, opts Options) Outcome {
	start := time.Now()
	outcome := v.validate(ctx, domain, opts)

	v.metrics.ObserveValidateLatency(time.Since(start))
	v.metrics.IncrementOutcome(string(outcome.Status))
	v.logger.Info("validation finished",
		slog.String("domain", domain),
		slog.String("status", string(outcome.Status)),
		slog.String("kind", string(outcome.Kind)),
		slog.Duration("duration", time.Since(start)),
	)
	return outcome
}

func (v *Validator) validate(ctx context.Context, domain string, opts Options) Outcome {
	rec, err := v.resolvePolicy(ctx, domain, opts.Lookup.Selector)
	if err != nil {
		return outcomeFromError(err, nil, nil)
	}

	var collected []error
	fail := func(err error) bool {
		if err == nil {
			return false
		}
		collected = append(collected, err)
		return !opts.CollectAll
	}

	if !opts.SkipIndicator && rec.HasIndicator() {
		_, err := v.indicator.Validate(ctx, rec.Location, indicator.Options{
			Timeout:   opts.HTTP.Timeout,
			UserAgent: opts.HTTP.UserAgent,
			MaxSize:   opts.Indicator.MaxSize,
			LocalFile: opts.VMC.LocalFiles,
		})
		if fail(err) {
			return outcomeFromError(err, rec, nil)
		}
	}

	var summary *vmc.VMC
	if !opts.SkipVMC && rec.HasAuthorityEvidence() {
		var errs []error
		summary, errs = v.validateVMC(ctx, rec, domain, opts)
		for _, err := range errs {
			if fail(err) {
				return outcomeFromError(err, rec, nil)
			}
		}
	}

	if len(collected) > 0 {
		o := outcomeFromError(collected[0], rec, collected)
		o.VMC = summary
		return o
	}

	return Outcome{Status: StatusPass, Record: rec, VMC: summary}
}

// resolvePolicy memoizes policy lookup by domain and selector.
func (v *Validator) resolvePolicy(ctx context.Context, domain, selector string) (*policy.Record, error) {
	if selector == "" {
		selector = policy.DefaultSelector
	}
	key := cache.Key(cache.KeyPrefixPolicy, domain+"/"+selector)

	if cached, ok := v.cache.Get(key); ok {
		v.metrics.IncrementCacheLookup("policy", true)
		if res, ok := cached.(policyResult); ok {
			return res.rec, res.err
		}
	}
	v.metrics.IncrementCacheLookup("policy", false)

	rec, err := policy.Lookup(ctx, v.resolver, domain, selector)
	if err == nil || !errors.Is(err, policy.ErrDNS) {
		// Temporary DNS trouble is not memoized; a retry may conclude.
		v.cache.Set(key, policyResult{rec: rec, err: err})
	}
	return rec, err
}

// validateVMC fetches and validates the mark certificate named by the
// policy's authority evidence location, returning a summary of the leaf
// and the failures encountered in pipeline order. In fail-fast mode the
// slice holds at most one error.
func (v *Validator) validateVMC(ctx context.Context, rec *policy.Record, domain string, opts Options) (*vmc.VMC, []error) {
	key := cache.Key(cache.KeyPrefixVMC, rec.AuthorityEvidenceLocation)
	if cached, ok := v.cache.Get(key); ok {
		v.metrics.IncrementCacheLookup("vmc", true)
		if res, ok := cached.(vmcResult); ok {
			return res.summary, res.errs
		}
	}
	v.metrics.IncrementCacheLookup("vmc", false)

	summary, errs := v.checkVMC(ctx, rec, domain, opts)

	retryable := false
	for _, err := range errs {
		if status, _ := Classify(err); status == StatusTemperror {
			retryable = true
			break
		}
	}
	if !retryable {
		v.cache.Set(key, vmcResult{summary: summary, errs: errs})
	}
	return summary, errs
}

func (v *Validator) checkVMC(ctx context.Context, rec *policy.Record, domain string, opts Options) (*vmc.VMC, []error) {
	fetchOpts := fetch.Options{
		Timeout:   opts.HTTP.Timeout,
		UserAgent: opts.HTTP.UserAgent,
		MaxSize:   opts.VMC.MaxSize,
		LocalFile: opts.VMC.LocalFiles,
	}

	bundle, err := v.fetcher.Fetch(ctx, rec.AuthorityEvidenceLocation, fetchOpts)
	if err != nil {
		return nil, []error{err}
	}

	leaf, intermediates, err := vmc.Triage(bundle)
	if err != nil {
		return nil, []error{err}
	}
	summary := vmc.Summarize(leaf)

	var errs []error
	fail := func(err error) bool {
		if err == nil {
			return false
		}
		errs = append(errs, err)
		return !opts.CollectAll
	}

	if err := v.verifier.VerifyPath(leaf, intermediates); err != nil {
		if !errors.Is(err, vmc.ErrMissingBrandEKU) {
			err = vmc.ClassifyPathError(err)
		}
		if fail(err) {
			return summary, errs
		}
	}

	if !opts.VMC.SkipDNSNameCheck {
		if fail(vmc.VerifyDomain(leaf, domain, opts.VMC.AcceptSubdomainFallback)) {
			return summary, errs
		}
	}
	if fail(vmc.MatchSAN(leaf, domain, rec.Selector)) {
		return summary, errs
	}

	hashes, err := v.certifiedHashes(leaf)
	if fail(err) {
		return summary, errs
	}

	// Hash binding needs both the decoded hashes and the indicator bytes.
	if err == nil {
		if fail(v.bindIndicatorHash(ctx, rec, hashes, opts, fetchOpts)) {
			return summary, errs
		}
	}

	if opts.VMC.RequireCTLogging {
		if fail(v.checkCTLogging(leaf)) {
			return summary, errs
		}
	}

	return summary, errs
}

// certifiedHashes extracts the logotype hash entries from the leaf.
// The extension must be present and non-critical, and must yield at least
// one hash entry.
func (v *Validator) certifiedHashes(leaf *x509.Certificate) ([]vmc.HashEntry, error) {
	var found bool
	var hashes []vmc.HashEntry
	for _, ext := range leaf.Extensions {
		if !ext.Id.Equal(vmc.OIDLogotype) {
			continue
		}
		if ext.Critical {
			return nil, vmc.ErrCriticalLogotype
		}
		found = true

		entries, err := vmc.DecodeLogotypeHashes(ext.Value)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, entries...)
	}

	if !found {
		return nil, vmc.ErrNoLogotype
	}
	if len(hashes) == 0 {
		return nil, vmc.ErrNoHashFound
	}
	return hashes, nil
}

// bindIndicatorHash fetches the indicator and requires a byte-exact hash
// match against at least one certified hash entry.
func (v *Validator) bindIndicatorHash(ctx context.Context, rec *policy.Record, hashes []vmc.HashEntry, opts Options, fetchOpts fetch.Options) error {
	fetchOpts.MaxSize = opts.Indicator.MaxSize
	data, err := v.fetcher.Fetch(ctx, rec.Location, fetchOpts)
	if err != nil {
		return err
	}

	if !vmc.AnyHashMatches(hashes, data) {
		return fmt.Errorf("%w: %s", vmc.ErrHashMismatch, rec.Location)
	}
	return nil
}

// checkCTLogging requires at least one structurally valid, non-future SCT
// in the leaf's SCT list extension.
func (v *Validator) checkCTLogging(leaf *x509.Certificate) error {
	for _, ext := range leaf.Extensions {
		if !ext.Id.Equal(vmc.OIDSCTList) {
			continue
		}

		// The extension value is an OCTET STRING wrapping the TLS-encoded
		// list.
		var wrapped []byte
		if _, err := asn1.Unmarshal(ext.Value, &wrapped); err != nil {
			return fmt.Errorf("%w: %v", vmc.ErrInvalidSCT, err)
		}
		return vmc.ValidateSCTList(vmc.ParseSCTList(wrapped), time.Now())
	}
	return vmc.ErrNoSCTFound
}
