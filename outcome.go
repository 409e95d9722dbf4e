package bimi

import (
	"errors"

	"github.com/synqronlabs/bimi/fetch"
	"github.com/synqronlabs/bimi/indicator"
	"github.com/synqronlabs/bimi/policy"
	"github.com/synqronlabs/bimi/vmc"
)

// Status is the final state of a BIMI validation.
type Status string

const (
	// StatusNone indicates the domain publishes no BIMI policy at all.
	// Not an error, a valid outcome.
	StatusNone Status = "none"

	// StatusDeclined indicates the domain explicitly declines BIMI
	// participation via a record with empty "l=" and "a=" tags.
	StatusDeclined Status = "declined"

	// StatusPass indicates every requested check succeeded.
	StatusPass Status = "pass"

	// StatusTemperror indicates a transient environment problem (DNS
	// timeout, network failure). Retrying later may reach a conclusion.
	StatusTemperror Status = "temperror"

	// StatusPermerror indicates a definitive validation failure.
	// Retrying will not change the result.
	StatusPermerror Status = "permerror"
)

// FailKind identifies the specific failure behind a temperror or
// permerror status. Empty for the other statuses.
type FailKind string

const (
	FailNone FailKind = ""

	// Policy failures
	FailInvalidFormat FailKind = "invalid_format"
	FailDNS           FailKind = "dns"

	// Resource retrieval failures
	FailInvalidURI   FailKind = "invalid_uri"
	FailSizeExceeded FailKind = "size_exceeded"
	FailFetch        FailKind = "fetch"

	// Indicator failures
	FailIndicatorFormat FailKind = "indicator_format"
	FailIndicatorSchema FailKind = "indicator_schema"
	FailIndicatorCheck  FailKind = "indicator_check"

	// Certificate bundle failures
	FailNoPEMData      FailKind = "no_pem_data"
	FailBadCertificate FailKind = "bad_certificate"
	FailNoLeafFound    FailKind = "no_leaf_found"
	FailMultipleLeaves FailKind = "multiple_leaves"

	// Path validation failures
	FailMissingBrandEKU      FailKind = "missing_brand_eku"
	FailUnsupportedAlgorithm FailKind = "unsupported_algorithm"
	FailSignatureInvalid     FailKind = "signature_invalid"
	FailCertNotYetValid      FailKind = "cert_not_yet_valid"
	FailCertExpired          FailKind = "cert_expired"
	FailRevocation           FailKind = "revocation"
	FailPathValidation       FailKind = "path_validation"

	// Domain binding failures
	FailUnmatchedDomain FailKind = "unmatched_domain"
	FailUnmatchedSAN    FailKind = "unmatched_san"

	// Logotype failures
	FailCriticalLogotype FailKind = "critical_logotype"
	FailNoLogotype       FailKind = "no_logotype"
	FailNoSupportedImage FailKind = "no_supported_image"
	FailNoHashFound      FailKind = "no_hash_found"
	FailHashMismatch     FailKind = "hash_mismatch"

	// Certificate Transparency failures
	FailNoSCTFound   FailKind = "no_sct_found"
	FailInvalidSCT   FailKind = "invalid_sct"
	FailSCTTimestamp FailKind = "sct_timestamp"

	// Anything not covered by a more specific kind
	FailUnknown FailKind = "unknown"
)

// Outcome is the aggregate result of validating one domain. Outcomes,
// including failures, are memoized in the cache so repeated validation of
// the same input within the TTL window is cheap and deterministic.
type Outcome struct {
	// Status is the final validation state.
	Status Status

	// Kind identifies the failure when Status is temperror or permerror.
	Kind FailKind

	// Message is the human-readable failure description, empty on
	// none/declined/pass.
	Message string

	// Record is the resolved policy record, set when policy resolution
	// produced one before any failure.
	Record *policy.Record

	// VMC summarizes the validated mark certificate when VMC validation
	// ran and the bundle was triaged successfully.
	VMC *vmc.VMC

	// Collected holds every failure encountered in collect-all mode, in
	// pipeline order. Empty in fail-fast mode.
	Collected []error
}

// Retryable reports whether the validation may reach a different
// conclusion when repeated later.
func (o Outcome) Retryable() bool {
	return o.Status == StatusTemperror
}

// classifications maps sentinel errors to a status and failure kind, in
// match order. More specific sentinels come before the generic ones they
// wrap.
var classifications = []struct {
	err    error
	status Status
	kind   FailKind
}{
	{policy.ErrNoPolicy, StatusNone, FailNone},
	{policy.ErrDeclined, StatusDeclined, FailNone},
	{policy.ErrDNS, StatusTemperror, FailDNS},
	{policy.ErrSyntax, StatusPermerror, FailInvalidFormat},

	{fetch.ErrInvalidURI, StatusPermerror, FailInvalidURI},
	{fetch.ErrSizeExceeded, StatusPermerror, FailSizeExceeded},
	{fetch.ErrCannotAccess, StatusTemperror, FailFetch},

	{indicator.ErrValidatorFailed, StatusTemperror, FailIndicatorCheck},
	{indicator.ErrSchemaViolation, StatusPermerror, FailIndicatorSchema},
	{indicator.ErrNotSVG, StatusPermerror, FailIndicatorFormat},
	{indicator.ErrMissingBaseProfile, StatusPermerror, FailIndicatorFormat},
	{indicator.ErrMissingTitle, StatusPermerror, FailIndicatorFormat},
	{indicator.ErrDisallowedElement, StatusPermerror, FailIndicatorFormat},

	{vmc.ErrNoPEMData, StatusPermerror, FailNoPEMData},
	{vmc.ErrBadCertificate, StatusPermerror, FailBadCertificate},
	{vmc.ErrNoLeafFound, StatusPermerror, FailNoLeafFound},
	{vmc.ErrMultipleLeaves, StatusPermerror, FailMultipleLeaves},

	{vmc.ErrMissingBrandEKU, StatusPermerror, FailMissingBrandEKU},
	{vmc.ErrUnsupportedSignatureAlgorithm, StatusPermerror, FailUnsupportedAlgorithm},
	{vmc.ErrSignatureNotVerifiable, StatusPermerror, FailSignatureInvalid},
	{vmc.ErrCertNotYetValid, StatusPermerror, FailCertNotYetValid},
	{vmc.ErrCertExpired, StatusPermerror, FailCertExpired},
	{vmc.ErrNoRevocationInfo, StatusPermerror, FailRevocation},
	{vmc.ErrRevocationCheckFailed, StatusPermerror, FailRevocation},
	{vmc.ErrPathValidation, StatusPermerror, FailPathValidation},

	{vmc.ErrUnmatchedDomain, StatusPermerror, FailUnmatchedDomain},
	{vmc.ErrUnmatchedSAN, StatusPermerror, FailUnmatchedSAN},

	{vmc.ErrCriticalLogotype, StatusPermerror, FailCriticalLogotype},
	{vmc.ErrNoLogotype, StatusPermerror, FailNoLogotype},
	{vmc.ErrNoSupportedImage, StatusPermerror, FailNoSupportedImage},
	{vmc.ErrNoImageFound, StatusPermerror, FailNoSupportedImage},
	{vmc.ErrNoHashFound, StatusPermerror, FailNoHashFound},
	{vmc.ErrHashMismatch, StatusPermerror, FailHashMismatch},

	{vmc.ErrNoSCTFound, StatusPermerror, FailNoSCTFound},
	{vmc.ErrSCTFutureTimestamp, StatusPermerror, FailSCTTimestamp},
	{vmc.ErrInvalidSCT, StatusPermerror, FailInvalidSCT},
}

// Classify maps a pipeline error to its status and failure kind.
// The remaining path validation sentinels and any unrecognized error map
// to a permerror of kind path_validation or unknown respectively.
func Classify(err error) (Status, FailKind) {
	if err == nil {
		return StatusPass, FailNone
	}

	for _, c := range classifications {
		if errors.Is(err, c.err) {
			return c.status, c.kind
		}
	}

	// The less common typed path failures share one kind.
	for _, sentinel := range []error{
		vmc.ErrIssuerMismatch, vmc.ErrAnyPolicyMapping, vmc.ErrNotCA,
		vmc.ErrPathLengthExceeded, vmc.ErrNotAllowedToSign,
		vmc.ErrUnsupportedCriticalExtension, vmc.ErrNoValidPolicySet,
		vmc.ErrNoMatchingIssuer,
	} {
		if errors.Is(err, sentinel) {
			return StatusPermerror, FailPathValidation
		}
	}

	return StatusPermerror, FailUnknown
}

// outcomeFromError builds the Outcome for a failed (or declined, or
// absent) validation.
func outcomeFromError(err error, rec *policy.Record, collected []error) Outcome {
	status, kind := Classify(err)
	o := Outcome{
		Status:    status,
		Kind:      kind,
		Record:    rec,
		Collected: collected,
	}
	if status == StatusTemperror || status == StatusPermerror {
		o.Message = err.Error()
	}
	return o
}
