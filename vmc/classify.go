package vmc

import (
	"fmt"
	"regexp"
)

// classification maps a delegate error-text pattern to a typed failure.
type classification struct {
	pattern *regexp.Regexp
	err     error
}

// pathClassifications is the ordered compatibility table translating path
// validation delegate wording into the typed failure set. The table covers
// crypto/x509 phrasing and the common phrasings of other validators; it
// must be revisited whenever the delegate's wording changes. Order matters:
// crypto/x509 reports expiry and not-yet-valid in one combined sentence
// distinguished only by the current-time clause.
var pathClassifications = []classification{
	{regexp.MustCompile(`(?i)unsupported signature algorithm|insecure algorithm|signature algorithm .* not supported`), ErrUnsupportedSignatureAlgorithm},
	{regexp.MustCompile(`(?i)verification error|signature (?:could not|cannot|can't) be verified|invalid signature`), ErrSignatureNotVerifiable},
	{regexp.MustCompile(`(?i)current time .* is before`), ErrCertNotYetValid},
	{regexp.MustCompile(`(?i)current time .* is after`), ErrCertExpired},
	{regexp.MustCompile(`(?i)not yet valid`), ErrCertNotYetValid},
	{regexp.MustCompile(`(?i)has expired|certificate expired`), ErrCertExpired},
	{regexp.MustCompile(`(?i)no revocation (?:info|information|status)`), ErrNoRevocationInfo},
	{regexp.MustCompile(`(?i)revocation check(?:ing)? failed|failed to (?:fetch|retrieve|check) (?:the )?(?:CRL|OCSP)`), ErrRevocationCheckFailed},
	{regexp.MustCompile(`(?i)issuer name does not match|issuer mismatch`), ErrIssuerMismatch},
	{regexp.MustCompile(`(?i)any[- ]?policy`), ErrAnyPolicyMapping},
	{regexp.MustCompile(`(?i)is not a CA|not a certificate authority`), ErrNotCA},
	{regexp.MustCompile(`(?i)too many intermediates|path length constraint`), ErrPathLengthExceeded},
	{regexp.MustCompile(`(?i)not (?:authorized|allowed) to sign`), ErrNotAllowedToSign},
	{regexp.MustCompile(`(?i)un(?:handled|supported) critical extension`), ErrUnsupportedCriticalExtension},
	{regexp.MustCompile(`(?i)no valid policy|policy set is empty`), ErrNoValidPolicySet},
	{regexp.MustCompile(`(?i)unknown authority|no matching issuer|unable to find (?:the )?issuer`), ErrNoMatchingIssuer},
}

// ClassifyPathError translates a path validation delegate error into the
// typed failure taxonomy. Unmatched error text falls back to
// ErrPathValidation carrying the original text verbatim, so delegate
// wording changes degrade without losing the underlying message.
func ClassifyPathError(err error) error {
	if err == nil {
		return nil
	}

	text := err.Error()
	for _, c := range pathClassifications {
		if c.pattern.MatchString(text) {
			return fmt.Errorf("%w: %s", c.err, text)
		}
	}
	return fmt.Errorf("%w: %s", ErrPathValidation, text)
}
