// Package indicator validates BIMI indicator resources: fetched SVG
// documents checked against the SVG Tiny PS profile, structurally first
// and then through an external schema validator when one is configured.
package indicator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/synqronlabs/bimi/fetch"
)

var (
	// ErrNotSVG is returned when the resource is not an SVG document.
	ErrNotSVG = errors.New("indicator: resource is not an SVG document")

	// ErrMissingBaseProfile is returned when the root element does not
	// declare the tiny-ps base profile.
	ErrMissingBaseProfile = errors.New("indicator: svg element does not declare baseProfile \"tiny-ps\"")

	// ErrMissingTitle is returned when the document has no title element.
	ErrMissingTitle = errors.New("indicator: svg document has no title element")

	// ErrDisallowedElement is returned when the document uses an element
	// outside the SVG Tiny PS profile.
	ErrDisallowedElement = errors.New("indicator: disallowed element in svg document")

	// ErrSchemaViolation is returned when the external schema validator
	// rejects the document.
	ErrSchemaViolation = errors.New("indicator: indicator does not conform to the schema")

	// ErrValidatorFailed is returned when the external schema validator
	// could not be run at all. This is a temporary condition.
	ErrValidatorFailed = errors.New("indicator: schema validator could not be run")
)

// IsTemporary reports whether err is a transient indicator failure that
// may succeed on retry.
func IsTemporary(err error) bool {
	return errors.Is(err, ErrValidatorFailed) || fetch.IsTemporary(err)
}

// Options control a single indicator validation.
// The zero value uses the fetch defaults and skips no checks.
type Options struct {
	// Timeout bounds the indicator download.
	Timeout time.Duration

	// UserAgent is sent with the download request when non-empty.
	UserAgent string

	// MaxSize caps the indicator size in bytes. Zero means unlimited.
	MaxSize int64

	// LocalFile treats the URI as a filesystem path instead of an https
	// URL. Meant for offline runs and tests.
	LocalFile bool
}

// Validator fetches and validates indicators.
type Validator struct {
	fetch     *fetch.Client
	schemaCmd []string
	logger    *slog.Logger
}

// New returns a Validator downloading through client.
//
// schemaCmd is the external schema validator argv, invoked with the
// indicator file path appended (for example
// ["java", "-jar", "jing.jar", "-c", "SVG_PS-latest.rnc"]). An empty
// schemaCmd disables the external check; the structural scan still runs.
func New(client *fetch.Client, schemaCmd []string, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Validator{fetch: client, schemaCmd: schemaCmd, logger: logger}
}

// Validate fetches the indicator at uri and validates it. The downloaded
// bytes are returned even on validation failure so callers can bind them
// against certified hashes.
func (v *Validator) Validate(ctx context.Context, uri string, opts Options) ([]byte, error) {
	data, err := v.fetch.Fetch(ctx, uri, fetch.Options{
		Timeout:   opts.Timeout,
		UserAgent: opts.UserAgent,
		MaxSize:   opts.MaxSize,
		LocalFile: opts.LocalFile,
	})
	if err != nil {
		return nil, err
	}

	return data, v.ValidateData(ctx, data)
}

// ValidateData validates already-fetched indicator bytes.
func (v *Validator) ValidateData(ctx context.Context, data []byte) error {
	if err := Scan(data); err != nil {
		return err
	}

	if len(v.schemaCmd) == 0 {
		return nil
	}
	return v.runSchemaCheck(ctx, data)
}
