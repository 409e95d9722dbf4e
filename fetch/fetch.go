// Package fetch retrieves brand indicators and certificate bundles over
// HTTPS, with size-limit enforcement and download caching.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/synqronlabs/bimi/cache"
)

// Fetch errors.
var (
	// ErrInvalidURI indicates the URI could not be parsed or uses a scheme
	// other than https.
	ErrInvalidURI = errors.New("fetch: invalid or non-HTTPS URI")

	// ErrSizeExceeded indicates the resource exceeds the configured size
	// limit.
	ErrSizeExceeded = errors.New("fetch: size limit exceeded")

	// ErrCannotAccess indicates a network or HTTP failure. A later retry
	// may succeed.
	ErrCannotAccess = errors.New("fetch: cannot access resource")
)

// IsTemporary reports whether a later retry of the fetch may succeed.
func IsTemporary(err error) bool {
	return errors.Is(err, ErrCannotAccess)
}

// Options control a single fetch. The zero value is usable.
type Options struct {
	// Timeout bounds the whole request. Default is 30 seconds.
	Timeout time.Duration

	// UserAgent is sent as the User-Agent header when non-empty.
	UserAgent string

	// MaxSize is the maximum allowed resource size in bytes. 0 means
	// unlimited.
	MaxSize int64

	// LocalFile treats the URI as a filesystem path instead of an HTTPS
	// URL. Intended for tests and offline validation.
	LocalFile bool
}

const defaultTimeout = 30 * time.Second

// Client fetches resources, memoizing downloaded bytes in the shared cache.
type Client struct {
	http   *http.Client
	cache  *cache.Cache
	logger *slog.Logger
}

// New creates a fetch client. Both arguments may be nil: a nil cache
// disables download memoization, a nil logger discards log output.
func New(c *cache.Cache, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return NewWithClient(&http.Client{}, c, logger)
}

// NewWithClient is like New but uses the given HTTP client, for callers
// that need transport control (proxies, test servers).
func NewWithClient(hc *http.Client, c *cache.Cache, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		http:   hc,
		cache:  c,
		logger: logger,
	}
}

// Fetch retrieves the resource at uri.
//
// Remote URIs must use the https scheme. Downloaded bytes are cached under
// the download namespace; local files are never cached.
func (c *Client) Fetch(ctx context.Context, uri string, opts Options) ([]byte, error) {
	if opts.LocalFile {
		return readLocalFile(uri, opts.MaxSize)
	}

	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURI, uri)
	}

	key := cache.Key(cache.KeyPrefixDownload, uri)
	if data, ok := c.cache.Get(key); ok {
		if b, ok := data.([]byte); ok {
			c.logger.Debug("download cache hit", slog.String("uri", uri))
			return b, nil
		}
	}

	data, err := c.download(ctx, uri, opts)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, data)
	return data, nil
}

func (c *Client) download(ctx context.Context, uri string, opts Options) ([]byte, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotAccess, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrCannotAccess, resp.Status)
	}

	if opts.MaxSize > 0 && resp.ContentLength > opts.MaxSize {
		return nil, fmt.Errorf("%w: content length %d exceeds limit %d", ErrSizeExceeded, resp.ContentLength, opts.MaxSize)
	}

	var body io.Reader = resp.Body
	if opts.MaxSize > 0 {
		// Read one byte past the limit to detect oversized responses that
		// did not announce a Content-Length.
		body = io.LimitReader(resp.Body, opts.MaxSize+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotAccess, err)
	}
	if opts.MaxSize > 0 && int64(len(data)) > opts.MaxSize {
		return nil, fmt.Errorf("%w: body exceeds limit %d", ErrSizeExceeded, opts.MaxSize)
	}

	c.logger.Debug("downloaded resource",
		slog.String("uri", uri),
		slog.Int("bytes", len(data)),
		slog.Duration("duration", time.Since(start)),
	)
	return data, nil
}

func readLocalFile(path string, maxSize int64) ([]byte, error) {
	if maxSize > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCannotAccess, err)
		}
		if info.Size() > maxSize {
			return nil, fmt.Errorf("%w: file size %d exceeds limit %d", ErrSizeExceeded, info.Size(), maxSize)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotAccess, err)
	}
	return data, nil
}
