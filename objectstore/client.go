// Package objectstore reads and writes documents and objects in a remote
// object store over plain HTTP, using public URLs for reads and signed URLs
// for writes and deletes.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sagarc03/folio"
)

const (
	DefaultTimeout = 30 * time.Second

	// ContentSHA256Header carries the payload hash GCS V4 URLs are signed
	// against; folio always signs with an unsigned payload.
	ContentSHA256Header = "x-goog-content-sha256"
	UnsignedPayload     = "UNSIGNED-PAYLOAD"

	deleteContentType = "application/octet-stream"
	maxDocumentSize   = 32 << 20
)

// Client implements folio.DocumentStore and folio.ObjectDeleter against the
// bucket behind a folio.Signer.
type Client struct {
	signer     folio.Signer
	httpClient *http.Client
	now        func() time.Time
	nonce      func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithClock overrides the time source used for cache-busting parameters.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

func New(signer folio.Signer, opts ...Option) *Client {
	c := &Client{
		signer:     signer,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		now:        time.Now,
		nonce: func() string {
			return strconv.FormatUint(rand.Uint64(), 36)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get reads a document through its public URL. A fresh read adds a
// cache-busting query (_t, _r) and no-cache headers so that no CDN or
// intermediate cache can answer with a stale copy.
func (c *Client) Get(ctx context.Context, name string, opts folio.GetOptions) ([]byte, error) {
	target := c.signer.PublicURL(name)
	if opts.Fresh {
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", name, err)
		}
		q := u.Query()
		q.Set("_t", strconv.FormatInt(c.now().UnixMilli(), 10))
		q.Set("_r", c.nonce())
		u.RawQuery = q.Encode()
		target = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	if opts.Fresh {
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("get %s: %w", name, folio.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &folio.UpstreamError{Op: "read " + name, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("get %s: read body: %w", name, err)
	}
	return body, nil
}

// Put replaces a document through a signed PUT URL.
func (c *Client) Put(ctx context.Context, name string, body []byte, opts folio.PutOptions) error {
	signed, err := c.signer.SignURL(ctx, folio.SignRequest{
		ObjectName:  name,
		Method:      http.MethodPut,
		ContentType: opts.ContentType,
		Expires:     opts.Expires,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signed.SignedURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	req.Header.Set("Content-Type", opts.ContentType)
	req.Header.Set(ContentSHA256Header, UnsignedPayload)
	if opts.CacheControl != "" {
		req.Header.Set("Cache-Control", opts.CacheControl)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &folio.UpstreamError{Op: "persist " + name, StatusCode: resp.StatusCode}
	}
	return nil
}

// Delete removes an object through a signed DELETE URL.
func (c *Client) Delete(ctx context.Context, name string) error {
	signed, err := c.signer.SignURL(ctx, folio.SignRequest{
		ObjectName:  name,
		Method:      http.MethodDelete,
		ContentType: deleteContentType,
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, signed.SignedURL, nil)
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	req.Header.Set("Content-Type", deleteContentType)
	req.Header.Set(ContentSHA256Header, UnsignedPayload)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("delete %s: %w", name, folio.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &folio.UpstreamError{Op: "delete " + name, StatusCode: resp.StatusCode}
	}
	return nil
}
