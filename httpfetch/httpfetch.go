// Package httpfetch builds querycache fetchers that GET a URL and decode the
// response body with a codec.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/cenkalti/backoff/v4"

	"github.com/unkn0wn-root/querycache"
	"github.com/unkn0wn-root/querycache/codec"
)

// DefaultMaxBody caps response bodies unless WithMaxBody says otherwise.
const DefaultMaxBody = 4 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string { return fmt.Sprintf("HTTP %d", e.Code) }

// Temporary reports whether retrying can help (5xx, 408 and 429).
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusRequestTimeout || e.Code == http.StatusTooManyRequests
}

type config struct {
	client    *http.Client
	header    http.Header
	maxBody   int
	permanent bool
}

type Option func(*config)

// WithClient sets the client used for requests. Default http.DefaultClient.
func WithClient(c *http.Client) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.client = c
		}
	}
}

// WithHeader adds a request header. May be repeated.
func WithHeader(key, value string) Option {
	return func(cfg *config) { cfg.header.Add(key, value) }
}

// WithMaxBody caps the decoded body size in bytes; n <= 0 removes the cap.
func WithMaxBody(n int) Option {
	return func(cfg *config) { cfg.maxBody = n }
}

// WithPermanentErrors stops the cache from retrying statuses that are not
// Temporary (most 4xx): their StatusError is wrapped in backoff.Permanent,
// which ends the retry loop after the current attempt.
func WithPermanentErrors() Option {
	return func(cfg *config) { cfg.permanent = true }
}

// New returns a fetcher that issues a GET bound to the fetch context.
// Cancelling the context aborts the request.
func New[V any](url string, dec codec.Codec[V], opts ...Option) querycache.Fetcher[V] {
	cfg := config{client: http.DefaultClient, header: make(http.Header), maxBody: DefaultMaxBody}
	for _, o := range opts {
		o(&cfg)
	}
	limited := codec.LimitCodec[V]{Inner: dec, MaxDecode: cfg.maxBody}

	return func(ctx context.Context) (V, error) {
		var zero V
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return zero, err
		}
		for k, vs := range cfg.header {
			req.Header[k] = append([]string(nil), vs...)
		}
		resp, err := cfg.client.Do(req)
		if err != nil {
			return zero, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
			se := &StatusError{Code: resp.StatusCode, URL: url}
			if cfg.permanent && !se.Temporary() {
				return zero, backoff.Permanent(se)
			}
			return zero, se
		}

		body := io.Reader(resp.Body)
		if cfg.maxBody > 0 {
			// one byte over the cap lets LimitCodec report the overflow
			body = io.LimitReader(resp.Body, int64(cfg.maxBody)+1)
		}
		b, err := io.ReadAll(body)
		if err != nil {
			return zero, err
		}
		return limited.Decode(b)
	}
}
