// Package supabase talks to the hosted backend: the PostgREST query surface
// under /rest/v1 and the auth service under /auth/v1.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sabawaheed27/motofix-europe/internal/adapters/observability"
	"github.com/sabawaheed27/motofix-europe/internal/adapters/retry"
)

type Options struct {
	URL         string
	Key         string
	Elevated    bool // Key is the service role key; user tokens are ignored
	RPS         int
	ReadRetries int
	HTTPClient  *http.Client
}

type Client struct {
	base     string
	key      string
	elevated bool
	hc       *http.Client
	rl       *rate.Limiter
	retries  int
}

func New(o Options) (*Client, error) {
	if o.URL == "" {
		return nil, fmt.Errorf("supabase: URL is required")
	}
	if o.Key == "" {
		return nil, fmt.Errorf("supabase: key is required")
	}
	if o.RPS <= 0 {
		o.RPS = 20
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		base:     strings.TrimRight(o.URL, "/"),
		key:      o.Key,
		elevated: o.Elevated,
		hc:       hc,
		rl:       rate.NewLimiter(rate.Limit(o.RPS), o.RPS),
		retries:  o.ReadRetries,
	}, nil
}

type ctxKey struct{}

// WithAccessToken makes calls on ctx run as the signed-in user, so the
// backend's row-level security sees that identity.
func WithAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, token)
}

func accessToken(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

type request struct {
	method   string
	path     string // e.g. /rest/v1/motorcycle_shops
	endpoint string // metrics label
	query    url.Values
	body     any
	prefer   string
	bearer   string // overrides ctx token / key
}

// do sends r and decodes a 2xx JSON body into out (when non-nil).
// Only GETs are retried, and only when ReadRetries > 0.
func (c *Client) do(ctx context.Context, r request, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("supabase: encode body: %w", err)
		}
		payload = b
	}

	u := c.base + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	attempts := 1
	if r.method == http.MethodGet && c.retries > 0 {
		attempts += c.retries
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, u, body)
		if err != nil {
			return err
		}
		req.Header.Set("apikey", c.key)
		req.Header.Set("Authorization", "Bearer "+c.bearer(ctx, r))
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if r.prefer != "" {
			req.Header.Set("Prefer", r.prefer)
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("supabase", r.endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i+1 < attempts && retry.Sleep(ctx, retry.Backoff(i)) {
				continue
			}
			return lastErr
		}
		observability.ObserveExternal("supabase", r.endpoint, resp.StatusCode, time.Since(start))

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			defer resp.Body.Close()
			if out == nil || resp.StatusCode == http.StatusNoContent {
				_, _ = io.Copy(io.Discard, resp.Body)
				return nil
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("supabase: decode %s: %w", r.endpoint, err)
			}
			return nil
		}

		apiErr := decodeError(resp)
		wait := retry.After(resp)
		resp.Body.Close()
		if retry.Transient(resp.StatusCode) && i+1 < attempts {
			lastErr = apiErr
			if wait == 0 {
				wait = retry.Backoff(i)
			}
			if retry.Sleep(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		return apiErr
	}
	return lastErr
}

func (c *Client) bearer(ctx context.Context, r request) string {
	if r.bearer != "" {
		return r.bearer
	}
	if !c.elevated {
		if t := accessToken(ctx); t != "" {
			return t
		}
	}
	return c.key
}
