// Package places fetches place details from the Google Places web service.
package places

import (
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
	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

// detailFields are the attributes the shop mapper understands.
var detailFields = []string{
	"place_id", "name", "formatted_address", "address_components", "geometry/location",
	"international_phone_number", "formatted_phone_number", "website", "rating",
	"user_ratings_total", "opening_hours/weekday_text", "types", "business_status",
}

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("places API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var (
	ErrDenied     = errors.New("places: request denied")
	ErrOverQuota  = errors.New("places: over query limit")
	ErrBadRequest = errors.New("places: invalid request")
)

// GetPlaceDetails returns the "result" object of a details lookup.
func (c *Client) GetPlaceDetails(ctx context.Context, placeID string) (map[string]any, error) {
	q := url.Values{
		"place_id": {placeID},
		"fields":   {strings.Join(detailFields, ",")},
		"key":      {c.key},
	}
	var env struct {
		Status       string         `json:"status"`
		ErrorMessage string         `json:"error_message"`
		Result       map[string]any `json:"result"`
	}
	if err := c.get(ctx, c.base+"/details/json?"+q.Encode(), &env); err != nil {
		return nil, err
	}
	switch env.Status {
	case "OK":
		return env.Result, nil
	case "NOT_FOUND", "ZERO_RESULTS":
		return nil, domain.ErrNotFound
	case "REQUEST_DENIED":
		return nil, fmt.Errorf("%w: %s", ErrDenied, env.ErrorMessage)
	case "OVER_QUERY_LIMIT":
		return nil, ErrOverQuota
	case "INVALID_REQUEST":
		return nil, fmt.Errorf("%w: %s", ErrBadRequest, env.ErrorMessage)
	default:
		return nil, fmt.Errorf("places: status %s: %s", env.Status, env.ErrorMessage)
	}
}

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "motofix-ingestor/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("places", "details", 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && retry.Sleep(ctx, retry.Backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("places", "details", resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return domain.ErrNotFound

		case retry.Transient(resp.StatusCode):
			wait := retry.After(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = retry.Backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && retry.Sleep(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return lastErr
}
