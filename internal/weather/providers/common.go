package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/akovalyk/weather-resolver/internal/metrics"
)

// HTTPClientConfig bundles the shared HTTP client and retry settings.
type HTTPClientConfig struct {
	Client          *http.Client
	MaxElapsedTime  time.Duration
	InitialInterval time.Duration
}

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// newBreaker returns the standard per-provider circuit breaker.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// fetchJSON executes one upstream request through the provider's circuit
// breaker and decodes the response body into v.
//
// Retry policy: only rate limiting (429) is retried, with exponential
// backoff. Server errors, bad payloads and network failures are permanent;
// the resolver's fallback chain is the recovery mechanism, so a failing
// stage must surface immediately rather than burn time re-asking the same
// provider.
func fetchJSON(ctx context.Context, cfg HTTPClientConfig, cb *gobreaker.CircuitBreaker, providerName string, buildRequest func() (*http.Request, error), v any) error {
	body, err := fetchBody(ctx, cfg, cb, providerName, buildRequest)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// fetchBody is fetchJSON without the decode step, for callers that need
// the raw payload.
func fetchBody(ctx context.Context, cfg HTTPClientConfig, cb *gobreaker.CircuitBreaker, providerName string, buildRequest func() (*http.Request, error)) ([]byte, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}

	var body []byte
	operation := func() error {
		req, err := buildRequest()
		if err != nil {
			return backoff.Permanent(err)
		}
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				metrics.UpstreamRequests.WithLabelValues(providerName, "network_error").Inc()
				return nil, execErr
			}
			defer resp.Body.Close()

			metrics.UpstreamRequests.WithLabelValues(providerName, strconv.Itoa(resp.StatusCode)).Inc()

			if resp.StatusCode == http.StatusTooManyRequests {
				return nil, errRateLimited
			}
			if resp.StatusCode >= 500 {
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				return nil, fmt.Errorf("%w: %d: %s", errUnexpected, resp.StatusCode, b)
			}

			b, readErr := io.ReadAll(resp.Body)
			if readErr != nil {
				return nil, fmt.Errorf("read body: %w", readErr)
			}
			return b, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(fmt.Errorf("%w: %v", errCircuitOpen, err))
			}
			if errors.Is(err, errRateLimited) {
				return err
			}
			return backoff.Permanent(err)
		}

		body = result.([]byte)
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	if bo.InitialInterval == 0 {
		bo.InitialInterval = 500 * time.Millisecond
	}
	bo.MaxElapsedTime = cfg.MaxElapsedTime
	if bo.MaxElapsedTime == 0 {
		bo.MaxElapsedTime = 30 * time.Second
	}

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}
