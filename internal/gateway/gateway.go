// Package gateway implements the managed remote execution client: bearer
// auth, a per-attempt timeout, and a bounded sequential retry with linear
// backoff. Adapters try the gateway first and fall back to direct provider
// calls when it fails.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"personagen/internal/types"
)

const (
	// DefaultAttemptTimeout bounds a single gateway attempt.
	DefaultAttemptTimeout = 60 * time.Second

	// DefaultMaxAttempts is the total attempt bound (1 call + 2 retries).
	DefaultMaxAttempts = 3

	// DefaultBackoffBase is the linear backoff unit between attempts:
	// delay = base * attemptNumber.
	DefaultBackoffBase = 1000 * time.Millisecond
)

// CredentialSource supplies the bearer credential for gateway calls.
// Implementations must not perform network I/O for the common case.
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticCredential is a fixed bearer token, typically from config.
type StaticCredential string

func (c StaticCredential) Token(ctx context.Context) (string, error) {
	return string(c), nil
}

// Config configures a gateway Client.
type Config struct {
	BaseURL        string
	Credentials    CredentialSource
	AttemptTimeout time.Duration
	MaxAttempts    int
	BackoffBase    time.Duration
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

// Client calls named endpoints on the managed gateway. It holds no shared
// mutable state beyond the injected http.Client, so one instance is safe for
// concurrent use.
type Client struct {
	baseURL        string
	creds          CredentialSource
	attemptTimeout time.Duration
	maxAttempts    int
	backoffBase    time.Duration
	httpClient     *http.Client
	logger         *zap.Logger
}

// New creates a gateway client. The http.Client is injected so tests can
// substitute transports; per-attempt deadlines come from contexts, not the
// client's Timeout field.
func New(cfg Config) *Client {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		creds:          cfg.Credentials,
		attemptTimeout: cfg.AttemptTimeout,
		maxAttempts:    cfg.MaxAttempts,
		backoffBase:    cfg.BackoffBase,
		httpClient:     cfg.HTTPClient,
		logger:         cfg.Logger,
	}
}

// Configured reports whether a base endpoint is set. This is a pure local
// check; callers use it to skip the gateway path without a network attempt.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Call POSTs the JSON payload to <base>/<endpointName> and returns the raw
// JSON response body. Retries are strictly sequential, bounded, and only
// happen for attempt timeouts and HTTP 502/503/504; every other error fails
// immediately. On exhaustion the returned GatewayError carries the last
// observed failure.
func (c *Client) Call(ctx context.Context, endpointName string, payload any) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, &types.AuthError{Reason: "gateway endpoint not configured"}
	}
	if c.creds == nil {
		return nil, &types.AuthError{Reason: "no credential source configured"}
	}

	token, err := c.creds.Token(ctx)
	if err != nil {
		return nil, &types.AuthError{Reason: err.Error()}
	}
	if token == "" {
		return nil, &types.AuthError{Reason: "empty bearer credential"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var last error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			// Linear backoff: base * attemptNumber of the attempt that failed.
			delay := c.backoffBase * time.Duration(attempt-1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			c.logger.Debug("retrying gateway call",
				zap.String("endpoint", endpointName),
				zap.Int("attempt", attempt))
		}

		raw, err := c.attempt(ctx, endpointName, token, body)
		if err == nil {
			return raw, nil
		}
		last = err

		var transport *types.TransportError
		if !errors.As(err, &transport) {
			// Non-retryable: 4xx/500/501, parent cancellation, bad response.
			return nil, err
		}
		c.logger.Warn("gateway attempt failed",
			zap.String("endpoint", endpointName),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	return nil, &types.GatewayError{
		Endpoint: endpointName,
		Attempts: c.maxAttempts,
		Last:     last,
	}
}

// attempt performs exactly one bounded HTTP round trip.
func (c *Client) attempt(ctx context.Context, endpointName, token string, body []byte) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost,
		c.baseURL+"/"+strings.TrimLeft(endpointName, "/"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Parent cancellation is terminal; only this attempt's deadline is a
		// retryable timeout.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || attemptCtx.Err() == context.DeadlineExceeded {
			return nil, &types.TransportError{Op: "timeout", Err: fmt.Errorf("attempt exceeded %s: %w", c.attemptTimeout, err)}
		}
		return nil, &types.TransportError{Op: "network", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.TransportError{Op: "network", Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Non-2xx bodies may be JSON or plain text; either way they go into
		// the error message.
		if types.RetryableStatus(resp.StatusCode) {
			return nil, &types.TransportError{
				Op:     "http",
				Status: resp.StatusCode,
				Err:    fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
			}
		}
		return nil, &types.ProviderAPIError{
			Provider: "gateway",
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(respBody)),
		}
	}

	return json.RawMessage(respBody), nil
}
