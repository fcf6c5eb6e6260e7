package types

import "fmt"

// ValidationError reports an empty or malformed request. Never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// AuthError reports that no usable gateway credential could be obtained.
// Not retried; adapters fall back to the direct provider path instead.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("gateway auth: %s", e.Reason)
}

// ConfigurationError reports a locally detectable misconfiguration: a direct
// path without a credential, or a reference image that could not be fetched
// or encoded. Terminal for that path, never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("not configured: %s", e.Reason)
}

// TransportError reports a retryable transport-level failure: an attempt
// timeout or one of the retryable HTTP statuses (502, 503, 504).
type TransportError struct {
	Op     string // "timeout" or "http"
	Status int    // set when Op == "http"
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport failure (%s %d): %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("transport failure (%s): %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProviderAPIError reports a non-retryable HTTP error from either call path,
// carrying the status and whatever body the provider returned (JSON or text).
type ProviderAPIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *ProviderAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, e.Body)
}

// GatewayError reports retry exhaustion on the managed gateway. Last holds
// the final observed failure.
type GatewayError struct {
	Endpoint string
	Attempts int
	Last     error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway call %q failed after %d attempts: %v", e.Endpoint, e.Attempts, e.Last)
}

func (e *GatewayError) Unwrap() error { return e.Last }

// PersistenceError reports a failed write to the token backing store. It is
// logged and contained inside the store layer; the in-memory map stays
// authoritative and nothing is rolled back.
type PersistenceError struct {
	Op  string // "upsert" or "load"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("token persistence (%s) failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// RetryableStatus reports whether an HTTP status is in the retryable set.
func RetryableStatus(status int) bool {
	switch status {
	case 502, 503, 504:
		return true
	}
	return false
}
