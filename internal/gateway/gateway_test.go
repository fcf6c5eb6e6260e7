package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personagen/internal/types"
)

func newTestClient(baseURL string, maxAttempts int) *Client {
	return New(Config{
		BaseURL:        baseURL,
		Credentials:    StaticCredential("test-token"),
		AttemptTimeout: 2 * time.Second,
		MaxAttempts:    maxAttempts,
		BackoffBase:    time.Millisecond,
	})
}

func TestCall_SuccessParsesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/generate-openai", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "a prompt", payload["prompt"])

		w.Write([]byte(`{"imageUrl":"https://img.example/1.png"}`))
	}))
	defer server.Close()

	raw, err := newTestClient(server.URL, 3).Call(context.Background(), "generate-openai", map[string]string{"prompt": "a prompt"})
	require.NoError(t, err)

	var result struct {
		ImageURL string `json:"imageUrl"`
	}
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, "https://img.example/1.png", result.ImageURL)
}

func TestCall_RetriesOn503ThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			http.Error(w, "backend warming up", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 3).Call(context.Background(), "generate", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load(), "503s on attempts 1 and 2, success on 3")
}

func TestCall_404FailsImmediately(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, `{"error":"no such endpoint"}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 3).Call(context.Background(), "missing", nil)

	var apiErr *types.ProviderAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Contains(t, apiErr.Body, "no such endpoint")
	assert.Equal(t, int32(1), attempts.Load(), "4xx must not be retried")
}

func TestCall_500FailsImmediately(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 3).Call(context.Background(), "generate", nil)

	var apiErr *types.ProviderAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, int32(1), attempts.Load(), "500 is not in the retryable set")
}

func TestCall_ExhaustionReturnsGatewayError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "still down", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 3).Call(context.Background(), "generate", nil)

	var gwErr *types.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, 3, gwErr.Attempts)
	assert.Equal(t, int32(3), attempts.Load())

	var transport *types.TransportError
	require.ErrorAs(t, gwErr.Last, &transport)
	assert.Equal(t, http.StatusBadGateway, transport.Status)
	assert.Contains(t, transport.Err.Error(), "still down", "error body must be captured")
}

func TestCall_AttemptTimeoutIsRetryable(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			time.Sleep(300 * time.Millisecond)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := New(Config{
		BaseURL:        server.URL,
		Credentials:    StaticCredential("test-token"),
		AttemptTimeout: 50 * time.Millisecond,
		MaxAttempts:    3,
		BackoffBase:    time.Millisecond,
	})

	_, err := client.Call(context.Background(), "generate", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load(), "timed-out attempt must be retried")
}

func TestCall_MissingCredentialFailsWithoutNetwork(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Credentials: StaticCredential("")})
	_, err := client.Call(context.Background(), "generate", nil)

	var authErr *types.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Zero(t, attempts.Load(), "auth failure must not reach the network")
}

func TestCall_UnconfiguredBaseURL(t *testing.T) {
	client := New(Config{Credentials: StaticCredential("token")})
	assert.False(t, client.Configured())

	_, err := client.Call(context.Background(), "generate", nil)
	var authErr *types.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestCall_ParentCancellationIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newTestClient(server.URL, 3).Call(ctx, "generate", nil)
	assert.True(t, errors.Is(err, context.Canceled))
}
