package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coalesceio/resilient/internal/infrastructure/resilience"
)

func TestCallerDecodesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": ["a", "b"]}`))
	}))
	defer server.Close()

	caller := New(Config{BaseURL: server.URL})

	data, err := caller.Do(context.Background(), "GET", "/queue", nil)
	require.NoError(t, err)

	decoded, ok := data.(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, decoded["items"], 2)
}

func TestCallerStatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	caller := New(Config{BaseURL: server.URL})

	_, err := caller.Do(context.Background(), "GET", "/queue", nil)
	require.Error(t, err)

	statusErr, ok := err.(*resilience.StatusError)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Equal(t, "backend down", statusErr.Message)
	assert.True(t, resilience.Retryable(err, nil))
}

func TestCallerValidationErrorNotRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing field", http.StatusBadRequest)
	}))
	defer server.Close()

	caller := New(Config{BaseURL: server.URL})

	_, err := caller.Do(context.Background(), "POST", "/sync", map[string]string{})
	require.Error(t, err)
	assert.False(t, resilience.Retryable(err, nil))
}

func TestCallerThroughManager(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "warming up", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	caller := New(Config{BaseURL: server.URL})
	manager := resilience.NewManager(resilience.DefaultConfig())

	result := manager.Execute(context.Background(), "GET:/queue",
		caller.Operation("GET", "/queue", nil),
		&resilience.Config{BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
	)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCallerRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	caller := New(Config{
		BaseURL:           server.URL,
		RequestsPerSecond: 50,
		Burst:             1,
	})

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := caller.Do(context.Background(), "GET", "/ping", nil)
		require.NoError(t, err)
	}

	// Burst of 1 at 50 rps forces ~20ms spacing after the first call
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
