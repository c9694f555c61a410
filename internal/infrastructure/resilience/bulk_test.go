package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteBulkClosedRunsConcurrently(t *testing.T) {
	manager := NewManager(fastConfig())

	var inFlight, peak atomic.Int32
	op := func(ctx context.Context) (interface{}, error) {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)

		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}

		time.Sleep(30 * time.Millisecond)
		return "ok", nil
	}

	results := manager.ExecuteBulk(context.Background(), []NamedOperation{
		{Name: "a", Op: op},
		{Name: "b", Op: op},
		{Name: "c", Op: op},
	}, nil)

	require.Len(t, results, 3)
	for name, result := range results {
		assert.True(t, result.Success, name)
		assert.Equal(t, 1, result.Attempts, name)
	}
	assert.Greater(t, peak.Load(), int32(1))
}

func TestExecuteBulkOpenNeverInvoked(t *testing.T) {
	manager := NewManager(fastConfig())
	override := &Config{MaxAttempts: 1, BreakerThreshold: 1}

	manager.Execute(context.Background(), "down", func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("connection refused")
	}, override)
	require.Equal(t, StateOpen, manager.CircuitStats()["down"].State)

	var invoked atomic.Bool
	results := manager.ExecuteBulk(context.Background(), []NamedOperation{
		{Name: "down", Op: func(ctx context.Context) (interface{}, error) {
			invoked.Store(true)
			return "unreachable", nil
		}},
		{Name: "up", Op: func(ctx context.Context) (interface{}, error) {
			return "ok", nil
		}},
	}, override)

	assert.False(t, invoked.Load())

	down := results["down"]
	assert.False(t, down.Success)
	assert.Equal(t, 0, down.Attempts)
	assert.ErrorIs(t, down.Err, ErrCircuitOpen)
	assert.Equal(t, StateOpen, down.CircuitState)

	assert.True(t, results["up"].Success)
}

func TestExecuteBulkHalfOpenRunsSequentially(t *testing.T) {
	manager := NewManager(fastConfig())
	override := &Config{
		MaxAttempts:      1,
		BreakerThreshold: 1,
		BreakerCooldown:  10 * time.Millisecond,
	}

	// Trip both breakers, then wait out the cooldown so both are eligible
	// for half-open probing
	for _, name := range []string{"probe-a", "probe-b"} {
		manager.Execute(context.Background(), name, func(ctx context.Context) (interface{}, error) {
			return nil, errors.New("connection refused")
		}, override)
	}
	time.Sleep(20 * time.Millisecond)

	var inFlight, peak atomic.Int32
	probe := func(ctx context.Context) (interface{}, error) {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)

		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}

		time.Sleep(20 * time.Millisecond)
		return "ok", nil
	}

	results := manager.ExecuteBulk(context.Background(), []NamedOperation{
		{Name: "probe-a", Op: probe},
		{Name: "probe-b", Op: probe},
	}, override)

	// Probes against recovering dependencies go one at a time
	assert.Equal(t, int32(1), peak.Load())
	for name, result := range results {
		assert.True(t, result.Success, name)
	}
}

func TestExecuteBulkEmpty(t *testing.T) {
	manager := NewManager(fastConfig())

	results := manager.ExecuteBulk(context.Background(), nil, nil)
	assert.Empty(t, results)
}
