package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithTimeoutSuccess(t *testing.T) {
	value, err := runWithTimeout(context.Background(), time.Second, func(ctx context.Context) (interface{}, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", value)
}

func TestRunWithTimeoutDeadline(t *testing.T) {
	started := time.Now()
	_, err := runWithTimeout(context.Background(), 20*time.Millisecond, func(ctx context.Context) (interface{}, error) {
		select {
		case <-time.After(time.Second):
			return "late", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(started), 500*time.Millisecond)
}

func TestRunWithTimeoutCancelsLoser(t *testing.T) {
	cancelled := make(chan struct{})

	_, err := runWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (interface{}, error) {
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	})
	require.ErrorIs(t, err, ErrTimeout)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("operation never observed cancellation")
	}
}

func TestRunWithTimeoutParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := runWithTimeout(ctx, time.Minute, func(ctx context.Context) (interface{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	// Parent cancellation is not a timeout
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestRunWithTimeoutOperationError(t *testing.T) {
	boom := errors.New("boom")

	_, err := runWithTimeout(context.Background(), time.Second, func(ctx context.Context) (interface{}, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
}
