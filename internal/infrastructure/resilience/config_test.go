package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigMerge(t *testing.T) {
	defaults := DefaultConfig()

	t.Run("nil override keeps defaults", func(t *testing.T) {
		assert.Equal(t, defaults, defaults.Merge(nil))
	})

	t.Run("zero fields keep defaults", func(t *testing.T) {
		merged := defaults.Merge(&Config{MaxAttempts: 5})

		assert.Equal(t, 5, merged.MaxAttempts)
		assert.Equal(t, defaults.BaseDelay, merged.BaseDelay)
		assert.Equal(t, defaults.Timeout, merged.Timeout)
		assert.Equal(t, defaults.BreakerThreshold, merged.BreakerThreshold)
	})

	t.Run("set fields win", func(t *testing.T) {
		merged := defaults.Merge(&Config{
			BaseDelay:        50 * time.Millisecond,
			MaxDelay:         time.Second,
			Timeout:          2 * time.Second,
			RetryableErrors:  []string{"flaked"},
			BreakerThreshold: 2,
			BreakerCooldown:  5 * time.Second,
		})

		assert.Equal(t, defaults.MaxAttempts, merged.MaxAttempts)
		assert.Equal(t, 50*time.Millisecond, merged.BaseDelay)
		assert.Equal(t, time.Second, merged.MaxDelay)
		assert.Equal(t, 2*time.Second, merged.Timeout)
		assert.Equal(t, []string{"flaked"}, merged.RetryableErrors)
		assert.Equal(t, 2, merged.BreakerThreshold)
		assert.Equal(t, 5*time.Second, merged.BreakerCooldown)
	})

	t.Run("merge does not mutate the receiver", func(t *testing.T) {
		before := defaults
		_ = defaults.Merge(&Config{MaxAttempts: 9})
		assert.Equal(t, before.MaxAttempts, defaults.MaxAttempts)
	})
}
