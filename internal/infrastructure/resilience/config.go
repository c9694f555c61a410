package resilience

import (
	"time"
)

// Config bounds a single Execute call. Zero-valued fields of an override
// keep the manager's defaults; it is a recognized-options object, not a
// full replacement.
type Config struct {
	// MaxAttempts is the hard ceiling on attempts per call
	MaxAttempts int
	// BaseDelay and MaxDelay bound the jittered exponential backoff
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Timeout is the per-attempt deadline
	Timeout time.Duration
	// RetryableErrors are message substrings treated as transient when the
	// error carries no status code
	RetryableErrors []string
	// BreakerThreshold is the cumulative failure count that opens a closed
	// breaker
	BreakerThreshold int
	// BreakerCooldown is how long an open breaker rejects calls before it
	// becomes eligible for half-open probing
	BreakerCooldown time.Duration
}

// DefaultConfig returns production-ready retry defaults
func DefaultConfig() Config {
	return Config{
		MaxAttempts:      3,
		BaseDelay:        time.Second,
		MaxDelay:         30 * time.Second,
		Timeout:          10 * time.Second,
		RetryableErrors:  defaultRetryableErrors,
		BreakerThreshold: 5,
		BreakerCooldown:  60 * time.Second,
	}
}

// Merge overlays the set fields of override onto c. A nil override returns
// c unchanged.
func (c Config) Merge(override *Config) Config {
	if override == nil {
		return c
	}

	if override.MaxAttempts > 0 {
		c.MaxAttempts = override.MaxAttempts
	}
	if override.BaseDelay > 0 {
		c.BaseDelay = override.BaseDelay
	}
	if override.MaxDelay > 0 {
		c.MaxDelay = override.MaxDelay
	}
	if override.Timeout > 0 {
		c.Timeout = override.Timeout
	}
	if override.RetryableErrors != nil {
		c.RetryableErrors = override.RetryableErrors
	}
	if override.BreakerThreshold > 0 {
		c.BreakerThreshold = override.BreakerThreshold
	}
	if override.BreakerCooldown > 0 {
		c.BreakerCooldown = override.BreakerCooldown
	}
	return c
}
