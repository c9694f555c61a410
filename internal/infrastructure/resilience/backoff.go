package resilience

import (
	"time"
)

const (
	jitterMin  = 0.75
	jitterSpan = 0.5

	// maxShift caps the exponent so the doubling never overflows int64
	maxShift = 62
)

// Delay computes the jittered exponential backoff for a 1-based attempt
// number: base doubled per attempt, clamped to max, then scaled by a uniform
// factor in [0.75, 1.25). The jitter desynchronizes client populations so a
// recovering dependency is not hit by retries in lockstep. random must
// return a value in [0, 1).
func Delay(attempt int, base, max time.Duration, random func() float64) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}

	shift := attempt - 1
	if shift > maxShift {
		shift = maxShift
	}

	// The shift can wrap; the round trip detects overflow exactly
	delay := max
	if doubled := base << shift; doubled > 0 && doubled>>shift == base && doubled < max {
		delay = doubled
	}

	factor := jitterMin + jitterSpan*random()
	return time.Duration(float64(delay) * factor)
}
