package resilience

import (
	"strconv"
	"sync"
	"time"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the state by name
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

// halfOpenSuccesses is the number of consecutive trial successes required
// before a half-open breaker is trusted closed. One success is not
// sufficient evidence of recovery; one failure during trial reopens
// immediately. The asymmetry is intentional.
const halfOpenSuccesses = 2

// Settings configures a circuit breaker
type Settings struct {
	// Threshold is the cumulative failure count that trips a closed breaker
	Threshold int
	// Cooldown is how long an open breaker rejects calls before probing
	Cooldown time.Duration
	// OnStateChange is called whenever the state changes
	OnStateChange func(name string, from State, to State)
}

// Stats is a read-only projection of breaker state
type Stats struct {
	State       State     `json:"state"`
	Failures    int       `json:"failures"`
	SuccessRate float64   `json:"success_rate"`
	LastFailure time.Time `json:"last_failure,omitzero"`
}

// Breaker is a per-operation circuit breaker. State transitions happen only
// inside State, RecordSuccess, RecordFailure and Reset.
type Breaker struct {
	name     string
	settings Settings

	mu                   sync.Mutex
	state                State
	failures             int
	successes            int
	consecutiveSuccesses int
	lastFailure          time.Time
}

// NewBreaker creates a circuit breaker with the given settings
func NewBreaker(name string, settings Settings) *Breaker {
	if settings.Threshold <= 0 {
		settings.Threshold = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 60 * time.Second
	}

	return &Breaker{
		name:     name,
		settings: settings,
		state:    StateClosed,
	}
}

// Name returns the operation name this breaker guards
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state. An open breaker whose cooldown has
// elapsed transitions to half-open as a side effect of being queried; the
// transition is monotonic and idempotent, so near-boundary callers may
// observe either state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && time.Since(b.lastFailure) >= b.settings.Cooldown {
		b.setState(StateHalfOpen)
	}
	return b.state
}

// RecordSuccess records a successful call. While half-open, enough
// consecutive successes close the breaker and reset the failure count.
// While closed it only increments counters.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes++
	b.consecutiveSuccesses++

	if b.state == StateHalfOpen && b.consecutiveSuccesses >= halfOpenSuccesses {
		b.failures = 0
		b.setState(StateClosed)
	}
}

// RecordFailure records a failed call. A closed breaker opens once
// cumulative failures reach the threshold; a half-open breaker reopens on
// the first failure.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.consecutiveSuccesses = 0
	b.lastFailure = time.Now()

	switch b.state {
	case StateClosed:
		if b.failures >= b.settings.Threshold {
			b.setState(StateOpen)
		}
	case StateHalfOpen:
		b.setState(StateOpen)
	}
}

// Reset forces the breaker closed and zeroes all counters
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.successes = 0
	b.consecutiveSuccesses = 0
	b.lastFailure = time.Time{}
	b.setState(StateClosed)
}

// Stats returns a snapshot of the breaker's counters. SuccessRate is 1 when
// the breaker has never been exercised.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	rate := 1.0
	if total := b.successes + b.failures; total > 0 {
		rate = float64(b.successes) / float64(total)
	}

	return Stats{
		State:       b.state,
		Failures:    b.failures,
		SuccessRate: rate,
		LastFailure: b.lastFailure,
	}
}

// setState changes state and fires the callback. Caller must hold b.mu.
func (b *Breaker) setState(state State) {
	if b.state == state {
		return
	}

	prev := b.state
	b.state = state

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, prev, state)
	}
}
