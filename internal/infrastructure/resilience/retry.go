package resilience

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Result reports the outcome of one Execute call. Exactly one of Data and
// Err is set, except the circuit-open short-circuit which carries no data
// and zero attempts.
type Result struct {
	Success       bool
	Data          interface{}
	Err           error
	Attempts      int
	TotalDuration time.Duration
	CircuitState  State
}

// MetricsRecorder receives retry and breaker lifecycle events. Recording is
// informational and must never block.
type MetricsRecorder interface {
	RecordAttempt(operation, outcome string, duration time.Duration)
	RecordRejection(operation string)
	RecordStateChange(operation string, from, to State)
}

// Manager orchestrates retries for named operations. It exclusively owns
// the breaker registry: callers address breakers only by operation name, so
// the manager is the sole mutator of circuit state.
type Manager struct {
	defaults Config
	logger   *zap.Logger
	metrics  MetricsRecorder
	random   func() float64

	mu       sync.RWMutex
	breakers map[string]*Breaker
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger attaches a structured logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics attaches a metrics recorder
func WithMetrics(metrics MetricsRecorder) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithRand injects the jitter source, for deterministic tests. The source
// is serialized internally.
func WithRand(rnd *rand.Rand) Option {
	var mu sync.Mutex
	return func(m *Manager) {
		m.random = func() float64 {
			mu.Lock()
			defer mu.Unlock()
			return rnd.Float64()
		}
	}
}

// NewManager creates a retry manager with its own breaker registry
func NewManager(defaults Config, opts ...Option) *Manager {
	m := &Manager{
		defaults: defaults,
		logger:   zap.NewNop(),
		random:   rand.Float64,
		breakers: make(map[string]*Breaker),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Execute runs op under retry protection. The operation name groups related
// calls under one breaker (e.g. "GET:/queue"); override merges onto the
// manager's defaults. Failures are captured in the Result rather than
// returned: callers inspect Success.
func (m *Manager) Execute(ctx context.Context, name string, op Operation, override *Config) *Result {
	cfg := m.defaults.Merge(override)
	breaker := m.breaker(name, cfg)

	if breaker.State() == StateOpen {
		return m.reject(name)
	}

	start := time.Now()

	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		attempts = attempt
		attemptStart := time.Now()

		value, err := runWithTimeout(ctx, cfg.Timeout, op)
		if err == nil {
			breaker.RecordSuccess()
			m.recordAttempt(name, "success", time.Since(attemptStart))

			return &Result{
				Success:       true,
				Data:          value,
				Attempts:      attempt,
				TotalDuration: time.Since(start),
				CircuitState:  breaker.State(),
			}
		}

		lastErr = err
		breaker.RecordFailure()
		m.recordAttempt(name, "failure", time.Since(attemptStart))

		if !Retryable(err, cfg.RetryableErrors) {
			m.logger.Debug("error not retryable, giving up",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			break
		}

		// The breaker may have just opened on our failure; further
		// attempts would be rejected anyway
		if breaker.State() == StateOpen {
			break
		}

		if attempt < cfg.MaxAttempts {
			delay := Delay(attempt, cfg.BaseDelay, cfg.MaxDelay, m.random)
			m.logger.Debug("retrying after backoff",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err),
			)

			if err := sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
		}
	}

	m.logger.Warn("operation failed",
		zap.String("operation", name),
		zap.Int("attempts", attempts),
		zap.Error(lastErr),
	)

	return &Result{
		Success:       false,
		Err:           lastErr,
		Attempts:      attempts,
		TotalDuration: time.Since(start),
		CircuitState:  breaker.State(),
	}
}

// CircuitStats returns a snapshot of every registered breaker
func (m *Manager) CircuitStats() map[string]Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]Stats, len(m.breakers))
	for name, breaker := range m.breakers {
		stats[name] = breaker.Stats()
	}
	return stats
}

// ResetCircuit forces the named breaker closed. It reports whether a
// breaker with that name exists.
func (m *Manager) ResetCircuit(name string) bool {
	m.mu.RLock()
	breaker, exists := m.breakers[name]
	m.mu.RUnlock()

	if !exists {
		return false
	}

	breaker.Reset()
	m.logger.Info("circuit reset", zap.String("operation", name))
	return true
}

// ResetAllCircuits forces every registered breaker closed
func (m *Manager) ResetAllCircuits() {
	m.mu.RLock()
	breakers := make([]*Breaker, 0, len(m.breakers))
	for _, breaker := range m.breakers {
		breakers = append(breakers, breaker)
	}
	m.mu.RUnlock()

	for _, breaker := range breakers {
		breaker.Reset()
	}
	m.logger.Info("all circuits reset", zap.Int("count", len(breakers)))
}

// breaker resolves the breaker for name, creating it lazily on first use
func (m *Manager) breaker(name string, cfg Config) *Breaker {
	m.mu.RLock()
	breaker, exists := m.breakers[name]
	m.mu.RUnlock()

	if exists {
		return breaker
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if breaker, exists = m.breakers[name]; exists {
		return breaker
	}

	breaker = NewBreaker(name, Settings{
		Threshold:     cfg.BreakerThreshold,
		Cooldown:      cfg.BreakerCooldown,
		OnStateChange: m.onStateChange,
	})
	m.breakers[name] = breaker

	m.logger.Debug("circuit breaker created", zap.String("operation", name))
	return breaker
}

// reject synthesizes the circuit-open result: no attempts, no invocation
func (m *Manager) reject(name string) *Result {
	m.logger.Warn("circuit open, rejecting call", zap.String("operation", name))
	if m.metrics != nil {
		m.metrics.RecordRejection(name)
	}

	return &Result{
		Success:      false,
		Err:          fmt.Errorf("%s: %w", name, ErrCircuitOpen),
		CircuitState: StateOpen,
	}
}

func (m *Manager) onStateChange(name string, from, to State) {
	m.logger.Warn("circuit state changed",
		zap.String("operation", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
	if m.metrics != nil {
		m.metrics.RecordStateChange(name, from, to)
	}
}

func (m *Manager) recordAttempt(name, outcome string, duration time.Duration) {
	if m.metrics != nil {
		m.metrics.RecordAttempt(name, outcome, duration)
	}
}

// sleep waits out the backoff delay but respects context cancellation
func sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
