package resilience

import (
	"context"
	"sync"
)

// NamedOperation pairs an operation with its breaker key for bulk execution
type NamedOperation struct {
	Name string
	Op   Operation
}

// ExecuteBulk runs a batch of named operations, partitioned by the current
// state of each operation's breaker (read once, at batch start):
//
//   - closed: all run concurrently; each name has its own breaker, so the
//     fan-out is independent
//   - open: never invoked; each receives a synthesized circuit-open result
//   - half-open: run strictly one at a time, limiting probe traffic against
//     a recovering dependency
func (m *Manager) ExecuteBulk(ctx context.Context, ops []NamedOperation, override *Config) map[string]*Result {
	cfg := m.defaults.Merge(override)

	var closed, halfOpen, open []NamedOperation
	for _, op := range ops {
		switch m.breaker(op.Name, cfg).State() {
		case StateOpen:
			open = append(open, op)
		case StateHalfOpen:
			halfOpen = append(halfOpen, op)
		default:
			closed = append(closed, op)
		}
	}

	results := make(map[string]*Result, len(ops))

	for _, op := range open {
		results[op.Name] = m.reject(op.Name)
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, op := range closed {
		wg.Add(1)
		go func(op NamedOperation) {
			defer wg.Done()

			result := m.Execute(ctx, op.Name, op.Op, override)

			mu.Lock()
			results[op.Name] = result
			mu.Unlock()
		}(op)
	}
	wg.Wait()

	// A half-open breaker is on trial; flooding it with parallel probes
	// defeats controlled recovery
	for _, op := range halfOpen {
		results[op.Name] = m.Execute(ctx, op.Name, op.Op, override)
	}

	return results
}
