/*
Package resilience provides per-operation retry orchestration built on a
circuit breaker state machine.

# Overview

This package protects callers from cascading failures when invoking unreliable
remote dependencies. Every named operation gets its own circuit breaker;
a retry manager owns the breaker registry, runs the retry loop, races each
attempt against a deadline, and spaces attempts with jittered exponential
backoff.

# Usage

	manager := resilience.NewManager(resilience.DefaultConfig(),
		resilience.WithLogger(logger.Logger),
	)

	result := manager.Execute(ctx, "GET:/queue", func(ctx context.Context) (interface{}, error) {
		return client.Fetch(ctx)
	}, nil)

	if !result.Success {
		log.Printf("gave up after %d attempts: %v", result.Attempts, result.Err)
	}

# States

- Closed: normal operation, calls pass through
- Open: dependency unhealthy, calls fail fast without being invoked
- Half-Open: cautious trial, limited calls probe for recovery

# Pattern

	Closed --[failures >= threshold]-> Open --[cooldown]-> Half-Open --[2 successes]-> Closed
	                                                          |
	                                                      [failure]
	                                                          |
	                                                          v
	                                                        Open

State is in-memory only and resets on process restart. Circuit state is never
shared across processes.
*/
package resilience
