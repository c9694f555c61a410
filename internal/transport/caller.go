// Package transport provides the remote-call collaborator consumed by the
// resilience manager: an HTTP caller whose failures carry status codes the
// retry loop can classify.
package transport

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/coalesceio/resilient/internal/infrastructure/resilience"
)

// Config defines a Caller
type Config struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string

	// RequestsPerSecond caps outbound traffic with a local token bucket;
	// zero means unlimited
	RequestsPerSecond float64
	Burst             int
}

// Caller wraps resty with a local token-bucket limiter. Resty's own retry
// is disabled: scheduling retries is the resilience manager's job, and a
// second retry loop underneath it would multiply attempts.
type Caller struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// New creates an HTTP caller
func New(cfg Config) *Caller {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetRetryCount(0).
		SetHeader("User-Agent", "resilient-http/1.0")

	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	for key, value := range cfg.Headers {
		client.SetHeader(key, value)
	}

	limit := rate.Inf
	burst := 0
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = cfg.Burst
		if burst <= 0 {
			burst = 1
		}
	}

	return &Caller{
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Operation adapts a request into the shape the resilience manager executes.
// The conventional operation name for it is "METHOD:path".
func (c *Caller) Operation(method, path string, body interface{}) resilience.Operation {
	return func(ctx context.Context) (interface{}, error) {
		return c.Do(ctx, method, path, body)
	}
}

// Do performs one HTTP request. Non-2xx responses become StatusError so the
// retry loop can distinguish transient codes from validation failures;
// connection-level failures surface as-is for message-based classification.
// JSON responses are decoded, everything else is returned as a string.
func (c *Caller) Do(ctx context.Context, method, path string, body interface{}) (interface{}, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	request := c.client.R().SetContext(ctx)
	if body != nil {
		request.SetBody(body)
	}

	response, err := request.Execute(method, path)
	if err != nil {
		return nil, err
	}

	if response.IsError() {
		return nil, &resilience.StatusError{
			Code:    response.StatusCode(),
			Message: strings.TrimSpace(string(response.Body())),
		}
	}

	return decode(response)
}

func decode(response *resty.Response) (interface{}, error) {
	payload := response.Body()
	if len(payload) == 0 {
		return nil, nil
	}

	if strings.Contains(response.Header().Get("Content-Type"), "application/json") {
		var decoded interface{}
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	}

	return string(payload), nil
}
