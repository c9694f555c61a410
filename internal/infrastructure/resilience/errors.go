package resilience

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrCircuitOpen is returned without invoking the operation while its
	// breaker is rejecting calls.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrTimeout is synthesized when an attempt misses its deadline.
	ErrTimeout = errors.New("operation timed out")
)

// StatusError is a transport failure carrying a numeric HTTP status code.
// Classification prefers the code over message matching.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

// defaultRetryableErrors lists message substrings treated as transient when
// the error carries no status code.
var defaultRetryableErrors = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"i/o timeout",
	"unexpected EOF",
}

// Retryable reports whether err is worth retrying. Timeouts always are.
// Errors with a status code are retryable only for 408, 429 and the 5xx
// family; other codes (notably 4xx validation failures) never retry.
// Errors without a code retry when their message matches one of the
// configured indicators.
func Retryable(err error, indicators []string) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrTimeout) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code == http.StatusRequestTimeout:
			return true
		case statusErr.Code == http.StatusTooManyRequests:
			return true
		case statusErr.Code >= 500 && statusErr.Code <= 599:
			return true
		default:
			return false
		}
	}

	if indicators == nil {
		indicators = defaultRetryableErrors
	}

	msg := err.Error()
	for _, indicator := range indicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}
