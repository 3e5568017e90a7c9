package clients

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// NetworkError is returned when the backend could not be reached at all
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError is returned when a single attempt exceeded the request timeout
type TimeoutError struct {
	Endpoint string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.Endpoint, e.Timeout)
}

// HTTPError is returned for any non-2xx response
type HTTPError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API returned status code: %d for %s, response: %s", e.StatusCode, e.Endpoint, e.Body)
}

// DecodeError is returned when a response body could not be parsed
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response from %s: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsAsleep reports whether err looks like a sleeping backend: unreachable,
// timed out, or answering with a 5xx.
func IsAsleep(err error) bool {
	var netErr *NetworkError
	var timeoutErr *TimeoutError
	var httpErr *HTTPError
	switch {
	case errors.As(err, &netErr), errors.As(err, &timeoutErr):
		return true
	case errors.As(err, &httpErr):
		return httpErr.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}

// StatusCode extracts the HTTP status from err, or 0 when err is not an HTTPError
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
