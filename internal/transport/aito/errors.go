package aito

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/AitoDotAI/aito-demo/internal/domain"
)

// Kind classifies a failed predictive database call.
type Kind string

// Error kinds.
const (
	KindNetwork        Kind = "NETWORK_ERROR"
	KindAuth           Kind = "AUTH_ERROR"
	KindRateLimit      Kind = "RATE_LIMIT"
	KindInvalidRequest Kind = "INVALID_REQUEST"
	KindServer         Kind = "SERVER_ERROR"
	KindTimeout        Kind = "TIMEOUT"
)

func (k Kind) sentinel() error {
	switch k {
	case KindAuth:
		return domain.ErrUpstreamAuth
	case KindRateLimit:
		return domain.ErrRateLimited
	case KindInvalidRequest:
		return domain.ErrInvalidRequest
	case KindTimeout:
		return domain.ErrTimeout
	default:
		return domain.ErrUpstreamUnavailable
	}
}

// APIError is a classified failure. It unwraps to the matching domain sentinel
// and to the underlying transport error, if any.
type APIError struct {
	Kind       Kind
	StatusCode int // 0 when no response was received
	Message    string
	Retryable  bool
	RetryAfter time.Duration
	Details    json.RawMessage
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("aito %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("aito %s (%d): %s", e.Kind, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind.sentinel(), e.Err}
	}
	return []error{e.Kind.sentinel()}
}

// networkError classifies a request that produced no response.
func networkError(err error) *APIError {
	return &APIError{
		Kind:      KindNetwork,
		Message:   "Network connection failed. Please check your internet connection.",
		Retryable: true,
		Err:       err,
	}
}

func timeoutError(err error) *APIError {
	return &APIError{
		Kind:      KindTimeout,
		Message:   "Request timed out. Please try again.",
		Retryable: true,
		Err:       err,
	}
}

// Classify maps a non-2xx response to an APIError.
func Classify(status int, header http.Header, body []byte) *APIError {
	var details json.RawMessage
	if json.Valid(body) {
		details = body
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &APIError{
			Kind:       KindAuth,
			StatusCode: status,
			Message:    "Authentication failed. Please check your API key.",
		}
	case http.StatusTooManyRequests:
		return &APIError{
			Kind:       KindRateLimit,
			StatusCode: status,
			Message:    "Rate limit exceeded. Please try again later.",
			Retryable:  true,
			RetryAfter: parseRetryAfter(header.Get("Retry-After")),
		}
	case http.StatusBadRequest:
		msg := "Invalid request parameters."
		var parsed struct {
			Message string `json:"message"`
		}
		if details != nil && json.Unmarshal(details, &parsed) == nil && parsed.Message != "" {
			msg = parsed.Message
		}
		return &APIError{
			Kind:       KindInvalidRequest,
			StatusCode: status,
			Message:    msg,
			Details:    details,
		}
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return &APIError{
			Kind:       KindTimeout,
			StatusCode: status,
			Message:    "Request timed out. Please try again.",
			Retryable:  true,
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return &APIError{
			Kind:       KindServer,
			StatusCode: status,
			Message:    "Server error. Please try again later.",
			Retryable:  true,
		}
	default:
		return &APIError{
			Kind:       KindServer,
			StatusCode: status,
			Message:    fmt.Sprintf("Unexpected error (%d). Please try again.", status),
			Retryable:  status >= 500,
			Details:    details,
		}
	}
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
